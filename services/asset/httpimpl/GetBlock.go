package httpimpl

import (
	"net/http"
	"strconv"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/labstack/echo/v4"
	"github.com/ordishs/gocore"
)

func (h *HTTP) GetBlock(c echo.Context) error {
	defer AssetStat.NewStat("GetBlock_http").AddTime(gocore.CurrentTime())

	height, err := strconv.ParseUint(c.Param("height"), 10, 64)
	if err != nil {
		return sendError(errors.NewInvalidArgumentError("invalid height %q", c.Param("height"), err))
	}

	block, err := h.repository.GetBlock(c.Request().Context(), height)
	if err != nil {
		return sendError(err)
	}

	return c.JSONPretty(http.StatusOK, block, "  ")
}

func (h *HTTP) GetBestBlock(c echo.Context) error {
	defer AssetStat.NewStat("GetBestBlock_http").AddTime(gocore.CurrentTime())

	block, err := h.repository.GetBestBlock()
	if err != nil {
		return sendError(err)
	}

	return c.JSONPretty(http.StatusOK, block, "  ")
}

// GetLastNBlocks returns ?limit= blocks (default 10, at most 100), highest first.
func (h *HTTP) GetLastNBlocks(c echo.Context) error {
	defer AssetStat.NewStat("GetLastNBlocks_http").AddTime(gocore.CurrentTime())

	limit := uint64(10)

	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return sendError(errors.NewInvalidArgumentError("invalid limit %q", raw, err))
		}

		limit = n
	}

	if limit > 100 {
		limit = 100
	}

	blocks, err := h.repository.GetLastNBlocks(c.Request().Context(), limit)
	if err != nil {
		return sendError(err)
	}

	return c.JSONPretty(http.StatusOK, blocks, "  ")
}
