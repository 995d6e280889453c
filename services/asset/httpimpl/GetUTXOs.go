package httpimpl

import (
	"net/http"
	"strconv"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/labstack/echo/v4"
	"github.com/ordishs/gocore"
)

func (h *HTTP) GetBalance(c echo.Context) error {
	defer AssetStat.NewStat("GetBalance_http").AddTime(gocore.CurrentTime())

	address := c.Param("address")

	balance, err := h.repository.GetBalance(address)
	if err != nil {
		return sendError(err)
	}

	type response struct {
		Address string `json:"address"`
		Balance uint64 `json:"balance"`
	}

	return c.JSONPretty(http.StatusOK, response{Address: address, Balance: balance}, "  ")
}

func (h *HTTP) GetUTXOs(c echo.Context) error {
	defer AssetStat.NewStat("GetUTXOs_http").AddTime(gocore.CurrentTime())

	utxos, err := h.repository.ListUTXOs(c.Param("address"))
	if err != nil {
		return sendError(err)
	}

	return c.JSONPretty(http.StatusOK, utxos, "  ")
}

// GetSufficientUTXOs answers 400 when the address cannot cover the value.
func (h *HTTP) GetSufficientUTXOs(c echo.Context) error {
	defer AssetStat.NewStat("GetSufficientUTXOs_http").AddTime(gocore.CurrentTime())

	value, err := strconv.ParseUint(c.Param("value"), 10, 64)
	if err != nil {
		return sendError(errors.NewInvalidArgumentError("invalid value %q", c.Param("value"), err))
	}

	utxos, err := h.repository.SelectUTXOsForAmount(c.Param("address"), value)
	if err != nil {
		return sendError(err)
	}

	return c.JSONPretty(http.StatusOK, utxos, "  ")
}
