package httpimpl

import (
	"net/http"
	"strings"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/ordishs/gocore"
)

// GetAction returns the result of an action. With ?wait=true it blocks until the action is in a block or
// asset_waitTimeout expires.
func (h *HTTP) GetAction(c echo.Context) error {
	defer AssetStat.NewStat("GetAction_http").AddTime(gocore.CurrentTime())

	raw := c.Param("hash")
	if len(strings.TrimPrefix(raw, "0x")) != 2*common.HashLength {
		return sendError(errors.NewInvalidArgumentError("invalid action hash %q", raw))
	}

	wait := h.settings.Asset.WaitTimeout
	if c.QueryParam("wait") != "true" {
		wait = 0
	}

	result, err := h.repository.GetActionResult(c.Request().Context(), common.HexToHash(raw), wait)
	if err != nil {
		return sendError(err)
	}

	return c.JSONPretty(http.StatusOK, result, "  ")
}
