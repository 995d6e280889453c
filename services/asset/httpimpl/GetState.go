package httpimpl

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ordishs/gocore"
)

type ReadMode int

const (
	JSON ReadMode = iota
	HEX
)

// GetState returns the whole committed ledger state.
func (h *HTTP) GetState(c echo.Context) error {
	defer AssetStat.NewStat("GetState_http").AddTime(gocore.CurrentTime())

	state, err := h.repository.GetState()
	if err != nil {
		return sendError(err)
	}

	return c.JSON(http.StatusOK, state)
}

// GetRoot returns the state commitment and its three sub roots.
func (h *HTTP) GetRoot(c echo.Context) error {
	defer AssetStat.NewStat("GetRoot_http").AddTime(gocore.CurrentTime())

	roots, err := h.repository.GetRoots()
	if err != nil {
		return sendError(err)
	}

	return c.JSONPretty(http.StatusOK, roots, "  ")
}
