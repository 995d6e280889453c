package httpimpl

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ordishs/gocore"
)

func (h *HTTP) GetTransaction(mode ReadMode) func(c echo.Context) error {
	return func(c echo.Context) error {
		defer AssetStat.NewStat("GetTransaction_http").AddTime(gocore.CurrentTime())

		txID := c.Param("txId")

		payload, err := h.repository.GetTransaction(txID)
		if err != nil {
			return sendError(err)
		}

		if mode == HEX {
			return c.String(http.StatusOK, payload)
		}

		type response struct {
			TxID string `json:"txid"`
			Hex  string `json:"hex"`
		}

		return c.JSONPretty(http.StatusOK, response{TxID: txID, Hex: payload}, "  ")
	}
}
