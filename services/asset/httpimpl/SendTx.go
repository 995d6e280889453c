package httpimpl

import (
	"net/http"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/model"
	"github.com/labstack/echo/v4"
	"github.com/ordishs/gocore"
)

type sendTxRequest struct {
	Hex string `json:"hex"`
}

// SendTx accepts {"hex": "..."} and answers 202 with the pending action result. Transactions without
// inputs and coinbases are refused with 400.
func (h *HTTP) SendTx(c echo.Context) error {
	defer AssetStat.NewStat("SendTx_http").AddTime(gocore.CurrentTime())

	var req sendTxRequest
	if err := c.Bind(&req); err != nil || req.Hex == "" {
		return sendError(errors.NewInvalidArgumentError("body must be {\"hex\": \"<serialized tx>\"}"))
	}

	result, err := h.repository.SubmitRawTransaction(c.Request().Context(), req.Hex)
	if err != nil {
		return sendError(err)
	}

	return c.JSON(http.StatusAccepted, result)
}

// SubmitAction accepts a client signed action.
func (h *HTTP) SubmitAction(c echo.Context) error {
	defer AssetStat.NewStat("SubmitAction_http").AddTime(gocore.CurrentTime())

	var action model.Action
	if err := c.Bind(&action); err != nil {
		return sendError(errors.NewInvalidArgumentError("malformed action", err))
	}

	result, err := h.repository.SubmitAction(c.Request().Context(), &action)
	if err != nil {
		return sendError(err)
	}

	return c.JSON(http.StatusAccepted, result)
}
