package errors

import "net/http"

// HTTPStatus maps an error to the status code returned by the HTTP API.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch CodeOf(err) {
	case ERR_NOT_FOUND, ERR_TX_NOT_FOUND, ERR_BLOCK_NOT_FOUND:
		return http.StatusNotFound
	case ERR_INVALID_ARGUMENT, ERR_TX_INVALID, ERR_UTXO_NOT_FOUND, ERR_TX_IMBALANCE,
		ERR_LOCKTIME, ERR_INSUFFICIENT_FUNDS:
		return http.StatusBadRequest
	case ERR_TX_ALREADY_EXISTS:
		return http.StatusConflict
	case ERR_UNAUTHORIZED:
		return http.StatusForbidden
	case ERR_CONTEXT_CANCELED:
		return http.StatusRequestTimeout
	case ERR_SERVICE_ERROR, ERR_STORAGE_ERROR:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
