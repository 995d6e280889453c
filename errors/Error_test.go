package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIs(t *testing.T) {
	dup := NewTxInvalidError("mint %s already recorded", "abcd", ErrTxAlreadyExists)

	require.True(t, Is(dup, ErrTxInvalid))
	require.True(t, Is(dup, ErrTxAlreadyExists))
	require.False(t, Is(dup, ErrLockTime))

	wrapped := fmt.Errorf("round 4: %w", dup)
	require.True(t, Is(wrapped, ErrTxAlreadyExists))

	var target *Error
	require.True(t, As(wrapped, &target))
	assert.Equal(t, ERR_TX_INVALID, target.Code())
	assert.Equal(t, "mint abcd already recorded", target.Message())
}

func TestNewWrapsTrailingError(t *testing.T) {
	err := NewStorageError("failed to write block %d", 7, context.DeadlineExceeded)

	var e *Error
	require.True(t, As(err, &e))
	assert.Equal(t, "failed to write block 7", e.Message())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "STORAGE_ERROR (60)")
}

func TestNewInvalidCode(t *testing.T) {
	err := New(ERR(999), "boom")
	assert.Contains(t, err.Message(), "invalid error code")
	assert.Equal(t, "UNKNOWN", err.Code().Enum())
}

func TestErrorData(t *testing.T) {
	err := New(ERR_UTXO_NOT_FOUND, "missing input").
		WithData("txid", "ff").
		WithData("vout", 2)

	assert.Equal(t, "ff", err.GetData("txid"))
	assert.Equal(t, 2, err.GetData("vout"))
	assert.Contains(t, err.Error(), "[data:txid=ff vout=2]")

	var data *ErrData
	require.True(t, AsData(NewTxInvalidError("outer", err), &data))
	assert.Equal(t, "ff", data.GetData("txid"))
}

func TestNilError(t *testing.T) {
	var e *Error

	assert.Equal(t, "<nil>", e.Error())
	assert.Equal(t, ERR_UNKNOWN, e.Code())
	assert.False(t, e.Is(ErrTxInvalid))
	assert.NoError(t, e.Unwrap())
}

func TestJoin(t *testing.T) {
	assert.NoError(t, Join(nil, nil))

	err := Join(ErrTxInvalid, nil, ErrLockTime)
	require.Error(t, err)
	assert.True(t, Is(err, ErrLockTime))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NewTxNotFoundError("x"), http.StatusNotFound},
		{NewTxInvalidError("x"), http.StatusBadRequest},
		{NewInsufficientFundsError("x"), http.StatusBadRequest},
		{NewTxAlreadyExistsError("x"), http.StatusConflict},
		{NewUnauthorizedError("x"), http.StatusForbidden},
		{NewStorageError("x"), http.StatusServiceUnavailable},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "%v", tt.err)
	}
}
