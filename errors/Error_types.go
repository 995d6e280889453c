package errors

var (
	ErrUnknown           = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument   = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrNotFound          = New(ERR_NOT_FOUND, "not found")
	ErrProcessing        = New(ERR_PROCESSING, "error processing")
	ErrConfiguration     = New(ERR_CONFIGURATION, "configuration error")
	ErrContextCanceled   = New(ERR_CONTEXT_CANCELED, "context canceled")
	ErrError             = New(ERR_ERROR, "generic error")
	ErrBlockNotFound     = New(ERR_BLOCK_NOT_FOUND, "block not found")
	ErrTxNotFound        = New(ERR_TX_NOT_FOUND, "tx not found")
	ErrTxInvalid         = New(ERR_TX_INVALID, "tx invalid")
	ErrTxAlreadyExists   = New(ERR_TX_ALREADY_EXISTS, "tx already exists")
	ErrUtxoNotFound      = New(ERR_UTXO_NOT_FOUND, "utxo not found")
	ErrTxImbalance       = New(ERR_TX_IMBALANCE, "inputs and outputs do not balance")
	ErrLockTime          = New(ERR_LOCKTIME, "locktime not matured")
	ErrUnauthorized      = New(ERR_UNAUTHORIZED, "sender is not an admin")
	ErrInsufficientFunds = New(ERR_INSUFFICIENT_FUNDS, "insufficient funds")
	ErrServiceError      = New(ERR_SERVICE_ERROR, "service error")
	ErrStorageError      = New(ERR_STORAGE_ERROR, "storage error")
)

func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}

func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}

func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}

func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}

func NewContextCanceledError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT_CANCELED, message, params...)
}

func NewBlockNotFoundError(message string, params ...interface{}) error {
	return New(ERR_BLOCK_NOT_FOUND, message, params...)
}

func NewTxNotFoundError(message string, params ...interface{}) error {
	return New(ERR_TX_NOT_FOUND, message, params...)
}

// NewTxInvalidError is the ValidationError of the transition engine.
func NewTxInvalidError(message string, params ...interface{}) error {
	return New(ERR_TX_INVALID, message, params...)
}

func NewTxAlreadyExistsError(message string, params ...interface{}) error {
	return New(ERR_TX_ALREADY_EXISTS, message, params...)
}

func NewUtxoNotFoundError(message string, params ...interface{}) error {
	return New(ERR_UTXO_NOT_FOUND, message, params...)
}

func NewTxImbalanceError(message string, params ...interface{}) error {
	return New(ERR_TX_IMBALANCE, message, params...)
}

func NewLockTimeError(message string, params ...interface{}) error {
	return New(ERR_LOCKTIME, message, params...)
}

func NewUnauthorizedError(message string, params ...interface{}) error {
	return New(ERR_UNAUTHORIZED, message, params...)
}

func NewInsufficientFundsError(message string, params ...interface{}) error {
	return New(ERR_INSUFFICIENT_FUNDS, message, params...)
}

func NewServiceError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_ERROR, message, params...)
}

func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_ERROR, message, params...)
}
