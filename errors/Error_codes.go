package errors

// ERR is the numeric error code carried by *Error.
type ERR int32

const (
	ERR_UNKNOWN            ERR = 0
	ERR_INVALID_ARGUMENT   ERR = 1
	ERR_NOT_FOUND          ERR = 2
	ERR_PROCESSING         ERR = 3
	ERR_CONFIGURATION      ERR = 4
	ERR_CONTEXT_CANCELED   ERR = 5
	ERR_ERROR              ERR = 9
	ERR_BLOCK_NOT_FOUND    ERR = 10
	ERR_TX_NOT_FOUND       ERR = 30
	ERR_TX_INVALID         ERR = 31
	ERR_TX_ALREADY_EXISTS  ERR = 32
	ERR_UTXO_NOT_FOUND     ERR = 33
	ERR_TX_IMBALANCE       ERR = 34
	ERR_LOCKTIME           ERR = 35
	ERR_UNAUTHORIZED       ERR = 40
	ERR_INSUFFICIENT_FUNDS ERR = 41
	ERR_SERVICE_ERROR      ERR = 50
	ERR_STORAGE_ERROR      ERR = 60
)

var ERR_name = map[int32]string{
	0:  "UNKNOWN",
	1:  "INVALID_ARGUMENT",
	2:  "NOT_FOUND",
	3:  "PROCESSING",
	4:  "CONFIGURATION",
	5:  "CONTEXT_CANCELED",
	9:  "ERROR",
	10: "BLOCK_NOT_FOUND",
	30: "TX_NOT_FOUND",
	31: "TX_INVALID",
	32: "TX_ALREADY_EXISTS",
	33: "UTXO_NOT_FOUND",
	34: "TX_IMBALANCE",
	35: "LOCKTIME",
	40: "UNAUTHORIZED",
	41: "INSUFFICIENT_FUNDS",
	50: "SERVICE_ERROR",
	60: "STORAGE_ERROR",
}

var ERR_value = func() map[string]int32 {
	m := make(map[string]int32, len(ERR_name))
	for k, v := range ERR_name {
		m[v] = k
	}

	return m
}()

// Enum returns the symbolic name of the code.
func (x ERR) Enum() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return "UNKNOWN"
}

func (x ERR) String() string {
	return x.Enum()
}
