package blockchain

import (
	"net/url"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/stores/blockchain/sql"
	"github.com/bitcoin-vm/mru/ulogger"
)

func NewStore(logger ulogger.Logger, storeURL *url.URL, dataFolder string) (Store, error) {
	if storeURL == nil {
		return nil, errors.NewConfigurationError("blockchain store url is not set")
	}

	switch storeURL.Scheme {
	case "postgres":
		fallthrough
	case "sqlitememory":
		fallthrough
	case "sqlite":
		return sql.New(logger, storeURL, dataFolder)
	}

	return nil, errors.NewStorageError("unknown scheme: %s", storeURL.Scheme)
}
