package daemon

import (
	"sync"

	"github.com/bitcoin-vm/mru/settings"
	"github.com/bitcoin-vm/mru/stores/blockchain"
	"github.com/bitcoin-vm/mru/ulogger"
)

// Stores holds the stores shared by the services of one daemon.
type Stores struct {
	mu              sync.Mutex
	blockchainStore blockchain.Store
}

func (s *Stores) GetBlockchainStore(logger ulogger.Logger, tSettings *settings.Settings) (blockchain.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blockchainStore != nil {
		return s.blockchainStore, nil
	}

	store, err := blockchain.NewStore(logger, tSettings.BlockChain.StoreURL, tSettings.DataFolder)
	if err != nil {
		return nil, err
	}

	s.blockchainStore = store

	return store, nil
}

func (s *Stores) Close(logger ulogger.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blockchainStore == nil {
		return
	}

	logger.Debugf("closing blockchain store")

	if err := s.blockchainStore.Close(); err != nil {
		logger.Warnf("error closing blockchain store: %v", err)
	}

	s.blockchainStore = nil
}
