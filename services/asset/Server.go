// Package asset is the HTTP query and submission surface of the ledger.
package asset

import (
	"context"
	"net/http"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/services/asset/httpimpl"
	"github.com/bitcoin-vm/mru/services/asset/repository"
	"github.com/bitcoin-vm/mru/settings"
	"github.com/bitcoin-vm/mru/stores/blockchain"
	"github.com/bitcoin-vm/mru/ulogger"
)

type Server struct {
	logger     ulogger.Logger
	settings   *settings.Settings
	ledger     repository.Ledger
	store      blockchain.Store
	health     httpimpl.HealthFunc
	httpServer *httpimpl.HTTP
}

// NewServer wires the asset API to the sequencer and block store. health backs /health; when nil the
// repository check is used.
func NewServer(logger ulogger.Logger, tSettings *settings.Settings, l repository.Ledger, store blockchain.Store, health httpimpl.HealthFunc) *Server {
	return &Server{
		logger:   logger,
		settings: tSettings,
		ledger:   l,
		store:    store,
		health:   health,
	}
}

func (s *Server) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	if s.httpServer == nil {
		return http.StatusServiceUnavailable, "not initialised", errors.NewServiceError("asset service is not initialised")
	}

	return http.StatusOK, "OK", nil
}

func (s *Server) Init(_ context.Context) error {
	if s.settings.Asset.HTTPListenAddress == "" {
		return errors.NewConfigurationError("asset_httpListenAddress is not set")
	}

	repo := repository.NewRepository(s.logger, s.ledger, s.store, s.settings.ChainCfgParams)
	s.httpServer = httpimpl.New(s.logger, s.settings, repo, s.health)

	return nil
}

func (s *Server) Start(ctx context.Context, readyCh chan<- struct{}) error {
	close(readyCh)

	return s.httpServer.Start(ctx, s.settings.Asset.HTTPListenAddress)
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Stop(ctx)
}
