package sequencer

import (
	"context"
	"net/http"
	"time"

	"github.com/bitcoin-vm/mru/errors"
)

type health struct {
	State   string `json:"state"`
	Height  uint64 `json:"height"`
	Root    string `json:"root"`
	Pending int    `json:"pending"`
}

// Health reports readiness once the chain is loaded and blocks are being produced.
func (s *Sequencer) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	best := s.BestBlock()
	if best == nil {
		return http.StatusServiceUnavailable, "not initialised", errors.NewServiceError("sequencer is not initialised")
	}

	body, err := jsonAPI.Marshal(health{
		State:   s.fsm.Current(),
		Height:  best.Height,
		Root:    best.StateRoot.Hex(),
		Pending: s.pool.Len(),
	})
	if err != nil {
		return http.StatusInternalServerError, "", errors.NewProcessingError("failed to encode health", err)
	}

	if status, _, err := s.store.Health(ctx, false); err != nil {
		return status, string(body), err
	}

	if !s.fsm.Is(StateRunning) {
		return http.StatusServiceUnavailable, string(body), errors.NewServiceError("sequencer is %s", s.fsm.Current())
	}

	return http.StatusOK, string(body), nil
}

func (s *Sequencer) Init(ctx context.Context) error {
	return s.loadChain(ctx)
}

// Start produces a block every sequencer_blockTime until ctx is done.
func (s *Sequencer) Start(ctx context.Context, readyCh chan<- struct{}) error {
	if err := s.fsm.Event(ctx, EventRun); err != nil {
		return errors.NewServiceError("failed to start sequencer", err)
	}

	close(readyCh)

	ticker := time.NewTicker(s.settings.Sequencer.BlockTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !s.fsm.Is(StateRunning) {
				continue
			}

			if _, err := s.ProduceBlock(ctx); err != nil {
				s.logger.Errorf("[Sequencer] failed to produce block: %v", err)
			}
		}
	}
}

func (s *Sequencer) Stop(ctx context.Context) error {
	if s.fsm.Can(EventStop) {
		if err := s.fsm.Event(ctx, EventStop); err != nil {
			s.logger.Warnf("[Sequencer] failed to stop state machine: %v", err)
		}
	}

	s.stopOnce.Do(s.results.Stop)

	if s.producer != nil {
		return s.producer.Close()
	}

	return nil
}
