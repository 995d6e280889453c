// Package servicemanager starts the node services in registration order and stops them in reverse
// order when one of them fails or the process receives SIGINT/SIGTERM.
package servicemanager

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/ulogger"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"
)

type Service interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	Init(ctx context.Context) error
	Start(ctx context.Context, readyCh chan<- struct{}) error
	Stop(ctx context.Context) error
}

type serviceWrapper struct {
	name     string
	instance Service
}

type ServiceManager struct {
	mu         sync.Mutex
	services   []serviceWrapper
	logger     ulogger.Logger
	Ctx        context.Context
	cancelFunc context.CancelFunc
	g          *errgroup.Group
}

func NewServiceManager(ctx context.Context, logger ulogger.Logger) *ServiceManager {
	ctx, cancelFunc := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)

	return &ServiceManager{
		logger:     logger,
		Ctx:        ctx,
		cancelFunc: cancelFunc,
		g:          g,
	}
}

// HandleSignals cancels the manager context on SIGINT or SIGTERM.
func (sm *ServiceManager) HandleSignals() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigs:
			sm.logger.Infof("[ServiceManager] received shutdown signal, stopping services")
			sm.cancelFunc()
		case <-sm.Ctx.Done():
		}

		signal.Stop(sigs)
	}()
}

// AddService initialises the service and starts it. It returns once the service signalled readiness, so
// services added later can depend on it.
func (sm *ServiceManager) AddService(name string, service Service) error {
	sm.logger.Infof("[ServiceManager] initializing service %s", name)

	if err := service.Init(sm.Ctx); err != nil {
		return errors.NewServiceError("failed to initialize service %s", name, err)
	}

	sm.mu.Lock()
	sm.services = append(sm.services, serviceWrapper{name: name, instance: service})
	sm.mu.Unlock()

	readyCh := make(chan struct{})

	var readyOnce sync.Once

	signalReady := make(chan struct{})

	go func() {
		select {
		case <-readyCh:
		case <-sm.Ctx.Done():
		}

		readyOnce.Do(func() { close(signalReady) })
	}()

	sm.g.Go(func() error {
		sm.logger.Infof("[ServiceManager] starting service %s", name)

		if err := service.Start(sm.Ctx, readyCh); err != nil {
			readyOnce.Do(func() { close(signalReady) })
			return errors.NewServiceError("service %s failed", name, err)
		}

		return nil
	})

	<-signalReady

	return nil
}

// Wait blocks until the context is cancelled or a service fails, then stops all services.
func (sm *ServiceManager) Wait() error {
	<-sm.Ctx.Done()

	sm.mu.Lock()
	services := append([]serviceWrapper(nil), sm.services...)
	sm.mu.Unlock()

	for i := len(services) - 1; i >= 0; i-- {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)

		if err := services[i].instance.Stop(stopCtx); err != nil {
			sm.logger.Warnf("[ServiceManager] failed to stop service %s: %v", services[i].name, err)
		} else {
			sm.logger.Infof("[ServiceManager] service %s stopped", services[i].name)
		}

		stopCancel()
	}

	err := sm.g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

// Shutdown cancels the manager context.
func (sm *ServiceManager) Shutdown() {
	sm.cancelFunc()
}

// HealthHandler returns an aggregated readiness or liveness check over every registered service.
func (sm *ServiceManager) HealthHandler(checkLiveness bool) func(ctx context.Context) (int, string, error) {
	return func(ctx context.Context) (int, string, error) {
		sm.mu.Lock()
		services := append([]serviceWrapper(nil), sm.services...)
		sm.mu.Unlock()

		sort.SliceStable(services, func(i, j int) bool { return services[i].name < services[j].name })

		status := http.StatusOK
		report := make(map[string]interface{}, len(services))

		var errs []error

		for _, s := range services {
			code, msg, err := s.instance.Health(ctx, checkLiveness)
			if err != nil {
				errs = append(errs, err)
			}

			if code != http.StatusOK {
				status = http.StatusServiceUnavailable
			}

			if jsoniter.Valid([]byte(msg)) {
				report[s.name] = json.RawMessage(msg)
			} else {
				report[s.name] = msg
			}
		}

		b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(report)
		if err != nil {
			return http.StatusInternalServerError, "", errors.NewProcessingError("failed to encode health report", err)
		}

		return status, string(b), errors.Join(errs...)
	}
}
