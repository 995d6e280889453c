// Package daemon wires the stores and services of a node together and runs them under a service
// manager.
package daemon

import (
	"context"
	"sync"

	"github.com/bitcoin-vm/mru/settings"
	"github.com/bitcoin-vm/mru/tracing"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/bitcoin-vm/mru/util/servicemanager"
)

const (
	serviceSequencer = "Sequencer"
	serviceAsset     = "Asset"
	serviceBridge    = "Bridge"
)

type Daemon struct {
	Ctx            context.Context
	ServiceManager *servicemanager.ServiceManager
	loggerFactory  func(serviceName string) ulogger.Logger
	handleSignals  bool
	stores         *Stores
	stopOnce       sync.Once
}

func New(opts ...Option) *Daemon {
	d := &Daemon{
		Ctx: context.Background(),
		loggerFactory: func(serviceName string) ulogger.Logger {
			return ulogger.New(serviceName)
		},
		stores: &Stores{},
	}

	for _, opt := range opts {
		opt(d)
	}

	d.ServiceManager = servicemanager.NewServiceManager(d.Ctx, d.loggerFactory("ServiceManager"))

	return d
}

// Start blocks until a service fails or Stop is called. readyCh, when given, is closed once every
// service signalled readiness.
func (d *Daemon) Start(logger ulogger.Logger, tSettings *settings.Settings, readyCh ...chan struct{}) error {
	sm := d.ServiceManager

	shutdownTracer, err := tracing.InitTracer(d.Ctx, "mru", tSettings)
	if err != nil {
		return err
	}

	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warnf("error shutting down tracer: %v", err)
		}
	}()

	if d.handleSignals {
		sm.HandleSignals()
	}

	if err = d.startServices(sm.Ctx, tSettings, sm); err != nil {
		logger.Errorf("error starting services: %v", err)

		sm.Shutdown()

		if waitErr := sm.Wait(); waitErr != nil {
			logger.Warnf("error stopping services: %v", waitErr)
		}

		d.stores.Close(logger)

		return err
	}

	if len(readyCh) > 0 && readyCh[0] != nil {
		close(readyCh[0])
	}

	logger.Infof("all services started")

	err = sm.Wait()
	if err != nil {
		logger.Errorf("services failed: %v", err)
	}

	d.stores.Close(logger)

	logger.Infof("daemon shutdown completed")

	return err
}

func (d *Daemon) Stop() {
	d.stopOnce.Do(d.ServiceManager.Shutdown)
}
