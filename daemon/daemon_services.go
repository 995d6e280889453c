package daemon

import (
	"context"

	"github.com/bitcoin-vm/mru/ledger"
	"github.com/bitcoin-vm/mru/services/asset"
	"github.com/bitcoin-vm/mru/services/bridge"
	"github.com/bitcoin-vm/mru/services/sequencer"
	"github.com/bitcoin-vm/mru/settings"
	"github.com/bitcoin-vm/mru/util/servicemanager"
)

// startServices adds the services in dependency order: the sequencer owns the chain, the asset
// service reads it and the bridge writes to it.
func (d *Daemon) startServices(_ context.Context, tSettings *settings.Settings, sm *servicemanager.ServiceManager) error {
	seq, err := d.newSequencer(tSettings)
	if err != nil {
		return err
	}

	if err = sm.AddService(serviceSequencer, seq); err != nil {
		return err
	}

	store, err := d.stores.GetBlockchainStore(d.loggerFactory("bcstore"), tSettings)
	if err != nil {
		return err
	}

	if err = sm.AddService(serviceAsset, asset.NewServer(
		d.loggerFactory("asset"),
		tSettings,
		seq,
		store,
		sm.HealthHandler(false),
	)); err != nil {
		return err
	}

	if !tSettings.Bridge.Enabled {
		return nil
	}

	return sm.AddService(serviceBridge, bridge.New(d.loggerFactory("bridge"), tSettings, seq))
}

func (d *Daemon) newSequencer(tSettings *settings.Settings) (*sequencer.Sequencer, error) {
	store, err := d.stores.GetBlockchainStore(d.loggerFactory("bcstore"), tSettings)
	if err != nil {
		return nil, err
	}

	engine := ledger.NewEngine(
		d.loggerFactory("ledger"),
		tSettings.ChainCfgParams,
		ledger.WithScriptVerification(tSettings.Ledger.VerifyScripts),
	)

	var opts []sequencer.Option

	producer, err := getKafkaCommitmentsProducer(d.loggerFactory("kafka"), tSettings)
	if err != nil {
		return nil, err
	}

	if producer != nil {
		opts = append(opts, sequencer.WithProducer(producer))
	}

	seq, err := sequencer.New(d.loggerFactory("sequencer"), tSettings, store, engine, opts...)
	if err != nil && producer != nil {
		_ = producer.Close()
	}

	return seq, err
}
