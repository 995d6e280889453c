// Package settings reads the node configuration from settings.conf / settings_local.conf through gocore.
package settings

import (
	"net/url"
	"time"

	"github.com/bitcoin-vm/mru/chaincfg"
)

type Settings struct {
	Network            string
	ChainCfgParams     *chaincfg.Params
	DataFolder         string
	LogLevel           string
	PrettyLogs         bool
	PrometheusEndpoint string
	Ledger             LedgerSettings
	Sequencer          SequencerSettings
	BlockChain         BlockChainSettings
	Asset              AssetSettings
	Kafka              KafkaSettings
	Bridge             BridgeSettings
	Tracing            TracingSettings
}

type LedgerSettings struct {
	GenesisFile   string
	VerifyScripts bool
}

type SequencerSettings struct {
	BlockTime          time.Duration
	BlockSize          int
	AllowEmptyBlocks   bool
	OperatorPrivateKey string
	ConfirmationTTL    time.Duration
	MaxPoolSize        int
}

type BlockChainSettings struct {
	StoreURL *url.URL
}

type AssetSettings struct {
	HTTPListenAddress string
	APIPrefix         string
	WaitTimeout       time.Duration
	// SubmitRateLimit is requests per second per client IP on the submission routes, 0 disables it.
	SubmitRateLimit float64
}

type KafkaSettings struct {
	CommitmentsURL   *url.URL
	BridgeTicketsURL *url.URL
}

type BridgeSettings struct {
	Enabled       bool
	ConsumerGroup string
}

type TracingSettings struct {
	Enabled      bool
	CollectorURL string
	SampleRate   float64
}

// NewSettings panics on an unknown network, the node cannot do anything useful without chain params.
func NewSettings() *Settings {
	network := getString("network", "regtest")

	params, err := chaincfg.GetChainParams(network)
	if err != nil {
		panic(err)
	}

	return &Settings{
		Network:            network,
		ChainCfgParams:     params,
		DataFolder:         getString("dataFolder", "data"),
		LogLevel:           getString("logLevel", "INFO"),
		PrettyLogs:         getBool("PRETTY_LOGS", true),
		PrometheusEndpoint: getString("prometheusEndpoint", "/metrics"),
		Ledger: LedgerSettings{
			GenesisFile:   getString("ledger_genesisFile", ""),
			VerifyScripts: getBool("ledger_verifyScripts", true),
		},
		Sequencer: SequencerSettings{
			BlockTime:          getDuration("sequencer_blockTime", 100*time.Millisecond),
			BlockSize:          getInt("sequencer_blockSize", 1),
			AllowEmptyBlocks:   getBool("sequencer_allowEmptyBlocks", false),
			OperatorPrivateKey: getString("sequencer_operatorPrivateKey", ""),
			ConfirmationTTL:    getDuration("sequencer_confirmationTTL", 10*time.Minute),
			MaxPoolSize:        getInt("sequencer_maxPoolSize", 100_000),
		},
		BlockChain: BlockChainSettings{
			StoreURL: getURL("blockchain_store", "sqlitememory:///blockchain"),
		},
		Asset: AssetSettings{
			HTTPListenAddress: getString("asset_httpListenAddress", ":8090"),
			APIPrefix:         getString("asset_apiPrefix", "/api/v1"),
			WaitTimeout:       getDuration("asset_waitTimeout", 30*time.Second),
			SubmitRateLimit:   getFloat64("asset_submitRateLimit", 50),
		},
		Kafka: KafkaSettings{
			CommitmentsURL:   getURL("kafka_commitmentsURL", ""),
			BridgeTicketsURL: getURL("kafka_bridgeTicketsURL", ""),
		},
		Bridge: BridgeSettings{
			Enabled:       getBool("bridge_enabled", false),
			ConsumerGroup: getString("bridge_consumerGroup", "mru-bridge"),
		},
		Tracing: TracingSettings{
			Enabled:      getBool("tracing_enabled", false),
			CollectorURL: getString("tracing_collectorURL", "http://localhost:4318/v1/traces"),
			SampleRate:   getFloat64("tracing_sampleRate", 0.01),
		},
	}
}
