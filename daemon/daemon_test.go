package daemon

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitcoin-vm/mru/ledger"
	"github.com/bitcoin-vm/mru/settings"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const admin = "0x1111111111111111111111111111111111111111"

func testSettings(t *testing.T) *settings.Settings {
	t.Helper()

	genesis, err := ledger.GenerateGenesis(&chaincfg.RegressionNetParams, []string{admin}, []ledger.Funding{
		{Address: "mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn", Satoshis: 1_000},
	})
	require.NoError(t, err)

	data, err := genesis.Bytes()
	require.NoError(t, err)

	genesisFile := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(genesisFile, data, 0o600))

	storeURL, err := url.Parse("sqlitememory:///daemon")
	require.NoError(t, err)

	return &settings.Settings{
		Network:            "regtest",
		ChainCfgParams:     &chaincfg.RegressionNetParams,
		DataFolder:         t.TempDir(),
		PrometheusEndpoint: "/metrics",
		Ledger:             settings.LedgerSettings{GenesisFile: genesisFile, VerifyScripts: true},
		Sequencer: settings.SequencerSettings{
			BlockTime:       10 * time.Millisecond,
			BlockSize:       10,
			ConfirmationTTL: time.Minute,
			MaxPoolSize:     100,
		},
		BlockChain: settings.BlockChainSettings{StoreURL: storeURL},
		Asset: settings.AssetSettings{
			HTTPListenAddress: "127.0.0.1:0",
			APIPrefix:         "/api/v1",
			WaitTimeout:       time.Second,
		},
	}
}

func TestDaemonStartStop(t *testing.T) {
	d := New(WithLoggerFactory(func(string) ulogger.Logger { return ulogger.TestLogger{} }))

	readyCh := make(chan struct{})
	errCh := make(chan error, 1)

	go func() {
		errCh <- d.Start(ulogger.TestLogger{}, testSettings(t), readyCh)
	}()

	select {
	case <-readyCh:
	case err := <-errCh:
		t.Fatalf("daemon stopped before it was ready: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not become ready")
	}

	status, body, err := d.ServiceManager.HealthHandler(false)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"Sequencer"`)
	assert.NotContains(t, body, `"Bridge"`)

	d.Stop()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestDaemonFailsWithoutGenesis(t *testing.T) {
	tSettings := testSettings(t)
	tSettings.Ledger.GenesisFile = filepath.Join(t.TempDir(), "missing.json")

	d := New(WithLoggerFactory(func(string) ulogger.Logger { return ulogger.TestLogger{} }))

	err := d.Start(ulogger.TestLogger{}, tSettings)
	require.Error(t, err)
}
