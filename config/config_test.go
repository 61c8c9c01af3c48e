package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvChain, "")
	t.Setenv(EnvRPCEndpoint, "")
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvRedisPassword, "")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arbscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "polygon", cfg.Chain)
	assert.Equal(t, common.HexToAddress("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270"), cfg.BaseToken)
	require.Len(t, cfg.Factories, 3)
	assert.Equal(t, "Quickswap", cfg.Factories[0].Name)
	assert.Equal(t, int64(997), cfg.Factories[0].Fee)
	assert.Len(t, cfg.Blacklist, 1)
	assert.Equal(t, int64(1000), cfg.BatchSize)

	assert.Equal(t, "10000000000000000000", cfg.MinReserveLiquidity.String())
	assert.Equal(t, "1000000000000000000", cfg.MinProfit.String())
	assert.Equal(t, "100000000000000000", cfg.ProbeVolume.String())

	require.Len(t, cfg.TestVolumes, 9)
	assert.Equal(t, "100000000000000000", cfg.TestVolumes[0].String())
	assert.Equal(t, "1666666666666666666", cfg.TestVolumes[2].String())
	assert.Equal(t, "100000000000000000000", cfg.TestVolumes[8].String())

	assert.Equal(t, StrategyGrid, cfg.Search.Strategy)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.CircuitBreaker.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadPresetAndFileOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
min_profit: "0.5"
fetch_timeout: 5s
search:
  strategy: ternary
  tolerance: 10
  max_iterations: 32
report:
  best_per_token: true
  tracker_size: 16
  display_places: 4
`)

	cfg, err := Load(path, "fantom")
	require.NoError(t, err)

	assert.Equal(t, "fantom", cfg.Chain)
	require.Len(t, cfg.Factories, 2)
	assert.Equal(t, int64(998), cfg.Factories[0].Fee)
	assert.Equal(t, "500000000000000000", cfg.MinProfit.String())
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, StrategyTernary, cfg.Search.Strategy)
	assert.True(t, cfg.Report.BestPerToken)
	assert.Equal(t, 16, cfg.Report.TrackerSize)

	// untouched defaults survive the overlay
	assert.Equal(t, 500, cfg.ReserveBatchSize)
	assert.Equal(t, "https://rpc.ftm.tools/", cfg.RPCEndpoint)
}

func TestLoadChainFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "chain: milko\n")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "milko", cfg.Chain)
	require.Len(t, cfg.Factories, 4)
	assert.Equal(t, int64(9975), cfg.Factories[3].Fee)
	assert.Equal(t, int64(10000), cfg.Factories[3].FeePrecision)
	assert.Empty(t, cfg.Blacklist)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvChain, "polygon")
	t.Setenv(EnvRPCEndpoint, "http://localhost:8545")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "polygon", cfg.Chain)
	assert.Equal(t, "http://localhost:8545", cfg.RPCEndpoint)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load("", "solana")
	assert.ErrorContains(t, err, "unknown chain")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), "polygon")
	assert.ErrorContains(t, err, "failed to read config file")

	path := writeConfig(t, "min_profitt: \"1\"\n")
	_, err = Load(path, "polygon")
	assert.ErrorContains(t, err, "failed to decode config file")

	// no chain and no factories
	_, err = Load("", "")
	assert.ErrorContains(t, err, "configuration")
}

func TestResolveAggregatesErrors(t *testing.T) {
	fc := DefaultFileConfig()
	require.NoError(t, ApplyPreset(&fc, "polygon"))
	fc.BaseToken = "not-an-address"
	fc.MinProfit = "abc"

	_, err := Resolve(fc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_token")
	assert.Contains(t, err.Error(), "min_profit")

	fc = DefaultFileConfig()
	require.NoError(t, ApplyPreset(&fc, "polygon"))
	fc.Factories[0].Fee = 1001
	fc.BatchSize = 0
	fc.TestVolumes = []string{"1", "0.5"}
	fc.Search.Strategy = "random"

	_, err = Resolve(fc)
	require.Error(t, err)
	for _, want := range []string{"fee 1001/1000", "batch_size", "test_volumes must be strictly ascending", "unknown strategy"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestResolveExplicitVolumes(t *testing.T) {
	fc := DefaultFileConfig()
	require.NoError(t, ApplyPreset(&fc, "polygon"))
	fc.BaseDecimals = 6
	fc.MinReserveLiquidity = "1000"
	fc.TestVolumes = []string{"10", "100", "1000.5"}

	cfg, err := Resolve(fc)
	require.NoError(t, err)
	require.Len(t, cfg.TestVolumes, 3)
	assert.Equal(t, "1000500000", cfg.TestVolumes[2].String())
	assert.Equal(t, "10000000", cfg.ProbeVolume.String())
}

func TestMarshal(t *testing.T) {
	cfg := DefaultConfig()
	out, err := cfg.Marshal()
	require.NoError(t, err)

	var fc FileConfig
	require.NoError(t, yaml.Unmarshal(out, &fc))
	assert.Equal(t, "polygon", fc.Chain)
	assert.Equal(t, cfg.Raw.Factories, fc.Factories)
	assert.Equal(t, 10*time.Second, fc.FetchTimeout)
}

func TestLoadEnv(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ARBSCAN_TEST_FROM_DOTENV=hello\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ARBSCAN_TEST_FROM_DOTENV") })

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "hello", os.Getenv("ARBSCAN_TEST_FROM_DOTENV"))
	assert.Equal(t, "fallback", GetEnvWithDefault("ARBSCAN_TEST_UNSET", "fallback"))
}

func TestChains(t *testing.T) {
	assert.Equal(t, []string{"fantom", "milko", "polygon"}, Chains())
}

func TestLoadExampleFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join("..", "arbscan.example.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, "polygon", cfg.Chain)
	assert.Equal(t, DefaultConfig().TestVolumes, cfg.TestVolumes)
	assert.Equal(t, 5, cfg.CircuitBreaker.ErrorThreshold)
}
