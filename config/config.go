package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/arbscan/types"
	umath "github.com/michaelpento.lv/arbscan/utils/math"
	"gopkg.in/yaml.v2"
)

// Search strategies
const (
	StrategyGrid    = "grid"
	StrategyTernary = "ternary"
)

// FileConfig is the YAML representation of the configuration. Amounts are
// decimal strings in whole base token units.
type FileConfig struct {
	Chain       string `yaml:"chain"`
	RPCEndpoint string `yaml:"rpc_endpoint"`

	Factories       []FactoryConfig `yaml:"factories"`
	BaseToken       string          `yaml:"base_token"`
	BaseDecimals    int32           `yaml:"base_decimals"`
	BlacklistTokens []string        `yaml:"blacklist_tokens"`
	LookupContract  string          `yaml:"lookup_contract"`

	// Discovery and refresh batching
	BatchSize        int64 `yaml:"batch_size"`
	BatchCountLimit  int   `yaml:"batch_count_limit"`
	ReserveBatchSize int   `yaml:"reserve_batch_size"`

	// Evaluation thresholds
	MinReserveLiquidity string   `yaml:"min_reserve_liquidity"`
	MinProfit           string   `yaml:"min_profit"`
	ProbeDivisor        int64    `yaml:"probe_divisor"`
	TestVolumes         []string `yaml:"test_volumes,omitempty"`

	// Loop timing
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	ScanInterval time.Duration `yaml:"scan_interval"`

	Backoff        BackoffConfig        `yaml:"backoff"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	RPCRateLimit   RateLimitConfig      `yaml:"rpc_rate_limit"`
	Search         SearchConfig         `yaml:"search"`
	Report         ReportConfig         `yaml:"report"`
	Redis          RedisConfig          `yaml:"redis"`
}

type FactoryConfig struct {
	Name         string `yaml:"name"`
	Address      string `yaml:"address"`
	Fee          int64  `yaml:"fee"`
	FeePrecision int64  `yaml:"fee_precision"`
}

type BackoffConfig struct {
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	Multiplier      float64       `yaml:"multiplier"`
}

type CircuitBreakerConfig struct {
	Enabled        bool          `yaml:"enabled"`
	ErrorThreshold int           `yaml:"error_threshold"`
	CooldownPeriod time.Duration `yaml:"cooldown_period"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

type SearchConfig struct {
	Strategy      string `yaml:"strategy"`
	Tolerance     int64  `yaml:"tolerance"`
	MaxIterations int    `yaml:"max_iterations"`
}

type ReportConfig struct {
	BestPerToken  bool  `yaml:"best_per_token"`
	TrackerSize   int   `yaml:"tracker_size"`
	DisplayPlaces int32 `yaml:"display_places"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// Config is the resolved configuration handed to the scanner
type Config struct {
	Chain       string
	RPCEndpoint string

	Factories      []types.Factory
	BaseToken      common.Address
	BaseDecimals   int32
	Blacklist      []common.Address
	LookupContract common.Address

	BatchSize        int64
	BatchCountLimit  int
	ReserveBatchSize int

	MinReserveLiquidity *big.Int
	MinProfit           *big.Int
	ProbeVolume         *big.Int
	TestVolumes         []*big.Int

	FetchTimeout time.Duration
	ScanInterval time.Duration

	Backoff        BackoffConfig
	CircuitBreaker CircuitBreakerConfig
	RPCRateLimit   RateLimitConfig
	Search         SearchConfig
	Report         ReportConfig
	Redis          RedisConfig

	// Raw is the file form this config was resolved from
	Raw FileConfig
}

// volumeFractions are the default trial volumes as multiples of the minimum reserve
var volumeFractions = [][2]int64{
	{1, 100}, {1, 10}, {1, 6}, {1, 4}, {1, 2}, {1, 1}, {2, 1}, {5, 1}, {10, 1},
}

// DefaultFileConfig returns the chain independent defaults
func DefaultFileConfig() FileConfig {
	return FileConfig{
		BaseDecimals:        18,
		BatchSize:           100,
		BatchCountLimit:     30,
		ReserveBatchSize:    500,
		MinReserveLiquidity: "10",
		MinProfit:           "1",
		ProbeDivisor:        100,
		FetchTimeout:        10 * time.Second,
		ScanInterval:        0,
		Backoff: BackoffConfig{
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     30 * time.Second,
			Multiplier:      2,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        true,
			ErrorThreshold: 5,
			CooldownPeriod: time.Minute,
		},
		RPCRateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			BurstSize:         40,
		},
		Search: SearchConfig{
			Strategy:      StrategyGrid,
			Tolerance:     3,
			MaxIterations: 64,
		},
		Report: ReportConfig{
			TrackerSize:   1024,
			DisplayPlaces: 6,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Channel: "arbscan:opportunities",
		},
	}
}

// DefaultConfig returns the defaults merged with the polygon preset
func DefaultConfig() *Config {
	fc := DefaultFileConfig()
	if err := ApplyPreset(&fc, "polygon"); err != nil {
		panic(err)
	}
	cfg, err := Resolve(fc)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load builds the configuration from defaults, the chain preset, the YAML
// file at path and finally the environment. chain falls back to the CHAIN
// variable and then to the chain named in the file.
func Load(path, chain string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if chain == "" {
		chain = os.Getenv(EnvChain)
	}
	if chain == "" && data != nil {
		var head struct {
			Chain string `yaml:"chain"`
		}
		if err := yaml.Unmarshal(data, &head); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		chain = head.Chain
	}

	fc := DefaultFileConfig()
	if chain != "" {
		if err := ApplyPreset(&fc, chain); err != nil {
			return nil, err
		}
	}
	if data != nil {
		if err := yaml.UnmarshalStrict(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}
	if chain != "" {
		fc.Chain = chain
	}
	applyEnv(&fc)

	return Resolve(fc)
}

// Resolve parses a FileConfig and validates the result
func Resolve(fc FileConfig) (*Config, error) {
	var errors []string

	cfg := &Config{
		Chain:            fc.Chain,
		RPCEndpoint:      fc.RPCEndpoint,
		BaseDecimals:     fc.BaseDecimals,
		BatchSize:        fc.BatchSize,
		BatchCountLimit:  fc.BatchCountLimit,
		ReserveBatchSize: fc.ReserveBatchSize,
		FetchTimeout:     fc.FetchTimeout,
		ScanInterval:     fc.ScanInterval,
		Backoff:          fc.Backoff,
		CircuitBreaker:   fc.CircuitBreaker,
		RPCRateLimit:     fc.RPCRateLimit,
		Search:           fc.Search,
		Report:           fc.Report,
		Redis:            fc.Redis,
		Raw:              fc,
	}

	parseAddress := func(field, value string) common.Address {
		if !common.IsHexAddress(value) {
			errors = append(errors, fmt.Sprintf("%s: invalid address %q", field, value))
			return common.Address{}
		}
		return common.HexToAddress(value)
	}
	parseAmount := func(field, value string) *big.Int {
		amount, err := umath.ParseUnits(value, fc.BaseDecimals)
		if err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", field, err))
			return nil
		}
		return amount
	}

	for i, f := range fc.Factories {
		cfg.Factories = append(cfg.Factories, types.Factory{
			Name:         f.Name,
			Address:      parseAddress(fmt.Sprintf("factories[%d].address", i), f.Address),
			Fee:          f.Fee,
			FeePrecision: f.FeePrecision,
		})
	}
	cfg.BaseToken = parseAddress("base_token", fc.BaseToken)
	if fc.LookupContract != "" {
		cfg.LookupContract = parseAddress("lookup_contract", fc.LookupContract)
	}
	for i, token := range fc.BlacklistTokens {
		if token == "" {
			continue
		}
		cfg.Blacklist = append(cfg.Blacklist, parseAddress(fmt.Sprintf("blacklist_tokens[%d]", i), token))
	}

	cfg.MinReserveLiquidity = parseAmount("min_reserve_liquidity", fc.MinReserveLiquidity)
	cfg.MinProfit = parseAmount("min_profit", fc.MinProfit)

	if len(fc.TestVolumes) > 0 {
		for i, v := range fc.TestVolumes {
			if amount := parseAmount(fmt.Sprintf("test_volumes[%d]", i), v); amount != nil {
				cfg.TestVolumes = append(cfg.TestVolumes, amount)
			}
		}
	} else if cfg.MinReserveLiquidity != nil {
		for _, f := range volumeFractions {
			cfg.TestVolumes = append(cfg.TestVolumes, umath.Fraction(cfg.MinReserveLiquidity, f[0], f[1]))
		}
	}
	if cfg.MinReserveLiquidity != nil && fc.ProbeDivisor > 0 {
		cfg.ProbeVolume = umath.Fraction(cfg.MinReserveLiquidity, 1, fc.ProbeDivisor)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration parsing failed: %s", strings.Join(errors, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the resolved configuration and reports every problem at once
func (c *Config) Validate() error {
	var errors []string

	if c.RPCEndpoint == "" {
		errors = append(errors, "rpc_endpoint must be specified")
	}
	if len(c.Factories) == 0 {
		errors = append(errors, "at least one factory must be specified")
	}
	for _, f := range c.Factories {
		if f.FeePrecision <= 0 || f.Fee <= 0 || f.Fee > f.FeePrecision {
			errors = append(errors, fmt.Sprintf("factory %s: fee %d/%d out of range", f.Name, f.Fee, f.FeePrecision))
		}
	}
	if c.BaseToken == (common.Address{}) {
		errors = append(errors, "base_token must be specified")
	}
	if c.LookupContract == (common.Address{}) {
		errors = append(errors, "lookup_contract must be specified")
	}
	if c.BaseDecimals < 0 {
		errors = append(errors, "base_decimals must not be negative")
	}

	if c.BatchSize <= 0 {
		errors = append(errors, "batch_size must be positive")
	}
	if c.BatchCountLimit <= 0 {
		errors = append(errors, "batch_count_limit must be positive")
	}
	if c.ReserveBatchSize <= 0 {
		errors = append(errors, "reserve_batch_size must be positive")
	}

	if c.MinReserveLiquidity == nil || c.MinReserveLiquidity.Sign() <= 0 {
		errors = append(errors, "min_reserve_liquidity must be positive")
	}
	if c.MinProfit == nil || c.MinProfit.Sign() < 0 {
		errors = append(errors, "min_profit must not be negative")
	}
	if c.ProbeVolume == nil || c.ProbeVolume.Sign() <= 0 {
		errors = append(errors, "probe_divisor must be positive and smaller than min_reserve_liquidity")
	}
	if len(c.TestVolumes) == 0 {
		errors = append(errors, "test_volumes must not be empty")
	} else if !umath.IsAscending(c.TestVolumes) {
		errors = append(errors, "test_volumes must be strictly ascending")
	}

	if c.FetchTimeout <= 0 {
		errors = append(errors, "fetch_timeout must be positive")
	}
	if c.ScanInterval < 0 {
		errors = append(errors, "scan_interval must not be negative")
	}

	if err := c.Backoff.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("backoff error: %v", err))
	}
	if err := c.CircuitBreaker.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("circuit breaker error: %v", err))
	}
	if err := c.RPCRateLimit.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("RPC rate limit error: %v", err))
	}
	if err := c.Search.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("search error: %v", err))
	}
	if c.Report.TrackerSize <= 0 {
		errors = append(errors, "report.tracker_size must be positive")
	}
	if c.Redis.Enabled && (c.Redis.Addr == "" || c.Redis.Channel == "") {
		errors = append(errors, "redis.addr and redis.channel must be specified when redis is enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (b *BackoffConfig) Validate() error {
	if b.InitialInterval <= 0 {
		return fmt.Errorf("initial interval must be positive")
	}
	if b.MaxInterval < b.InitialInterval {
		return fmt.Errorf("max interval must not be below the initial interval")
	}
	if b.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1")
	}
	return nil
}

func (c *CircuitBreakerConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.ErrorThreshold <= 0 {
		return fmt.Errorf("error threshold must be positive")
	}
	if c.CooldownPeriod <= 0 {
		return fmt.Errorf("cooldown period must be positive")
	}

	return nil
}

func (r *RateLimitConfig) Validate() error {
	if r.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	if r.BurstSize <= 0 {
		return fmt.Errorf("burst size must be positive")
	}

	return nil
}

func (s *SearchConfig) Validate() error {
	switch s.Strategy {
	case StrategyGrid:
		return nil
	case StrategyTernary:
		if s.Tolerance <= 0 || s.MaxIterations <= 0 {
			return fmt.Errorf("ternary search needs a positive tolerance and max iterations")
		}
		return nil
	}
	return fmt.Errorf("unknown strategy %q", s.Strategy)
}

// Marshal renders the file form of the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c.Raw)
}
