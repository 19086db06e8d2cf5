package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"lp-hedge-backtest/internal/strategy"
)

type Config struct {
	Log      LoggingConfig  `yaml:"log"`
	Tape     TapeConfig     `yaml:"tape"`
	Pool     PoolConfig     `yaml:"pool"`
	Hedge    HedgeConfig    `yaml:"hedge"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TapeConfig struct {
	Format             string        `yaml:"format"`
	Path               string        `yaml:"path"`
	TimeColumn         string        `yaml:"time_column"`
	PriceColumn        string        `yaml:"price_column"`
	SqrtPriceX96Column string        `yaml:"sqrt_price_x96_column"`
	BaseDecimals       int           `yaml:"base_decimals"`
	QuoteDecimals      int           `yaml:"quote_decimals"`
	InvertPrice        bool          `yaml:"invert_price"`
	PoolColumn         string        `yaml:"pool_column"`
	PoolAddress        string        `yaml:"pool_address"`
	DSN                string        `yaml:"dsn"`
	Schema             string        `yaml:"schema"`
	Table              string        `yaml:"table"`
	QueryTimeout       time.Duration `yaml:"query_timeout"`
	From               time.Time     `yaml:"from"`
	To                 time.Time     `yaml:"to"`
}

type PoolConfig struct {
	CapitalUSD         float64 `yaml:"capital_usd"`
	AnnualFeeRate      float64 `yaml:"annual_fee_rate"`
	RangeWidthFraction float64 `yaml:"range_width_fraction"`
	TickResolution     int     `yaml:"tick_resolution"`
	TickSpace          string  `yaml:"tick_space"`
}

type HedgeConfig struct {
	Enabled           *bool   `yaml:"enabled"`
	ShortEntryTick    int     `yaml:"short_entry_tick"`
	LongEntryTick     int     `yaml:"long_entry_tick"`
	StopDistanceTicks int     `yaml:"stop_distance_ticks"`
	NotionalUSD       float64 `yaml:"notional_usd"`
}

func (h HedgeConfig) EnabledValue() bool {
	return h.Enabled == nil || *h.Enabled
}

func (h HedgeConfig) Params(resolution int) strategy.Params {
	return strategy.Params{
		ShortEntryTick:    h.ShortEntryTick,
		LongEntryTick:     h.LongEntryTick,
		StopDistanceTicks: h.StopDistanceTicks,
		Resolution:        resolution,
		NotionalUSD:       h.NotionalUSD,
	}
}

type ThresholdPair struct {
	Short int `yaml:"short"`
	Long  int `yaml:"long"`
}

type SweepConfig struct {
	ShortMin int             `yaml:"short_min"`
	ShortMax int             `yaml:"short_max"`
	LongMin  int             `yaml:"long_min"`
	LongMax  int             `yaml:"long_max"`
	Stops    []int           `yaml:"stops"`
	Pairs    []ThresholdPair `yaml:"pairs"`
	Workers  int             `yaml:"workers"`
	Top      int             `yaml:"top"`
}

type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

func (m MetricsConfig) EnabledValue() bool {
	return m.Enabled != nil && *m.Enabled
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

const (
	envTimescaleDSN   = "LPH_TIMESCALE_DSN"
	envTelegramToken  = "LPH_TELEGRAM_TOKEN"
	envTelegramChatID = "LPH_TELEGRAM_CHAT_ID"
)

var defaultStops = []int{10, 12, 15, 18, 20, 25, 30}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, validate(&cfg)
}

// Default returns a config with every default applied, for tools run without a file.
func Default() *Config {
	cfg := defaultConfig()
	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg
}

// defaultConfig holds the numeric defaults for which zero is a meaningful value.
// Load decodes the file over it, so only absent keys keep these values and an
// explicit zero reaches validate.
func defaultConfig() Config {
	return Config{
		Pool: PoolConfig{
			CapitalUSD:         2000,
			AnnualFeeRate:      0.60,
			RangeWidthFraction: 0.01,
			TickResolution:     100,
		},
		Hedge: HedgeConfig{
			ShortEntryTick:    44,
			LongEntryTick:     57,
			StopDistanceTicks: 12,
		},
		Sweep: SweepConfig{
			ShortMin: 30,
			ShortMax: 50,
			LongMin:  50,
			LongMax:  70,
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Tape.Path == "" {
		cfg.Tape.Path = "data/cbbtc_prices_sept2025.csv"
	}
	if cfg.Tape.Format == "" {
		cfg.Tape.Format = formatFromPath(cfg.Tape.Path)
	}
	if cfg.Tape.TimeColumn == "" {
		cfg.Tape.TimeColumn = "block_timestamp"
	}
	if cfg.Tape.PriceColumn == "" {
		cfg.Tape.PriceColumn = "cb_btc_price"
	}
	if cfg.Tape.Table == "" {
		cfg.Tape.Table = "prices"
	}
	if cfg.Tape.Schema == "" {
		cfg.Tape.Schema = "public"
	}
	if cfg.Tape.QueryTimeout == 0 {
		cfg.Tape.QueryTimeout = 2 * time.Minute
	}
	if cfg.Pool.TickSpace == "" {
		cfg.Pool.TickSpace = "price"
	}
	if cfg.Hedge.NotionalUSD == 0 {
		cfg.Hedge.NotionalUSD = cfg.Pool.CapitalUSD
	}
	if len(cfg.Sweep.Stops) == 0 {
		cfg.Sweep.Stops = append([]int(nil), defaultStops...)
	}
	if cfg.Sweep.Workers == 0 {
		cfg.Sweep.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Sweep.Top == 0 {
		cfg.Sweep.Top = 20
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = "127.0.0.1:9101"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envTimescaleDSN)); v != "" && cfg.Tape.DSN == "" {
		cfg.Tape.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(envTelegramToken)); v != "" && cfg.Telegram.Token == "" {
		cfg.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(envTelegramChatID)); v != "" && cfg.Telegram.ChatID == "" {
		cfg.Telegram.ChatID = v
	}
}

// OverridePath points the tape at path and infers its format from the extension.
func (t *TapeConfig) OverridePath(path string) {
	t.Path = path
	t.Format = formatFromPath(path)
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	case ".msgpack", ".mp":
		return "msgpack"
	default:
		return "csv"
	}
}

func validate(cfg *Config) error {
	switch cfg.Tape.Format {
	case "csv", "sqlite", "msgpack":
		if strings.TrimSpace(cfg.Tape.Path) == "" {
			return errors.New("tape.path is required")
		}
	case "timescale":
		if strings.TrimSpace(cfg.Tape.DSN) == "" {
			return errors.New("tape.dsn is required for timescale tapes")
		}
	default:
		return fmt.Errorf("tape.format %q is not supported", cfg.Tape.Format)
	}
	if cfg.Tape.BaseDecimals < 0 || cfg.Tape.QuoteDecimals < 0 {
		return errors.New("tape decimals must be >= 0")
	}
	if cfg.Tape.QueryTimeout < 0 {
		return errors.New("tape.query_timeout must be >= 0")
	}
	if !cfg.Tape.From.IsZero() && !cfg.Tape.To.IsZero() && !cfg.Tape.From.Before(cfg.Tape.To) {
		return errors.New("tape.from must be before tape.to")
	}
	if cfg.Pool.CapitalUSD <= 0 {
		return fmt.Errorf("pool.capital_usd must be > 0: %w", strategy.ErrInvalidParameter)
	}
	if cfg.Pool.AnnualFeeRate < 0 {
		return fmt.Errorf("pool.annual_fee_rate must be >= 0: %w", strategy.ErrInvalidParameter)
	}
	if cfg.Pool.RangeWidthFraction <= 0 || cfg.Pool.RangeWidthFraction >= 2 {
		return fmt.Errorf("pool.range_width_fraction must be in (0, 2): %w", strategy.ErrInvalidParameter)
	}
	if cfg.Pool.TickResolution <= 0 {
		return fmt.Errorf("pool.tick_resolution must be > 0: %w", strategy.ErrInvalidParameter)
	}
	switch cfg.Pool.TickSpace {
	case "price", "sqrt", "log":
	default:
		return fmt.Errorf("pool.tick_space %q is not supported", cfg.Pool.TickSpace)
	}
	if cfg.Hedge.NotionalUSD < 0 {
		return errors.New("hedge.notional_usd must be >= 0")
	}
	if cfg.Hedge.EnabledValue() {
		if err := cfg.Hedge.Params(cfg.Pool.TickResolution).Validate(); err != nil {
			return fmt.Errorf("hedge: %w", err)
		}
	}
	if cfg.Sweep.Workers < 0 {
		return errors.New("sweep.workers must be >= 0")
	}
	if cfg.Sweep.Top < 0 {
		return errors.New("sweep.top must be >= 0")
	}
	if len(cfg.Sweep.Pairs) == 0 && (cfg.Sweep.ShortMin > cfg.Sweep.ShortMax || cfg.Sweep.LongMin > cfg.Sweep.LongMax) {
		return errors.New("sweep min bounds must not exceed max bounds")
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}
