package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Agent struct {
		PollInterval    time.Duration `yaml:"poll_interval"`
		MaxSpendPct     float64       `yaml:"max_spend_pct"`     // fraction of balance per spend, (0,1]
		MinThresholdSOL float64       `yaml:"min_threshold_sol"` // campaigns pause below this balance
		MaxPerCampaign  float64       `yaml:"max_per_campaign"`  // SOL ceiling per campaign
		DedupWindow     time.Duration `yaml:"dedup_window"`
	} `yaml:"agent"`
	Solana struct {
		RPCURL          string `yaml:"rpc_url"`
		WSURL           string `yaml:"ws_url"`
		TreasuryAddress string `yaml:"treasury_address"`
	} `yaml:"solana"`
	Rewards struct {
		MentionAmount       float64 `yaml:"mention_amount"` // SOL per mention reward
		MentionDailyCap     int     `yaml:"mention_daily_cap"`
		ShillAmount         float64 `yaml:"shill_amount"` // SOL per shill reward
		ShillDailyCap       int     `yaml:"shill_daily_cap"`
		ShillMinImpressions int64   `yaml:"shill_min_impressions"`
		ShillQuery          string  `yaml:"shill_query"` // search query for organic promotion posts
	} `yaml:"rewards"`
	Alerts struct {
		MinScore float64 `yaml:"min_score"`
	} `yaml:"alerts"`
	Storage struct {
		Backend       string `yaml:"backend"` // memory | snapshot | postgres
		SnapshotDir   string `yaml:"snapshot_dir"`
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"` // optional engagement timeseries
	} `yaml:"storage"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SOLANA_RPC_URL"); v != "" {
		cfg.Solana.RPCURL = v
	}
	if v := os.Getenv("SOLANA_WS_URL"); v != "" {
		cfg.Solana.WSURL = v
	}
	if v := os.Getenv("TREASURY_ADDRESS"); v != "" {
		cfg.Solana.TreasuryAddress = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Agent.PollInterval = d
		}
	}
	if v := os.Getenv("MAX_SPEND_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Agent.MaxSpendPct = f
		}
	}

	// Defaults
	if cfg.Agent.PollInterval == 0 {
		cfg.Agent.PollInterval = 5 * time.Minute
	}
	if cfg.Agent.MaxSpendPct == 0 {
		cfg.Agent.MaxSpendPct = 0.10
	}
	if cfg.Agent.MinThresholdSOL == 0 {
		cfg.Agent.MinThresholdSOL = 0.05
	}
	if cfg.Agent.MaxPerCampaign == 0 {
		cfg.Agent.MaxPerCampaign = 0.5
	}
	if cfg.Agent.DedupWindow == 0 {
		cfg.Agent.DedupWindow = 48 * time.Hour
	}
	if cfg.Rewards.MentionAmount == 0 {
		cfg.Rewards.MentionAmount = 0.01
	}
	if cfg.Rewards.MentionDailyCap == 0 {
		cfg.Rewards.MentionDailyCap = 10
	}
	if cfg.Rewards.ShillAmount == 0 {
		cfg.Rewards.ShillAmount = 0.02
	}
	if cfg.Rewards.ShillDailyCap == 0 {
		cfg.Rewards.ShillDailyCap = 5
	}
	if cfg.Rewards.ShillMinImpressions == 0 {
		cfg.Rewards.ShillMinImpressions = 1000
	}
	if cfg.Alerts.MinScore == 0 {
		cfg.Alerts.MinScore = 1000
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "snapshot"
	}
	if cfg.Storage.SnapshotDir == "" {
		cfg.Storage.SnapshotDir = "data"
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if c.Solana.RPCURL == "" {
		return fmt.Errorf("solana.rpc_url is required")
	}
	if c.Solana.TreasuryAddress == "" {
		return fmt.Errorf("solana.treasury_address is required")
	}
	if c.Agent.MaxSpendPct <= 0 || c.Agent.MaxSpendPct > 1 {
		return fmt.Errorf("agent.max_spend_pct must be in (0, 1]")
	}
	if c.Agent.MinThresholdSOL < 0 {
		return fmt.Errorf("agent.min_threshold_sol must not be negative")
	}
	if c.Agent.MaxPerCampaign <= 0 {
		return fmt.Errorf("agent.max_per_campaign must be positive")
	}
	switch c.Storage.Backend {
	case "memory", "snapshot":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be memory, snapshot or postgres")
	}
	return nil
}
