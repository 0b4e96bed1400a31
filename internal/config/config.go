package config

import "time"

// EngineConfig is the root configuration for the trading-game engine.
type EngineConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Game     GameConfig     `yaml:"game"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Database DBConfig       `yaml:"database"`
	Cycle    CycleConfig    `yaml:"cycle"`
	Alert    AlertConfig    `yaml:"alert"`
	Health   HealthConfig   `yaml:"health"`
}

// InstanceConfig identifies this engine instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// GameConfig holds contest rules.
type GameConfig struct {
	BaseCurrency    string `yaml:"base_currency"`    // Currency valuations are expressed in
	StartingBalance string `yaml:"starting_balance"` // Cash endowment per participant (decimal string)
	AdminOwner      string `yaml:"admin_owner"`      // Only owner allowed to create games
}

// OracleConfig holds market-data provider settings.
type OracleConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

// DBConfig holds the Postgres connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// CycleConfig holds background control-loop settings.
type CycleConfig struct {
	Interval         time.Duration `yaml:"interval"`
	SweepConcurrency int           `yaml:"sweep_concurrency"`
	PriceConcurrency int           `yaml:"price_concurrency"`
}

// AlertConfig holds operator alerting settings. An empty webhook URL means
// alerts go to the log only.
type AlertConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}
