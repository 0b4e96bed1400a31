package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseCurrency    = "USD"
	DefaultStartingBalance = "10000"

	DefaultOracleURL        = "https://min-api.cryptocompare.com/data"
	DefaultOracleTimeout    = 30 * time.Second
	DefaultOracleRetries    = 10
	DefaultOracleRetryDelay = 1 * time.Second
	DefaultOracleCacheTTL   = 1 * time.Minute

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultCycleInterval    = 30 * time.Second
	DefaultSweepConcurrency = 10
	DefaultPriceConcurrency = 10

	DefaultAlertTimeout = 10 * time.Second
	DefaultHealthPort   = 8080
)

func (c *EngineConfig) applyDefaults() {
	if c.Game.BaseCurrency == "" {
		c.Game.BaseCurrency = DefaultBaseCurrency
	}
	if c.Game.StartingBalance == "" {
		c.Game.StartingBalance = DefaultStartingBalance
	}

	if c.Oracle.BaseURL == "" {
		c.Oracle.BaseURL = DefaultOracleURL
	}
	if c.Oracle.Timeout == 0 {
		c.Oracle.Timeout = DefaultOracleTimeout
	}
	if c.Oracle.MaxRetries == 0 {
		c.Oracle.MaxRetries = DefaultOracleRetries
	}
	if c.Oracle.RetryDelay == 0 {
		c.Oracle.RetryDelay = DefaultOracleRetryDelay
	}
	if c.Oracle.CacheTTL == 0 {
		c.Oracle.CacheTTL = DefaultOracleCacheTTL
	}

	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	if c.Cycle.Interval == 0 {
		c.Cycle.Interval = DefaultCycleInterval
	}
	if c.Cycle.SweepConcurrency == 0 {
		c.Cycle.SweepConcurrency = DefaultSweepConcurrency
	}
	if c.Cycle.PriceConcurrency == 0 {
		c.Cycle.PriceConcurrency = DefaultPriceConcurrency
	}

	if c.Alert.Timeout == 0 {
		c.Alert.Timeout = DefaultAlertTimeout
	}
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}
