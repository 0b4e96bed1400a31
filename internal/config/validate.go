package config

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Validate checks that all required fields are set and values are valid.
func (c *EngineConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	starting, err := decimal.NewFromString(c.Game.StartingBalance)
	if err != nil {
		return fmt.Errorf("game.starting_balance is not a decimal: %w", err)
	}
	if starting.Sign() <= 0 {
		return errors.New("game.starting_balance must be positive")
	}
	if c.Game.AdminOwner == "" {
		return errors.New("game.admin_owner is required")
	}

	if c.Oracle.MaxRetries < 1 {
		return errors.New("oracle.max_retries must be >= 1")
	}
	if c.Oracle.RetryDelay < 0 {
		return errors.New("oracle.retry_delay must be >= 0")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Cycle.SweepConcurrency < 1 {
		return errors.New("cycle.sweep_concurrency must be >= 1")
	}
	if c.Cycle.PriceConcurrency < 1 {
		return errors.New("cycle.price_concurrency must be >= 1")
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

// StartingBalance returns the configured endowment as a decimal.
// Validate must have succeeded first.
func (c *EngineConfig) StartingBalance() decimal.Decimal {
	d, _ := decimal.NewFromString(c.Game.StartingBalance)
	return d
}
