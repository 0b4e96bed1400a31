package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied at startup. Statements are idempotent so restarting the
// engine against an existing database is safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		game_id    BIGSERIAL PRIMARY KEY,
		thread_ref TEXT NOT NULL,
		begin_at   TIMESTAMPTZ NOT NULL,
		end_at     TIMESTAMPTZ NOT NULL,
		complete   BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS balances (
		balance_id BIGSERIAL PRIMARY KEY,
		game_id    BIGINT NOT NULL REFERENCES games(game_id),
		owner      TEXT NOT NULL,
		currency   TEXT NOT NULL,
		amount     NUMERIC(32,12) NOT NULL CHECK (amount >= 0),
		UNIQUE (game_id, owner, currency)
	)`,
	`CREATE TABLE IF NOT EXISTS limit_orders (
		order_id      BIGSERIAL PRIMARY KEY,
		game_id       BIGINT NOT NULL REFERENCES games(game_id),
		request_id    UUID NOT NULL,
		owner         TEXT NOT NULL,
		buy_currency  TEXT NOT NULL,
		buy_amount    NUMERIC(32,12) NOT NULL,
		sell_currency TEXT NOT NULL,
		sell_amount   NUMERIC(32,12) NOT NULL,
		limit_price   NUMERIC(32,12) NOT NULL,
		executed      BOOLEAN NOT NULL DEFAULT FALSE,
		canceled      BOOLEAN NOT NULL DEFAULT FALSE,
		CHECK (NOT (executed AND canceled))
	)`,
	`CREATE INDEX IF NOT EXISTS limit_orders_open_idx
		ON limit_orders (game_id) WHERE NOT executed AND NOT canceled`,
	`CREATE TABLE IF NOT EXISTS executed_trades (
		trade_id      BIGSERIAL PRIMARY KEY,
		game_id       BIGINT NOT NULL REFERENCES games(game_id),
		request_id    UUID NOT NULL,
		owner         TEXT NOT NULL,
		buy_currency  TEXT NOT NULL,
		buy_amount    NUMERIC(32,12) NOT NULL,
		sell_currency TEXT NOT NULL,
		sell_amount   NUMERIC(32,12) NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS standings (
		game_id         BIGINT NOT NULL REFERENCES games(game_id),
		owner           TEXT NOT NULL,
		portfolio_value NUMERIC(32,12) NOT NULL,
		rank            INT NOT NULL,
		PRIMARY KEY (game_id, owner)
	)`,
	`CREATE TABLE IF NOT EXISTS processed_requests (
		request_id   UUID PRIMARY KEY,
		game_id      BIGINT NOT NULL,
		processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates all tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
