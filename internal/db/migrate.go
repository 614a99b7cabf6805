package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The orders tables are written by the order service; the API only reads them.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE CHECK (char_length(username) >= 3),
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// emails are matched case-insensitively everywhere, so uniqueness is too
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_key ON users (lower(email))`,
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL CHECK (name <> ''),
		description TEXT NOT NULL DEFAULT '',
		price       NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
		category    TEXT NOT NULL,
		image       TEXT NOT NULL DEFAULT '',
		stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		featured    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category)`,
	`CREATE INDEX IF NOT EXISTS idx_products_created_at ON products (created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_number     TEXT PRIMARY KEY,
		customer_name    TEXT NOT NULL,
		status           TEXT NOT NULL,
		payment_status   TEXT NOT NULL,
		total_amount     NUMERIC(12, 2) NOT NULL,
		currency         TEXT NOT NULL DEFAULT 'USD',
		shipping_address TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id           BIGSERIAL PRIMARY KEY,
		order_number TEXT NOT NULL REFERENCES orders (order_number) ON DELETE CASCADE,
		product_name TEXT NOT NULL,
		quantity     INTEGER NOT NULL CHECK (quantity > 0),
		subtotal     NUMERIC(12, 2) NOT NULL
	)`,
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
