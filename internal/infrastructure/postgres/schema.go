package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema DDL idempotente. ledger_seq ordena todas las escrituras del libro (altas y
// cambios de estado); stock es la vista materializada, reconstruible desde ledger_entries.
var schema = []string{
	`CREATE SEQUENCE IF NOT EXISTS ledger_seq`,
	`CREATE TABLE IF NOT EXISTS products (
		id              TEXT PRIMARY KEY,
		sku             TEXT NOT NULL,
		name            TEXT NOT NULL,
		category        TEXT NOT NULL DEFAULT '',
		unit_of_measure TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS products_sku_key ON products (lower(sku))`,
	`CREATE TABLE IF NOT EXISTS warehouses (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		location   TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS warehouses_name_key ON warehouses (lower(name))`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id             TEXT PRIMARY KEY,
		seq            BIGINT NOT NULL UNIQUE,
		type           TEXT NOT NULL CHECK (type IN ('receipt','delivery','transfer_in','transfer_out','adjustment')),
		product_id     TEXT NOT NULL REFERENCES products (id),
		warehouse_id   TEXT NOT NULL REFERENCES warehouses (id),
		quantity       NUMERIC(18,4) NOT NULL CHECK (quantity > 0),
		negative       BOOLEAN NOT NULL DEFAULT false,
		reference      TEXT NOT NULL,
		notes          TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL,
		counterpart_id TEXT,
		created_by     TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL,
		commit_seq     BIGINT,
		committed_at   TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS ledger_entries_pair_idx ON ledger_entries (product_id, warehouse_id, seq)`,
	`CREATE INDEX IF NOT EXISTS ledger_entries_type_status_idx ON ledger_entries (type, status)`,
	`CREATE TABLE IF NOT EXISTS status_changes (
		seq            BIGINT PRIMARY KEY,
		transaction_id TEXT NOT NULL REFERENCES ledger_entries (id),
		from_status    TEXT NOT NULL,
		to_status      TEXT NOT NULL,
		commits        BOOLEAN NOT NULL,
		changed_by     TEXT NOT NULL DEFAULT '',
		changed_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS status_changes_tx_idx ON status_changes (transaction_id, seq)`,
	`CREATE TABLE IF NOT EXISTS stock (
		product_id   TEXT NOT NULL REFERENCES products (id),
		warehouse_id TEXT NOT NULL REFERENCES warehouses (id),
		quantity     NUMERIC(18,4) NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		last_seq     BIGINT NOT NULL DEFAULT 0,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (product_id, warehouse_id)
	)`,
}

// Migrate crea las tablas si no existen.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
