package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS spaces (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL DEFAULT 'other',
	rate_amount BIGINT NOT NULL CHECK (rate_amount > 0),
	rate_currency TEXT NOT NULL,
	prohibited_content TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bookings (
	id TEXT PRIMARY KEY,
	space_id TEXT NOT NULL REFERENCES spaces(id),
	advertiser_id TEXT NOT NULL,
	start_date DATE NOT NULL,
	end_date DATE NOT NULL CHECK (end_date >= start_date),
	status TEXT NOT NULL,
	campaign_name TEXT NOT NULL DEFAULT '',
	brand_name TEXT NOT NULL DEFAULT '',
	content_types TEXT[] NOT NULL DEFAULT '{}',
	description TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	creative_url TEXT NOT NULL DEFAULT '',
	total_amount BIGINT NOT NULL,
	currency TEXT NOT NULL,
	needs_approval BOOLEAN NOT NULL DEFAULT false,
	sensitive_content BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	version BIGINT NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_bookings_space_status ON bookings(space_id, status, start_date);

CREATE TABLE IF NOT EXISTS app_idempotency (
	key TEXT PRIMARY KEY,
	command TEXT NOT NULL DEFAULT '',
	payload BYTEA,
	occurred_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS app_outbox (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	payload BYTEA NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	aggregate TEXT NOT NULL,
	headers JSONB NOT NULL DEFAULT '{}',
	state TEXT NOT NULL DEFAULT 'NEW',
	attempts INT NOT NULL DEFAULT 0,
	next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	claimed_by TEXT NOT NULL DEFAULT '',
	claimed_at TIMESTAMPTZ,
	sent_at TIMESTAMPTZ,
	last_error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_outbox_state_next ON app_outbox(state, next_attempt_at);
`

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
