package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is applied idempotently at startup. The denormalized member_count
// carries a CHECK so no code path can drive it below one (the owner).
const Schema = `
CREATE TABLE IF NOT EXISTS households (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	address       TEXT NOT NULL DEFAULT '',
	owner_id      UUID NOT NULL,
	member_count  INT  NOT NULL DEFAULT 1 CHECK (member_count >= 1),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	full_name     TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'USER',
	household_id  TEXT REFERENCES households(id),
	latitude      TEXT NOT NULL DEFAULT '',
	longitude     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS users_household_idx ON users(household_id);

CREATE TABLE IF NOT EXISTS unregistered_members (
	id            UUID PRIMARY KEY,
	full_name     TEXT NOT NULL,
	household_id  TEXT NOT NULL REFERENCES households(id)
);

CREATE INDEX IF NOT EXISTS unregistered_members_household_idx ON unregistered_members(household_id);

CREATE TABLE IF NOT EXISTS membership_requests (
	id            UUID PRIMARY KEY,
	household_id  TEXT NOT NULL,
	sender_id     UUID NOT NULL,
	receiver_id   UUID NOT NULL,
	type          TEXT NOT NULL,
	status        TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS membership_requests_receiver_idx ON membership_requests(receiver_id);
CREATE INDEX IF NOT EXISTS membership_requests_household_idx ON membership_requests(household_id);

CREATE TABLE IF NOT EXISTS notifications (
	id            UUID PRIMARY KEY,
	recipient_id  UUID NOT NULL,
	type          TEXT NOT NULL,
	message       TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	read          BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS notifications_recipient_idx ON notifications(recipient_id);
`

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
