package sqlstore

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// schema is valid for both SQLite and PostgreSQL. Money is stored in minor
// units and times as unix seconds.
// Circles must be created before memberships and meetings due to foreign
// key constraints.
const schema = `
CREATE TABLE IF NOT EXISTS circles (
    id TEXT PRIMARY KEY,
    moderator_id TEXT NOT NULL,
    min_members INTEGER NOT NULL DEFAULT 0,
    max_members INTEGER NOT NULL DEFAULT 0,
    price BIGINT NOT NULL CHECK (price >= 0),
    currency TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS memberships (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    circle_id TEXT NOT NULL REFERENCES circles(id) ON DELETE CASCADE,
    status TEXT NOT NULL CHECK (status IN ('pending', 'active', 'removed', 'left')),
    vacation_days INTEGER NOT NULL CHECK (vacation_days >= 0),
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    UNIQUE (user_id, circle_id)
);

CREATE TABLE IF NOT EXISTS meetings (
    id TEXT PRIMARY KEY,
    circle_id TEXT NOT NULL REFERENCES circles(id) ON DELETE CASCADE,
    start_time BIGINT NOT NULL,
    end_time BIGINT NOT NULL,
    price BIGINT NOT NULL CHECK (price >= 0),
    currency TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('scheduled', 'completed', 'archived')),
    CHECK (end_time >= start_time)
);

CREATE TABLE IF NOT EXISTS participations (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    meeting_id TEXT NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
    status TEXT NOT NULL CHECK (status IN ('active', 'vacation', 'cancelled')),
    amount_paid BIGINT NOT NULL DEFAULT 0 CHECK (amount_paid >= 0),
    UNIQUE (user_id, meeting_id)
);

CREATE TABLE IF NOT EXISTS balances (
    holder_kind TEXT NOT NULL CHECK (holder_kind IN ('membership', 'user')),
    holder_id TEXT NOT NULL,
    currency TEXT NOT NULL,
    amount BIGINT NOT NULL CHECK (amount >= 0),
    updated_at BIGINT NOT NULL,
    PRIMARY KEY (holder_kind, holder_id, currency)
);

CREATE INDEX IF NOT EXISTS idx_memberships_circle_status ON memberships(circle_id, status);
CREATE INDEX IF NOT EXISTS idx_meetings_circle_start ON meetings(circle_id, start_time);
CREATE INDEX IF NOT EXISTS idx_participations_meeting ON participations(meeting_id);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
