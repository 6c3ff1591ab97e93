// Package repo contains all database access logic for the ATag service.
// TagRepo is the single repository for tags, tagged entities and tag notes;
// it owns the identity and ownership rules and runs every mutation as one
// transaction. No transport or presentation logic lives here: only SQL,
// business-rule checks and type mapping.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// db is the minimal interface satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
// Begin on a pgx.Tx opens a savepoint, so integration tests can hand the repo
// a transaction that is rolled back after each test while the repo still runs
// its own unit of work inside it.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by pgx.Row, pgx.Rows and pgx.CollectableRow.
type scanner interface {
	Scan(dest ...any) error
}

// uuidStrings renders ids for binding to a uuid[] parameter.
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// int8Ptr converts a nullable BIGINT into *int64.
func int8Ptr(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// timePtr converts a nullable TIMESTAMPTZ into *time.Time.
func timePtr(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
