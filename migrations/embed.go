// Package migrations embeds the SQL migration files and applies them with
// the goose programmatic API. Migrations never run implicitly: the API server
// applies them only when MIGRATE_ON_START is set, and operators can run
// `tagctl migrate` at any time.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS

// Tables lists every table created by the migrations, in creation order.
var Tables = []string{"tags", "tagged_entities", "tag_notes"}

// NewProvider returns a goose provider for the embedded migrations.
func NewProvider(db *sql.DB) (*goose.Provider, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, FS)
	if err != nil {
		return nil, fmt.Errorf("migrations.NewProvider: %w", err)
	}
	return provider, nil
}

// Up applies every pending migration and returns the number applied.
// It is a no-op when the schema is already current.
func Up(ctx context.Context, db *sql.DB) (int, error) {
	provider, err := NewProvider(db)
	if err != nil {
		return 0, err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrations.Up: %w", err)
	}
	return len(results), nil
}
