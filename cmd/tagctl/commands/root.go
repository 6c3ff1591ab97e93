package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pkordes/atag/internal/config"
	"github.com/pkordes/atag/internal/repo"
	"github.com/pkordes/atag/internal/service"
)

// globalFlags holds flags shared by every subcommand.
type globalFlags struct {
	userID  int64
	verbose bool
}

// NewRootCmd builds the tagctl command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "tagctl",
		Short:         "Operator tool for the ATag tagging service",
		Long:          "CLI for migrating the ATag schema and managing tags, tagged entities and notes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Int64Var(&flags.userID, "user", 0, "id of the acting user (required for changes)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log service activity to stderr")

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newTagsCmd(flags))
	root.AddCommand(newEntitiesCmd(flags))
	root.AddCommand(newNotesCmd(flags))
	return root
}

// requireUser returns the acting user or an error when --user is missing.
func (f *globalFlags) requireUser() (int64, error) {
	if f.userID <= 0 {
		return 0, fmt.Errorf("--user is required and must be positive")
	}
	return f.userID, nil
}

// logger returns a text logger on stderr when --verbose is set, and a
// discarding one otherwise.
func (f *globalFlags) logger() *slog.Logger {
	if !f.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// openPool loads configuration and connects to the database.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}

// withTagService runs fn with a TagService backed by a fresh pool.
func withTagService(ctx context.Context, flags *globalFlags, fn func(*service.TagService) error) error {
	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(service.NewTagService(repo.NewTagRepo(pool), flags.logger()))
}
