// Package cli implements parkctl, the operations command line for the
// parking service.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iliyamo/parking-reservation/internal/config"
	"github.com/iliyamo/parking-reservation/internal/database"
)

// openDB is replaced in tests.
var openDB = database.Open

type rootFlags struct {
	envFiles []string
	dsn      string
}

// NewRootCmd builds the parkctl command tree.
func NewRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "parkctl",
		Short:         "Operate the parking reservation database",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadDotEnv(f.envFiles...)
		},
	}
	root.PersistentFlags().StringSliceVar(&f.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading DB_* variables")
	root.PersistentFlags().StringVar(&f.dsn, "dsn", "", "MySQL DSN (overrides DB_* variables)")

	root.AddCommand(newMigrateCmd(f), newSeedCmd(f))
	return root
}

// Execute runs parkctl with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// connect opens the database named by --dsn or the DB_* variables.
func (f *rootFlags) connect(ctx context.Context) (*sql.DB, error) {
	dsn := f.dsn
	if dsn == "" {
		cfg, err := config.DatabaseFromEnv()
		if err != nil {
			return nil, err
		}
		dsn = cfg.MySQLDSN()
	}
	db, err := openDB(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return db, nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
