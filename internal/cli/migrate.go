package cli

import (
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/parking-reservation/internal/database"
)

func newMigrateCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := f.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := database.Up(db)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := f.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := database.Down(db, steps)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", n)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back (0 for all)")

	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations and when they were applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := f.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			rows, err := database.Status(db)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			printf(w, "MIGRATION\tAPPLIED\n")
			for _, r := range rows {
				applied := "pending"
				if r.AppliedAt != nil {
					applied = r.AppliedAt.UTC().Format(time.RFC3339)
				}
				printf(w, "%s\t%s\n", r.ID, applied)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}
