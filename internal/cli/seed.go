package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/logger"
	"github.com/iliyamo/parking-reservation/internal/repository"
	"github.com/iliyamo/parking-reservation/internal/seed"
)

func newSeedCmd(f *rootFlags) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Create users, vehicles and buildings from a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := seed.Load(args[0])
			if err != nil {
				return err
			}
			log := zap.NewNop()
			if verbose {
				if log, err = logger.New("info", "dev"); err != nil {
					return err
				}
				defer func() { _ = log.Sync() }()
			}

			db, err := f.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			l := ledger.New(repository.NewLedgerStore(db), ledger.WithLogger(log))
			res, err := seed.Apply(cmd.Context(), fixture, repository.NewUserRepo(db), l, log)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "users: %d created, %d existing; vehicles: %d; buildings: %d (%d spots)\n",
				res.UsersCreated, res.UsersSkipped, res.Vehicles, res.BuildingsCreated, res.Spots)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log each step")
	return cmd
}
