package cli

import (
	"context"
	"os"

	"github.com/mradkov043/discite-omnes-app/internal/config"
	"github.com/mradkov043/discite-omnes-app/internal/logger"
	"github.com/mradkov043/discite-omnes-app/internal/seed"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var (
		file    string
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write users, groups and tasks from a YAML fixture file",
		Long: `Write users, groups and tasks into the database.

Without --file the demo fixtures bundled with the binary are used.

Examples:
  discite seed
  discite seed --file fixtures/course.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := loadFixtures(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg := config.Load()
			log := logger.Setup(os.Stdout, cfg.Log.Level)

			remote, cleanup, err := openStore(ctx, cfg, storeOptions{migrate: migrate}, log)
			if err != nil {
				return err
			}
			defer cleanup()

			_, err = seed.Apply(ctx, remote, fx, log)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file (defaults to the bundled demo data)")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply migrations before seeding")

	return cmd
}

func loadFixtures(file string) (*seed.Fixtures, error) {
	if file == "" {
		return seed.Demo()
	}
	return seed.LoadFile(file)
}
