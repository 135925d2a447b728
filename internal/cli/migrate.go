package cli

import (
	"fmt"
	"os"

	"github.com/mradkov043/discite-omnes-app/internal/config"
	"github.com/mradkov043/discite-omnes-app/internal/db"
	"github.com/mradkov043/discite-omnes-app/internal/logger"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logger.Setup(os.Stdout, cfg.Log.Level)

			if err := db.MigrateUp(cfg.Database.MigrateURL()); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1, got %d", steps)
			}
			cfg := config.Load()
			log := logger.Setup(os.Stdout, cfg.Log.Level)

			if err := db.MigrateDown(cfg.Database.MigrateURL(), steps); err != nil {
				return err
			}
			log.Info("migrations rolled back", "steps", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}
