package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mradkov043/discite-omnes-app/internal/config"
	"github.com/mradkov043/discite-omnes-app/internal/db"
	"github.com/mradkov043/discite-omnes-app/internal/store"
	"github.com/mradkov043/discite-omnes-app/internal/store/memory"
	"github.com/mradkov043/discite-omnes-app/internal/store/postgres"
	"golang.org/x/time/rate"
)

type storeOptions struct {
	memory  bool
	migrate bool
}

// openStore returns the RemoteStore selected by opts and a cleanup func that
// must be called once the store is no longer used.
func openStore(ctx context.Context, cfg *config.Config, opts storeOptions, logger *slog.Logger) (store.RemoteStore, func(), error) {
	if opts.memory {
		logger.Info("using in-memory store")
		return memory.New(), func() {}, nil
	}

	if opts.migrate {
		if err := db.MigrateUp(cfg.Database.MigrateURL()); err != nil {
			return nil, nil, err
		}
		logger.Info("migrations applied")
	}

	database, err := db.NewPostgres(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("db", cfg.Database.DBName),
	)

	pg := postgres.New(database,
		postgres.WithLogger(logger),
		postgres.WithRefreshInterval(cfg.Sync.SnapshotRefreshInterval),
		postgres.WithRefetchRate(rate.Limit(cfg.Sync.RefetchPerSecond), 1),
	)

	cleanup := func() {
		pg.Close()
		if err := database.Close(); err != nil {
			logger.Warn("failed to close database", slog.Any("error", err))
		}
	}
	return pg, cleanup, nil
}

func describeStore(opts storeOptions) string {
	if opts.memory {
		return "memory"
	}
	return fmt.Sprintf("postgres (migrate=%t)", opts.migrate)
}
