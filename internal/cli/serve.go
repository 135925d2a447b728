package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mradkov043/discite-omnes-app/internal/config"
	"github.com/mradkov043/discite-omnes-app/internal/handler"
	"github.com/mradkov043/discite-omnes-app/internal/handler/server"
	"github.com/mradkov043/discite-omnes-app/internal/logger"
	"github.com/mradkov043/discite-omnes-app/internal/metrics"
	"github.com/mradkov043/discite-omnes-app/internal/projection"
	"github.com/mradkov043/discite-omnes-app/internal/seed"
	"github.com/mradkov043/discite-omnes-app/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	addr     string
	store    storeOptions
	seedDemo bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API on top of the live group and task projections.

Examples:
  discite serve
  discite serve --addr :9090
  discite serve --memory --seed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides SERVER_ADDR)")
	cmd.Flags().BoolVar(&opts.store.memory, "memory", false, "use the in-memory store instead of PostgreSQL")
	cmd.Flags().BoolVar(&opts.store.migrate, "migrate", true, "apply migrations before serving")
	cmd.Flags().BoolVar(&opts.seedDemo, "seed", false, "write the bundled demo fixtures on start")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}

	log := logger.SetupDefault(os.Stdout, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	remote, cleanup, err := openStore(ctx, cfg, opts.store, log)
	if err != nil {
		return err
	}
	defer cleanup()
	log.Info("store ready", slog.String("store", describeStore(opts.store)))

	if opts.seedDemo {
		fx, err := seed.Demo()
		if err != nil {
			return err
		}
		if _, err := seed.Apply(ctx, remote, fx, log); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(reg)
	policy := cfg.Sync.RetryPolicy()

	projectionOpts := []projection.Option{
		projection.WithLogger(log),
		projection.WithRecorder(recorder),
		projection.WithRetryPolicy(policy),
	}

	groups := projection.NewGroupProjector(remote, "", projectionOpts...)
	if err := groups.Subscribe(nil, func(err error) {
		log.Warn("group projection degraded", slog.Any("error", err))
	}); err != nil {
		return err
	}
	defer groups.Unsubscribe()

	boards := projection.NewTaskBoards(remote, projectionOpts...)
	defer boards.Close()

	serviceOpts := []service.Option{
		service.WithLogger(log),
		service.WithRecorder(recorder),
		service.WithRetryPolicy(policy),
		service.WithAtomicMembership(cfg.Sync.AtomicMembership),
	}
	resolver := service.NewAssignmentResolver(remote, serviceOpts...)

	h := handler.NewHandler(handler.Deps{
		Groups:             groups,
		Boards:             boards,
		GroupService:       service.NewGroupService(remote, serviceOpts...),
		MembershipService:  service.NewMembershipService(remote, serviceOpts...),
		TaskService:        service.NewTaskService(remote, resolver, serviceOpts...),
		AssignmentResolver: resolver,
		UserService:        service.NewUserService(remote, serviceOpts...),
		Logger:             log,
	})

	srv := server.NewServer(server.NewRouter(h, metrics.Handler(reg), log), cfg.Server.Addr, log)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
