package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/senyabanana/equipment-rental/internal/db"
	"github.com/senyabanana/equipment-rental/internal/handlers"
	"github.com/senyabanana/equipment-rental/internal/repository"
	"github.com/senyabanana/equipment-rental/internal/router"
	"github.com/senyabanana/equipment-rental/internal/router/config"
	"github.com/senyabanana/equipment-rental/internal/services"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type storage struct {
	requests    repository.ServiceRequestRepository
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	close       func()
}

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(cfg)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", ".", "directory containing app.env")
	return cmd
}

func openStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		store := repository.NewMemoryStore()
		return &storage{requests: store, users: store, assignments: store, close: func() {}}, nil
	}

	if err := runDBMigration(cfg.MigrationURL, cfg.PostgresConn, migrateUp); err != nil {
		return nil, err
	}
	logger.Info("db migrated successfully")

	dbPool, err := db.InitDb(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &storage{
		requests:    repository.NewPostgresServiceRequestRepository(dbPool),
		users:       repository.NewPostgresUserRepository(dbPool),
		assignments: repository.NewPostgresAssignmentRepository(dbPool),
		close:       dbPool.Close,
	}, nil
}

func serve(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	requestService := services.NewServiceRequestService(store.requests, store.users, store.assignments, logger)
	paymentService := services.NewPaymentService(store.requests, requestService, cfg.SystemUserID, logger)
	handler := handlers.NewServiceRequestHandler(requestService, paymentService, logger, cfg.RequestTimeout)

	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router.InitRoutes(handler, cfg.MetricsEnabled),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("server is listening on %s...", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
