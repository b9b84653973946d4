package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendance-analyzer-go/config"
	"attendance-analyzer-go/db"
	"attendance-analyzer-go/handlers"
	"attendance-analyzer-go/logging"
	"attendance-analyzer-go/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	os.Exit(exitCode(logger, run(cfg, logger)))
}

// exitCode logs the result of run and flushes the logger before the process exits.
func exitCode(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("server stopped", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	return code
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	gin.SetMode(cfg.Server.GinMode)
	apiHandler := handlers.NewAPIHandler(store, metrics.New(), logger, cfg.Server.MaxUploadBytes)
	router := handlers.NewRouter(apiHandler, cfg.Server.AllowedOrigins, logger)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("store", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newStore picks the dataset store from config
func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.DatasetStore, func(), error) {
	if cfg.Store.Backend != config.BackendRedis {
		logger.Info("using in-memory dataset store")
		return db.NewMemoryStore(), func() {}, nil
	}

	client, err := db.InitializeRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB))

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close Redis client", zap.Error(err))
		}
	}
	return db.NewRedisService(client, cfg.Store.DatasetTTL, logger), closeFn, nil
}
