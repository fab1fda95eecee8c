// Package server implements the broker's main serving command.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/cordon-zt/cordon/internal/infrastructure/config"
	"github.com/cordon-zt/cordon/internal/infrastructure/database"
	"github.com/cordon-zt/cordon/internal/infrastructure/presence"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/infrastructure/repository"
	"github.com/cordon-zt/cordon/internal/infrastructure/scheduler"
	"github.com/cordon-zt/cordon/internal/infrastructure/sessions"
	httprouter "github.com/cordon-zt/cordon/internal/interfaces/http"
	"github.com/cordon-zt/cordon/internal/shared/biztime"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

// NewCommand creates the server command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the broker",
		Long:  `Start the Cordon control plane: the flow authorization API, the session hub, and the expiry sweeper.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "default", "Environment (default, debug, release)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically create missing tables on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode == "debug"); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	biztime.MustInit(cfg.Cluster.Timezone)

	gin.SetMode(mapMode(cfg.Server.Mode))
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if err := database.AutoMigrate(); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		log.Infow("schema auto-migration completed")
	}

	nodeID := cfg.Cluster.NodeName + "-" + uuid.NewString()[:8]

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	var (
		bus      pubsub.Bus
		registry presence.Registry
	)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// Single-node fallback. Presence and events stay correct on this
		// node; other nodes simply never hear about them.
		log.Warnw("redis unreachable, running with in-process bus and registry",
			"addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			"error", err,
		)
		inMem := pubsub.NewInMemoryBus()
		bus = inMem
		registry = presence.NewLocalRegistry(inMem, nodeID, log)
	} else {
		bus = pubsub.NewRedisBus(redisClient, log)
		registry = presence.NewRedisRegistry(redisClient, bus, nodeID, log)
	}

	debouncer := presence.NewRelayDebouncer(cfg.Presence.RelayLeaveDebounce)
	hub := sessions.NewHub(registry, debouncer, bus, log)

	router, err := httprouter.NewRouter(httprouter.Deps{
		DB:       database.Get(),
		Config:   cfg,
		Bus:      bus,
		Registry: registry,
		Hub:      hub,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}
	router.SetupRoutes(cfg)

	sched, err := scheduler.NewManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	flowSweep := scheduler.NewFlowSweepJob(repository.NewFlowRepository(database.Get(), log), cfg.Flow.SweepBatch)
	tokenSweep := scheduler.NewTokenSweepJob(repository.NewTokenRepository(database.Get(), log), cfg.Flow.SweepBatch)
	if err := sched.RegisterSweepJobs(cfg.Flow.SweepInterval, flowSweep, tokenSweep); err != nil {
		return fmt.Errorf("failed to register sweep jobs: %w", err)
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Errorw("failed to stop scheduler", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "node_id", nodeID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Infow("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Infow("server stopped")
	return nil
}

func mapMode(mode string) string {
	switch mode {
	case "debug":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}
