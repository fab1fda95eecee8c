// Package sweep implements the one-shot expiry sweep command for operators
// who run hygiene out of cron instead of the in-process scheduler.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cordon-zt/cordon/internal/infrastructure/config"
	"github.com/cordon-zt/cordon/internal/infrastructure/database"
	"github.com/cordon-zt/cordon/internal/infrastructure/repository"
	"github.com/cordon-zt/cordon/internal/infrastructure/scheduler"
	"github.com/cordon-zt/cordon/internal/shared/biztime"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

var env string

// NewCommand creates the sweep command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete long-expired flow and token rows",
		Long:  `Run one pass of the expiry sweeper and exit. Reads stay correct without it; this only reclaims storage.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "default", "Environment (default, debug, release)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, false); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	biztime.MustInit(cfg.Cluster.Timezone)

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobs := map[string]scheduler.BatchJob{
		"flow-sweep":  scheduler.NewFlowSweepJob(repository.NewFlowRepository(database.Get(), log), cfg.Flow.SweepBatch),
		"token-sweep": scheduler.NewTokenSweepJob(repository.NewTokenRepository(database.Get(), log), cfg.Flow.SweepBatch),
	}

	for name, job := range jobs {
		// Each call deletes at most one batch; loop until the backlog is gone.
		for {
			deleted, err := job.Execute(ctx)
			if err != nil {
				return fmt.Errorf("%s failed: %w", name, err)
			}
			if deleted > 0 {
				log.Infow("sweep pass completed", "job", name, "deleted", deleted)
			}
			if deleted < int64(cfg.Flow.SweepBatch) {
				break
			}
		}
	}

	return nil
}
