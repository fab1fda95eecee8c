package scheduler

import (
	"context"
	"time"

	"github.com/cordon-zt/cordon/internal/domain/flow"
	"github.com/cordon-zt/cordon/internal/domain/token"
	"github.com/cordon-zt/cordon/internal/shared/biztime"
)

// retention keeps recently lapsed rows around for audit before deletion.
const retention = 24 * time.Hour

// FlowSweepJob deletes flow rows whose expiry passed more than the
// retention window ago.
type FlowSweepJob struct {
	flows flow.Repository
	batch int
}

// NewFlowSweepJob creates the flow sweep job.
func NewFlowSweepJob(flows flow.Repository, batch int) *FlowSweepJob {
	return &FlowSweepJob{flows: flows, batch: batch}
}

// Execute deletes one batch and returns the number of rows removed.
func (j *FlowSweepJob) Execute(ctx context.Context) (int64, error) {
	cutoff := biztime.NowUTC().Add(-retention)
	return j.flows.DeleteExpiredBefore(ctx, cutoff, j.batch)
}

// TokenSweepJob deletes token rows whose expiry passed more than the
// retention window ago.
type TokenSweepJob struct {
	tokens token.Repository
	batch  int
}

// NewTokenSweepJob creates the token sweep job.
func NewTokenSweepJob(tokens token.Repository, batch int) *TokenSweepJob {
	return &TokenSweepJob{tokens: tokens, batch: batch}
}

// Execute deletes one batch and returns the number of rows removed.
func (j *TokenSweepJob) Execute(ctx context.Context) (int64, error) {
	cutoff := biztime.NowUTC().Add(-retention)
	return j.tokens.DeleteExpiredBefore(ctx, cutoff, j.batch)
}
