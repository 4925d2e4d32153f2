package pipeline

import (
	"context"
	"time"

	"github.com/OFFIS-RIT/newsgraph/internal/queue"
	"github.com/OFFIS-RIT/newsgraph/pkg/leaselock"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger"
)

// LockKey is the lease every stage run holds, so stages never overlap
// across worker processes.
const LockKey = "newsgraph:pipeline"

// LockedRunner runs stages while holding the shared pipeline lease.
type LockedRunner struct {
	Runner queue.StageRunner
	Locks  *leaselock.Client
	TTL    time.Duration
	Holder string
}

func (r *LockedRunner) RunStage(ctx context.Context, stage string) error {
	opts := leaselock.Options{
		TTL:        r.TTL,
		Wait:       true,
		WaitJitter: 250 * time.Millisecond,
		Holder:     r.Holder,
	}
	return r.Locks.WithLease(ctx, LockKey, opts, func(ctx context.Context) error {
		logger.Debug("[Pipeline] Acquired stage lease", "stage", stage)
		return r.Runner.RunStage(ctx, stage)
	})
}
