package timing

import (
	"context"
	"time"

	"github.com/OFFIS-RIT/newsgraph/internal/db"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger"
)

// AddStageRun stores how long a stage took for items work items.
func AddStageRun(ctx context.Context, conn db.DBTX, stage string, items int, duration time.Duration) error {
	q := db.New(conn)

	return q.AddStageRun(ctx, db.AddStageRunParams{
		ID:         db.NewID(),
		Stage:      stage,
		Items:      int32(items),
		DurationMs: duration.Milliseconds(),
	})
}

// PredictStageDuration estimates the runtime of stage for items work items
// from the most recent runs.
func PredictStageDuration(ctx context.Context, conn db.DBTX, stage string, items int) (time.Duration, error) {
	q := db.New(conn)

	ms, err := q.PredictStageDuration(ctx, db.PredictStageDurationParams{
		Items: int64(items),
		Stage: stage,
	})
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// Recorder persists stage timings. A nil Recorder or connection discards
// them.
type Recorder struct {
	Conn db.DBTX
}

func (r *Recorder) Record(ctx context.Context, stage string, items int, duration time.Duration) {
	if r == nil || r.Conn == nil {
		return
	}
	if err := AddStageRun(ctx, r.Conn, stage, items, duration); err != nil {
		logger.Warn("[Timing] Failed to store stage run", "stage", stage, "err", err)
	}
}

// Predict logs the expected runtime of stage. Stages without history are
// skipped silently.
func (r *Recorder) Predict(ctx context.Context, stage string, items int) {
	if r == nil || r.Conn == nil || items <= 0 {
		return
	}
	d, err := PredictStageDuration(ctx, r.Conn, stage, items)
	if err != nil {
		logger.Debug("[Timing] No duration estimate", "stage", stage, "err", err)
		return
	}
	if d > 0 {
		logger.Info("[Timing] Estimated stage duration", "stage", stage, "items", items, "estimate", d.Round(time.Second))
	}
}
