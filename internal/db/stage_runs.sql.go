package db

import (
	"context"
)

const addStageRun = `
INSERT INTO stage_runs (id, stage, items, duration_ms)
VALUES ($1, $2, $3, $4)
`

type AddStageRunParams struct {
	ID         string `json:"id"`
	Stage      string `json:"stage"`
	Items      int32  `json:"items"`
	DurationMs int64  `json:"duration_ms"`
}

func (q *Queries) AddStageRun(ctx context.Context, arg AddStageRunParams) error {
	_, err := q.db.Exec(ctx, addStageRun,
		arg.ID,
		arg.Stage,
		arg.Items,
		arg.DurationMs,
	)
	return err
}

const predictStageDuration = `
SELECT COALESCE(
    CAST(SUM(duration_ms) AS DOUBLE PRECISION) / NULLIF(SUM(items), 0) * $1,
    0
)::BIGINT
FROM (
    SELECT duration_ms, items
    FROM stage_runs
    WHERE stage = $2
    ORDER BY created_at DESC
    LIMIT 20
) recent
`

type PredictStageDurationParams struct {
	Items int64  `json:"items"`
	Stage string `json:"stage"`
}

func (q *Queries) PredictStageDuration(ctx context.Context, arg PredictStageDurationParams) (int64, error) {
	row := q.db.QueryRow(ctx, predictStageDuration, arg.Items, arg.Stage)
	var duration int64
	err := row.Scan(&duration)
	return duration, err
}
