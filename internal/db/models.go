package db

import (
	"encoding/json"

	"github.com/jackc/pgx/v5/pgtype"
)

type Question struct {
	ID        string             `json:"id"`
	Question  string             `json:"question"`
	Answer    string             `json:"answer"`
	Context   string             `json:"context"`
	Trace     json.RawMessage    `json:"trace"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type StageRun struct {
	ID         string             `json:"id"`
	Stage      string             `json:"stage"`
	Items      int32              `json:"items"`
	DurationMs int64              `json:"duration_ms"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}
