package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Stages in pipeline order.
const (
	StageFetch = "fetch"
	StageBuild = "build"
	StageIndex = "index"
)

var Stages = []string{StageFetch, StageBuild, StageIndex}

// ErrUnknownStage is returned for stage names outside Stages.
var ErrUnknownStage = errors.New("unknown stage")

// QueueName returns the queue that carries stage.
func QueueName(stage string) (string, error) {
	for _, s := range Stages {
		if s == stage {
			return stage + "_queue", nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, stage)
}

// QueueNames returns the queues of all stages.
func QueueNames() []string {
	names := make([]string, len(Stages))
	for i, s := range Stages {
		names[i] = s + "_queue"
	}
	return names
}

// NextStage returns the stage after stage, or "" for the last one.
func NextStage(stage string) string {
	for i, s := range Stages {
		if s == stage && i+1 < len(Stages) {
			return Stages[i+1]
		}
	}
	return ""
}

// StageMsg asks a worker to run one stage. With Chain set the worker
// enqueues the next stage after a successful run.
type StageMsg struct {
	CorrelationID string    `json:"correlation_id"`
	Stage         string    `json:"stage"`
	Chain         bool      `json:"chain"`
	RequestedAt   time.Time `json:"requested_at"`
}

// NewStageMsg creates a message with a fresh correlation id.
func NewStageMsg(stage string, chain bool) StageMsg {
	return StageMsg{
		CorrelationID: gonanoid.Must(),
		Stage:         stage,
		Chain:         chain,
		RequestedAt:   time.Now().UTC(),
	}
}

// Next returns the follow-up message, keeping the correlation id.
func (m StageMsg) Next() (StageMsg, bool) {
	next := NextStage(m.Stage)
	if !m.Chain || next == "" {
		return StageMsg{}, false
	}
	return StageMsg{
		CorrelationID: m.CorrelationID,
		Stage:         next,
		Chain:         true,
		RequestedAt:   time.Now().UTC(),
	}, true
}

// PublishStage validates msg and enqueues it on its stage queue.
func PublishStage(ch Publisher, msg StageMsg) error {
	name, err := QueueName(msg.Stage)
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal stage message: %w", err)
	}
	if err := PublishFIFO(ch, name, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", name, err)
	}
	return nil
}

// ParseStageMsg decodes a delivery body. Messages without a stage take
// the stage of the queue they arrived on.
func ParseStageMsg(queueName string, body []byte) (StageMsg, error) {
	var msg StageMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("failed to unmarshal stage message: %w", err)
	}
	if msg.Stage == "" {
		for _, s := range Stages {
			if s+"_queue" == queueName {
				msg.Stage = s
			}
		}
	}
	if _, err := QueueName(msg.Stage); err != nil {
		return msg, err
	}
	return msg, nil
}
