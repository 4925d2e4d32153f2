package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/newsgraph/pkg/ai"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// StageRunner runs one pipeline stage to completion.
type StageRunner interface {
	RunStage(ctx context.Context, stage string) error
}

// Worker consumes the stage queues one message at a time.
type Worker struct {
	conn   *amqp091.Connection
	runner StageRunner
	queues []string

	// AIClient, when set, has its usage logged and reset after every message.
	AIClient ai.GraphAIClient
}

func NewWorker(conn *amqp091.Connection, runner StageRunner) *Worker {
	return &Worker{conn: conn, runner: runner, queues: QueueNames()}
}

type queuedMessage struct {
	msg       amqp091.Delivery
	queueName string
}

// Run declares the queues and processes messages until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := SetupQueues(ch, w.queues); err != nil {
		return err
	}

	// A single consumer channel with prefetch 1 delivers only one message
	// at a time across all queues.
	consumerCh, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range w.queues {
		msgs, err := consumerCh.Consume(
			queueName,
			queueName+"_consumer",
			false, // autoAck
			false, // exclusive
			false, // noLocal
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("failed to start consuming %s: %w", queueName, err)
		}

		go func(qName string, msgs <-chan amqp091.Delivery) {
			for {
				select {
				case <-ctx.Done():
					logger.Debug("[Queue] Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("[Queue] Message channel closed", "queue", qName)
						return
					}
					select {
					case messageChan <- queuedMessage{msg: msg, queueName: qName}:
					case <-ctx.Done():
						return
					}
				}
			}
		}(queueName, msgs)
	}

	logger.Info("[Queue] Listening for messages", "queues", w.queues)
	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping message processor")
			return nil
		case qm := <-messageChan:
			w.process(ctx, ch, qm)
		}
	}
}

func (w *Worker) process(ctx context.Context, ch Publisher, qm queuedMessage) {
	startTime := time.Now()
	logger.Info("[Queue] Received message", "queue", qm.queueName)

	err := Process(ctx, ch, w.runner, qm.queueName, qm.msg)
	if err != nil {
		logger.Error("[Queue] Error processing message", "queue", qm.queueName, "err", err)
	} else {
		logger.Info("[Queue] Message processed successfully", "queue", qm.queueName)
	}

	if w.AIClient != nil {
		metrics := w.AIClient.GetMetrics()
		logger.Info(
			"[Queue] AI metrics",
			"input_tokens", metrics.InputTokens,
			"output_tokens", metrics.OutputTokens,
			"total_tokens", metrics.TotalTokens,
			"requests", metrics.Requests,
			"duration", formatDuration(time.Duration(metrics.DurationMs)*time.Millisecond),
		)
		w.AIClient.ResetMetrics()
	}
	logger.Info("[Queue] Processing time", "duration", formatDuration(time.Since(startTime)))
}

// Process runs the stage requested by msg. Failures go through
// HandleProcessingError. On success the next stage is published when
// requested and the delivery is acked; if that publish fails the delivery
// is requeued.
func Process(ctx context.Context, ch Publisher, runner StageRunner, queueName string, msg amqp091.Delivery) error {
	stageMsg, err := ParseStageMsg(queueName, msg.Body)
	if err != nil {
		// Malformed messages never succeed, so skip the retry queue.
		logger.Error("[Queue] Dropping malformed message", "queue", queueName, "err", err)
		_ = msg.Nack(false, false)
		return err
	}

	if err := runner.RunStage(ctx, stageMsg.Stage); err != nil {
		HandleProcessingError(ch, msg, queueName)
		return err
	}

	// next stage goes out before the ack
	if next, ok := stageMsg.Next(); ok {
		if err := PublishStage(ch, next); err != nil {
			_ = msg.Nack(false, true)
			return fmt.Errorf("failed to chain %s: %w", next.Stage, err)
		}
		logger.Info("[Queue] Chained next stage", "stage", next.Stage, "correlation_id", next.CorrelationID)
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
	return nil
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
