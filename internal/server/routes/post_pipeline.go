package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/newsgraph/internal/queue"
	"github.com/OFFIS-RIT/newsgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

type pipelineRequest struct {
	Chain bool `json:"chain"`
}

type pipelineResponse struct {
	CorrelationID string `json:"correlation_id"`
	Stage         string `json:"stage"`
	Chain         bool   `json:"chain"`
}

// RunPipelineHandler enqueues a stage for the worker. The stage "all"
// starts at fetch and chains through every stage.
func RunPipelineHandler(c echo.Context) error {
	stage := c.Param("stage")

	var req pipelineRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
	}
	if stage == "all" {
		stage = queue.StageFetch
		req.Chain = true
	}

	msg := queue.NewStageMsg(stage, req.Chain)
	app := c.(*middleware.AppContext).App
	if err := queue.PublishStage(app.Queue, msg); err != nil {
		if errors.Is(err, queue.ErrUnknownStage) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		logger.Error("[Server] Failed to enqueue stage", "stage", stage, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to enqueue stage"})
	}

	logger.Info("[Server] Enqueued stage", "stage", stage, "chain", msg.Chain, "correlation_id", msg.CorrelationID)
	return c.JSON(http.StatusAccepted, pipelineResponse{
		CorrelationID: msg.CorrelationID,
		Stage:         msg.Stage,
		Chain:         msg.Chain,
	})
}
