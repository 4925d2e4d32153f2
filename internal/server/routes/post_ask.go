package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/OFFIS-RIT/newsgraph/internal/db"
	"github.com/OFFIS-RIT/newsgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger"
	"github.com/OFFIS-RIT/newsgraph/pkg/query"

	"github.com/labstack/echo/v4"
)

type askRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

type askResponse struct {
	ID       string                   `json:"id,omitempty"`
	Question string                   `json:"question"`
	Answer   string                   `json:"answer"`
	Context  string                   `json:"context"`
	Trace    query.QueryTraceSnapshot `json:"trace"`
}

func AskHandler(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	answer, err := app.Chain.Ask(ctx, req.Question)
	if err != nil {
		logger.Error("[Server] Error in knowledge graph RAG chain", "err", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": query.ErrorAnswer})
	}

	res := askResponse{
		Question: answer.Question,
		Answer:   answer.Answer,
		Context:  answer.Context,
		Trace:    answer.Trace,
	}

	if app.DBConn != nil {
		trace, _ := json.Marshal(answer.Trace)
		q := db.New(app.DBConn)
		saved, err := q.AddQuestion(ctx, db.AddQuestionParams{
			ID:       db.NewID(),
			Question: answer.Question,
			Answer:   answer.Answer,
			Context:  answer.Context,
			Trace:    trace,
		})
		if err != nil {
			logger.Error("[Server] Failed to store question", "err", err)
		} else {
			res.ID = saved.ID
		}
	}

	return c.JSON(http.StatusOK, res)
}
