package routes

import (
	"net/http"
	"strconv"

	"github.com/OFFIS-RIT/newsgraph/internal/db"
	"github.com/OFFIS-RIT/newsgraph/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

const (
	defaultQuestionLimit = 20
	maxQuestionLimit     = 100
)

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

func GetQuestionsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	if app.DBConn == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Question history is disabled"})
	}

	limit, err := intParam(c, "limit", defaultQuestionLimit)
	if err != nil {
		return err
	}
	offset, err := intParam(c, "offset", 0)
	if err != nil {
		return err
	}
	if limit == 0 || limit > maxQuestionLimit {
		limit = maxQuestionLimit
	}

	q := db.New(app.DBConn)
	res, err := q.ListQuestions(c.Request().Context(), db.ListQuestionsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, res)
}
