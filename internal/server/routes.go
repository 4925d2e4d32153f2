package server

import (
	"net/http"

	"github.com/OFFIS-RIT/newsgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/newsgraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	apiRoutes.POST("/ask", routes.AskHandler, middleware.RequirePermission("question.ask"))
	apiRoutes.GET("/questions", routes.GetQuestionsHandler, middleware.RequirePermission("question.list"))
	apiRoutes.POST("/pipeline/:stage", routes.RunPipelineHandler, middleware.RequirePermission("pipeline.run"))
}
