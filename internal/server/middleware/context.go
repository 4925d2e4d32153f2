package middleware

import (
	"context"

	"github.com/OFFIS-RIT/newsgraph/internal/db"
	"github.com/OFFIS-RIT/newsgraph/internal/queue"
	"github.com/OFFIS-RIT/newsgraph/pkg/query"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	UserID      string
	Role        string
	Permissions []string
}

// Asker answers a question and reports the context it used.
type Asker interface {
	Ask(ctx context.Context, question string) (query.Answer, error)
}

type App struct {
	// DBConn is nil when question history is disabled.
	DBConn db.DBTX
	Queue  queue.Publisher
	// Keyfunc verifies bearer JWTs. Nil disables JWT auth.
	Keyfunc      jwt.Keyfunc
	Chain        Asker
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
