package middleware

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/marula-ai/marula/pkg/ai"
	"github.com/marula-ai/marula/pkg/graph"
	"github.com/marula-ai/marula/pkg/query"
	"github.com/marula-ai/marula/pkg/store"
)

// App bundles the shared dependencies handed to every request handler.
type App struct {
	DBConn    *pgxpool.Pool
	Storage   store.GraphStorage
	Processor *graph.Processor
	Engine    *query.Engine
	AiClient  ai.Client
	UploadDir string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{c, app})
		}
	}
}
