package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/todo-api/internal/api"
	apiMiddleware "github.com/phrazzld/todo-api/internal/api/middleware"
	"github.com/phrazzld/todo-api/internal/metrics"
)

// setupRouter creates the router with the middleware chain and all routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewCORSMiddleware(app.config.CORS.AllowedOrigins))
	if app.config.Metrics.Enabled {
		r.Use(apiMiddleware.Metrics(app.metrics))
	}

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)

	r.Route("/api/{"+api.UserIDParam+"}/tasks", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Use(apiMiddleware.RequireUserAccess(api.UserIDParam))
		r.Use(app.rateLimiter.Middleware)

		r.Get("/", taskHandler.ListTasks)
		r.Post("/", taskHandler.CreateTask)
		r.Get("/{"+api.TaskIDParam+"}", taskHandler.GetTask)
		r.Put("/{"+api.TaskIDParam+"}", taskHandler.UpdateTask)
		r.Delete("/{"+api.TaskIDParam+"}", taskHandler.DeleteTask)
		r.Patch("/{"+api.TaskIDParam+"}/complete", taskHandler.ToggleComplete)
	})

	r.Get("/health", api.Health)

	if app.config.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(app.registry))
	}

	return r
}
