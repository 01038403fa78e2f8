package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/hireloop/interview-backend-go/internal/handler/ws"
)

func NewRouter(sessionHandler SessionHandler, liveHandler *ws.LiveHandler, frontendURL, env string) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "interview-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{frontendURL},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	r.Route("/api/v1", func(r chi.Router) {
		// Public, token-authenticated by the opaque session token
		r.Get("/interviews/join/{token}", sessionHandler.Join)
		r.Get("/sessions/status/{token}", sessionHandler.Status)
		r.Get("/sessions/live/{token}", liveHandler.Serve)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Post("/heartbeat", sessionHandler.Heartbeat)
			r.Post("/complete", sessionHandler.Complete)
			r.Post("/cancel", sessionHandler.Cancel)
		})
	})

	return r
}
