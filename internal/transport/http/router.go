package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/pawbook/visibility/internal/handler"
	"github.com/pawbook/visibility/internal/httputil"
	"github.com/pawbook/visibility/internal/transport/http/middleware"
)

// RouterConfig bundles the handlers and cross-cutting settings the router
// needs.
type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string

	RelationshipHandler *handler.RelationshipHandler
	PrivacyHandler      *handler.PrivacyHandler
	VisibilityHandler   *handler.VisibilityHandler
	ActivityHandler     *handler.ActivityHandler
}

// NewRouter builds the HTTP routing tree.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Everything below requires authentication
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Post("/follow", cfg.RelationshipHandler.Follow)
			r.Delete("/follow", cfg.RelationshipHandler.Unfollow)
			r.Post("/block", cfg.RelationshipHandler.Block)
			r.Delete("/block", cfg.RelationshipHandler.Unblock)

			r.Get("/visibility/{scope}", cfg.VisibilityHandler.Resolve)
		})

		r.Post("/visibility/batch", cfg.VisibilityHandler.ResolveBatch)

		r.Route("/me/privacy/{scope}", func(r chi.Router) {
			r.Get("/", cfg.PrivacyHandler.GetRule)
			r.Put("/", cfg.PrivacyHandler.SetRule)
			r.Get("/exceptions", cfg.PrivacyHandler.ListExceptions)
			r.Put("/exceptions", cfg.PrivacyHandler.SetException)
			r.Delete("/exceptions/{viewerID}", cfg.PrivacyHandler.RemoveException)
		})

		r.Route("/activities", func(r chi.Router) {
			r.Post("/", cfg.ActivityHandler.Create)
			r.Get("/{activityID}", cfg.ActivityHandler.Get)
		})

		// Moderation surface, fenced on the role claim
		r.Route("/moderation", func(r chi.Router) {
			r.Use(middleware.RequireModerator)
			r.Get("/users/{userID}/visibility/{scope}", cfg.VisibilityHandler.ResolveForModeration)
		})
	})

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("request")
	})
}
