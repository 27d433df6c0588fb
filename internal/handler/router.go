/*
Package handler provides the HTTP handlers and routing setup for the token issuer.

This file defines the main Router, applying middleware for logging, CORS, and
IP-based rate limiting before delegating to the issuance handlers. The origin
allow-list is enforced softly: responses to unlisted origins simply lack the
permissive cross-origin header, and the browser refuses to hand the body to the
calling page.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"peertoken/internal/pkg/errs"
	"peertoken/internal/pkg/limiter"
	"peertoken/internal/pkg/logx"
	"peertoken/internal/pkg/metrics"
	"peertoken/internal/pkg/resp"
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It configures CORS from the origin allow-list, fronts the token route with a
// per-IP rate limiter, and answers method violations with the Allow header the
// API contract promises.
func Router(deps *AppDeps) http.Handler {
	tokenLimiter := limiter.NewIPRateLimiter(rate.Limit(deps.Config.TokenRate), deps.Config.TokenBurst)

	r := chi.NewRouter()

	allowedMethods := []string{http.MethodPost, http.MethodOptions}
	if deps.Config.AllowInsecureQuery {
		allowedMethods = append(allowedMethods, http.MethodGet)
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: allowedMethods,
		AllowedHeaders: []string{"Accept", "Content-Type", RoomPasswordHeader},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "peertoken",
		})
	})

	if deps.Config.MetricsEnabled {
		metricsHandler, err := metrics.Register(nil)
		if err != nil {
			logx.Error(err, "failed to register metrics; /metrics disabled")
		} else {
			r.Method(http.MethodGet, "/metrics", metricsHandler)
		}
	}

	r.Route("/token", func(tok chi.Router) {
		tok.Use(tokenLimiter.Middleware)

		// 405 must name the methods this route does accept. Scoped to the
		// token subtree so /health and /metrics keep their own Allow sets.
		allowValue := "POST, OPTIONS"
		if deps.Config.AllowInsecureQuery {
			allowValue = "GET, POST, OPTIONS"
		}
		tok.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Allow", allowValue)
			resp.RespondError(w, r, errs.NewError(errs.CodeMethodNotAllowed))
		})

		tok.Post("/", HandleIssueToken(deps))
		if deps.Config.AllowInsecureQuery {
			tok.Get("/", HandleQueryToken(deps))
		}
	})

	return r
}
