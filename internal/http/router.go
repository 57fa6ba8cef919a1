package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"contest-voting/internal/domain/contestant"
	"contest-voting/internal/domain/user"
	"contest-voting/internal/domain/vote"
	jwtpkg "contest-voting/internal/platform/jwt"
	"contest-voting/internal/stream"
)

type Handler struct {
	userSvc   *user.Service
	rosterSvc *contestant.Service
	voteSvc   *vote.Service
	jwtMgr    *jwtpkg.Manager
	relay     *stream.Relay
	db        *sql.DB
}

func NewRouter(
	userSvc *user.Service,
	rosterSvc *contestant.Service,
	voteSvc *vote.Service,
	jwtMgr *jwtpkg.Manager,
	relay *stream.Relay,
	db *sql.DB,
) http.Handler {
	h := &Handler{
		userSvc:   userSvc,
		rosterSvc: rosterSvc,
		voteSvc:   voteSvc,
		jwtMgr:    jwtMgr,
		relay:     relay,
		db:        db,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(RequestLogger)
	r.Use(CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", h.handleReady)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		// Live change feed: passive viewers need no credentials, and the
		// long-lived connection must dodge the global request timeout, so
		// it stays outside the auth group.
		r.Get("/events", h.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(60 * time.Second))
			r.Use(AuthMiddleware(jwtMgr))

			r.Get("/contestants", h.handleListContestants)
			r.Get("/contestants/unvoted", h.handleUnvotedContestants)
			r.Get("/votes/mine", h.handleMyVotes)
			r.Get("/results/top", h.handleTopContestants)
			r.Get("/results/categories", h.handleCategoryTotals)

			r.Group(func(r chi.Router) {
				r.Use(RateLimitVotes(rate.Every(time.Minute/30), 5))
				r.Post("/contestants/{id}/vote", h.handleAddVote)
				r.Delete("/contestants/{id}/vote", h.handleRemoveVote)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole("admin"))
				r.Post("/contestants", h.handleCreateContestant)
				r.Post("/contestants/import", h.handleImportContestants)
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	idStr := chi.URLParam(r, name)
	return strconv.ParseInt(idStr, 10, 64)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "db_unavailable",
			"message": "database not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "db_unavailable",
			"message": "database not ready",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
