package api

import (
	"net/http"
	"strconv"

	"contest-voting/internal/metrics"
	"contest-voting/internal/platform/apperr"
)

type voteResponse struct {
	Accepted  bool `json:"accepted"`
	Duplicate bool `json:"duplicate"`
}

// @Summary     Vote for a contestant
// @Description A repeated vote for the same contestant is not an error; it
// @Description comes back with duplicate=true and changes nothing.
// @Tags        votes
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "Contestant ID"
// @Success     200  {object}  voteResponse
// @Failure     400  {object}  map[string]string  "invalid contestant id"
// @Failure     401  {object}  map[string]string  "unauthorized"
// @Failure     503  {object}  map[string]string  "vote ledger unavailable"
// @Router      /api/v1/contestants/{id}/vote [post]
func (h *Handler) handleAddVote(w http.ResponseWriter, r *http.Request) {
	contestantID, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid contestant id", err))
		return
	}

	userID := userIDFromCtx(r)

	accepted, duplicate := h.voteSvc.AddVote(r.Context(), userID, contestantID)
	if !accepted {
		metrics.IncVote("failed")
		errorResponse(w, apperr.Unavailable("ledger_unavailable", "vote could not be recorded, try again", nil))
		return
	}

	if duplicate {
		metrics.IncVote("duplicate")
	} else {
		metrics.IncVote("accepted")
	}
	writeJSON(w, http.StatusOK, voteResponse{Accepted: accepted, Duplicate: duplicate})
}

// @Summary     Remove a vote
// @Tags        votes
// @Security    BearerAuth
// @Param       id   path  int64  true  "Contestant ID"
// @Success     204
// @Failure     400  {object}  map[string]string  "invalid contestant id"
// @Failure     401  {object}  map[string]string  "unauthorized"
// @Failure     503  {object}  map[string]string  "vote ledger unavailable"
// @Router      /api/v1/contestants/{id}/vote [delete]
func (h *Handler) handleRemoveVote(w http.ResponseWriter, r *http.Request) {
	contestantID, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid contestant id", err))
		return
	}

	userID := userIDFromCtx(r)

	if err := h.voteSvc.RemoveVote(r.Context(), userID, contestantID); err != nil {
		metrics.IncVote("failed")
		errorResponse(w, apperr.Unavailable("ledger_unavailable", "vote could not be removed, try again", err))
		return
	}

	metrics.IncVote("removed")
	w.WriteHeader(http.StatusNoContent)
}

// @Summary     Contestants the caller has voted for
// @Tags        votes
// @Security    BearerAuth
// @Produce     json
// @Success     200  {object}  map[string]any
// @Failure     503  {object}  map[string]string  "vote ledger unavailable"
// @Router      /api/v1/votes/mine [get]
func (h *Handler) handleMyVotes(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromCtx(r)

	ids, err := h.voteSvc.LoadUserVotes(r.Context(), userID)
	if err != nil {
		errorResponse(w, apperr.Unavailable("ledger_unavailable", "voted set unavailable, try again", err))
		return
	}
	if ids == nil {
		ids = []int64{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":        userID,
		"contestant_ids": ids,
	})
}

type rankedContestant struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Photo    string `json:"photo"`
	Votes    int64  `json:"votes"`
}

// @Summary     Leaderboard
// @Tags        results
// @Security    BearerAuth
// @Produce     json
// @Param       limit  query     int  false  "Number of entries (default 3)"
// @Success     200    {array}   rankedContestant
// @Router      /api/v1/results/top [get]
func (h *Handler) handleTopContestants(w http.ResponseWriter, r *http.Request) {
	limit := 3
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			errorResponse(w, apperr.BadRequest("invalid_input", "limit must be a positive integer", err))
			return
		}
		limit = n
	}

	entries := h.voteSvc.Ranking(r.Context(), limit)

	top := make([]rankedContestant, 0, len(entries))
	for _, e := range entries {
		c, err := h.rosterSvc.Get(r.Context(), e.ContestantID)
		if err != nil {
			// Ranked id no longer in the roster; skip it.
			continue
		}
		top = append(top, rankedContestant{
			ID:       c.ID,
			Name:     c.Name,
			Category: c.Category,
			Photo:    c.Photo,
			Votes:    e.Votes,
		})
	}

	writeJSON(w, http.StatusOK, top)
}

// @Summary     Vote totals per category
// @Tags        results
// @Security    BearerAuth
// @Produce     json
// @Success     200  {object}  map[string]int64
// @Router      /api/v1/results/categories [get]
func (h *Handler) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.voteSvc.CategoryTotals(r.Context()))
}
