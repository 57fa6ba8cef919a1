package api

import (
	"encoding/json"
	"net/http"

	"contest-voting/internal/domain/contestant"
	"contest-voting/internal/platform/apperr"
)

type contestantWithVotes struct {
	contestant.Contestant
	Votes int64 `json:"votes"`
}

// @Summary     List contestants with live vote counts
// @Description Counts come from the derived cache; when it is unavailable
// @Description they read as zero rather than failing the request.
// @Tags        contestants
// @Security    BearerAuth
// @Produce     json
// @Success     200  {array}  contestantWithVotes
// @Router      /api/v1/contestants [get]
func (h *Handler) handleListContestants(w http.ResponseWriter, r *http.Request) {
	roster, err := h.rosterSvc.List(r.Context())
	if err != nil {
		errorResponse(w, err)
		return
	}

	ids := make([]int64, len(roster))
	for i, c := range roster {
		ids[i] = c.ID
	}
	counts := h.voteSvc.ContestantCounts(r.Context(), ids)

	res := make([]contestantWithVotes, len(roster))
	for i, c := range roster {
		res[i] = contestantWithVotes{Contestant: c, Votes: counts[c.ID]}
	}

	writeJSON(w, http.StatusOK, res)
}

// @Summary     Contestants without any votes
// @Tags        contestants
// @Security    BearerAuth
// @Produce     json
// @Success     200  {array}  contestant.Contestant
// @Router      /api/v1/contestants/unvoted [get]
func (h *Handler) handleUnvotedContestants(w http.ResponseWriter, r *http.Request) {
	roster, err := h.rosterSvc.List(r.Context())
	if err != nil {
		errorResponse(w, err)
		return
	}

	ids := make([]int64, len(roster))
	for i, c := range roster {
		ids[i] = c.ID
	}
	counts := h.voteSvc.ContestantCounts(r.Context(), ids)

	unvoted := make([]contestant.Contestant, 0, len(roster))
	for _, c := range roster {
		if counts[c.ID] == 0 {
			unvoted = append(unvoted, c)
		}
	}

	writeJSON(w, http.StatusOK, unvoted)
}

type createContestantRequest struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Photo    string `json:"photo"`
}

// @Summary     Add a contestant
// @Tags        contestants
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      createContestantRequest  true  "Contestant (id 0 auto-assigns)"
// @Success     201      {object}  contestant.Contestant
// @Failure     400      {object}  map[string]string
// @Failure     403      {object}  map[string]string
// @Router      /api/v1/contestants [post]
func (h *Handler) handleCreateContestant(w http.ResponseWriter, r *http.Request) {
	var req createContestantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	c := &contestant.Contestant{
		ID:       req.ID,
		Name:     req.Name,
		Category: req.Category,
		Photo:    req.Photo,
	}
	if err := h.rosterSvc.Create(r.Context(), c); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", err.Error(), err))
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

type importRequest struct {
	Contestants []contestant.ImportItem `json:"contestants"`
}

// @Summary     Bulk import a contest roster
// @Description Accepts either a bare JSON array or {"contestants": [...]}.
// @Description Bad or colliding ids are remapped, missing fields defaulted,
// @Description and per-item failures counted instead of aborting the batch.
// @Tags        contestants
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Success     200  {object}  contestant.ImportResult
// @Failure     400  {object}  map[string]string
// @Failure     403  {object}  map[string]string
// @Router      /api/v1/contestants/import [post]
func (h *Handler) handleImportContestants(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid JSON", err))
		return
	}

	var items []contestant.ImportItem
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapped importRequest
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			errorResponse(w, apperr.BadRequest("invalid_input", "expected an array or {\"contestants\": [...]}", err))
			return
		}
		items = wrapped.Contestants
	}

	if len(items) == 0 {
		errorResponse(w, apperr.BadRequest("invalid_input", "no contestants in payload", nil))
		return
	}

	res, err := h.rosterSvc.Import(r.Context(), items)
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
