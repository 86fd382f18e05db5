package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mixfield/songdraft/go/internal/draft/engine"
	"github.com/mixfield/songdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// API is the JSON HTTP surface over the draft engine.
type API struct {
	engine  *engine.Engine
	manager *ConnectionManager
}

// NewAPI creates the HTTP API.
func NewAPI(draftEngine *engine.Engine, manager *ConnectionManager) *API {
	return &API{engine: draftEngine, manager: manager}
}

// Register mounts all routes on the mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/groups", a.handleCreateGroup)
	mux.HandleFunc("POST /api/groups/{groupID}/start", a.handleStartDraft)
	mux.HandleFunc("POST /api/groups/{groupID}/claims", a.handleSubmitClaim)
	mux.HandleFunc("GET /api/groups/{groupID}/state", a.handleGetState)
	mux.HandleFunc("POST /api/groups/{groupID}/pause", a.handlePauseDraft)
	mux.HandleFunc("POST /api/groups/{groupID}/resume", a.handleResumeDraft)
	mux.HandleFunc("POST /api/groups/{groupID}/cancel", a.handleCancelDraft)
	mux.HandleFunc("GET /api/groups/{groupID}/ws", a.handleWebSocket)
}

type createGroupRequest struct {
	Name           string   `json:"name"`
	ParticipantIDs []string `json:"participant_ids"`
	Rounds         int      `json:"rounds"`
	TimePerPickSec int      `json:"time_per_pick_sec"`
}

func (a *API) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if len(req.ParticipantIDs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "at least one participant is required")
		return
	}
	if req.Rounds < 1 {
		writeError(w, http.StatusBadRequest, "invalid_request", "rounds must be at least 1")
		return
	}
	if req.TimePerPickSec < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "time_per_pick_sec must not be negative")
		return
	}

	participants := make([]uuid.UUID, len(req.ParticipantIDs))
	for i, raw := range req.ParticipantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid participant id: "+raw)
			return
		}
		participants[i] = id
	}

	group := models.Group{
		ID:             uuid.New(),
		Name:           req.Name,
		ParticipantIDs: participants,
		Rounds:         req.Rounds,
		TimePerPickSec: req.TimePerPickSec,
		CreatedAt:      time.Now(),
	}

	if err := a.engine.CreateGroup(r.Context(), group); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (a *API) handleStartDraft(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	if err := a.engine.StartDraft(r.Context(), groupID); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

type submitClaimRequest struct {
	ParticipantID string `json:"participant_id"`
	SongID        string `json:"song_id"`
}

func (a *API) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}

	var req submitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	participantID, err := uuid.Parse(req.ParticipantID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid participant id")
		return
	}
	if req.SongID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "song_id is required")
		return
	}

	claim, err := a.engine.SubmitClaim(r.Context(), groupID, participantID, req.SongID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, claim)
}

func (a *API) handleGetState(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	snapshot, err := a.engine.GetState(r.Context(), groupID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

type pauseRequest struct {
	Reason string `json:"reason"`
}

func (a *API) handlePauseDraft(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	var req pauseRequest
	// Body is optional for pause
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := a.engine.PauseDraft(r.Context(), groupID, req.Reason); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (a *API) handleResumeDraft(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	if err := a.engine.ResumeDraft(r.Context(), groupID); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resumed"})
}

func (a *API) handleCancelDraft(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	if err := a.engine.CancelDraft(r.Context(), groupID); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (a *API) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	userID := r.URL.Query().Get("user_id")

	if err := a.manager.UpgradeConnection(w, r, userID, groupID); err != nil {
		log.Error().Err(err).Str("group_id", groupID.String()).Msg("websocket upgrade failed")
	}
}

func pathGroupID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	groupID, err := uuid.Parse(r.PathValue("groupID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid group id")
		return uuid.Nil, false
	}
	return groupID, true
}

// writeEngineError maps the engine's error taxonomy onto distinct HTTP
// responses. WrongTurn vs SongUnavailable must stay distinguishable so the
// UI can show "not your turn" vs "already taken".
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, engine.ErrNotStarted):
		writeError(w, http.StatusConflict, "not_started", err.Error())
	case errors.Is(err, engine.ErrAlreadyStarted):
		writeError(w, http.StatusConflict, "already_started", err.Error())
	case errors.Is(err, engine.ErrNotAcceptingPicks):
		writeError(w, http.StatusConflict, "not_accepting_picks", err.Error())
	case errors.Is(err, engine.ErrWrongTurn):
		writeError(w, http.StatusConflict, "wrong_turn", err.Error())
	case errors.Is(err, engine.ErrSongUnavailable):
		writeError(w, http.StatusConflict, "song_unavailable", err.Error())
	case errors.Is(err, engine.ErrContention):
		writeError(w, http.StatusServiceUnavailable, "contention", err.Error())
	default:
		log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
