package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"plateraffle/models"
	"plateraffle/service"

	log "github.com/sirupsen/logrus"
)

type observationRequest struct {
	StudentIdentifier string          `json:"student_identifier"`
	PreferredName     string          `json:"preferred_name"`
	LastName          string          `json:"last_name"`
	Category          models.Category `json:"category"`
}

type overrideRequest struct {
	Target string `json:"target"`
}

type discardRequest struct {
	Discarded bool `json:"discarded"`
}

type rosterRequest struct {
	Students []*models.Student `json:"students"`
}

type profileResponse struct {
	*models.Student
	DisplayName string `json:"display_name"`
}

type eligibilityResponse struct {
	Key      models.IdentityKey `json:"key"`
	Eligible bool               `json:"eligible"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.CreateSession(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.ListSessions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	detail, err := s.sessions.GetSessionDetail(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleRecordObservation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	var req observationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	observation, err := s.sessions.RecordObservation(r.Context(), sessionID, req.StudentIdentifier, req.PreferredName, req.LastName, req.Category)
	if err != nil {
		writeError(w, r, err)
		return
	}

	observationsRecorded.WithLabelValues(string(observation.Category)).Inc()
	writeJSON(w, http.StatusCreated, observation)
}

func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	snapshot, err := s.ledger.ComputeBalances(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleGetDrawState(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	state, err := s.draws.GetDrawState(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleStartDraw(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	state, err := s.draws.StartDraw(r.Context(), sessionID, actorFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	drawsStarted.Inc()
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleOverrideDraw(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	var req overrideRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	state, err := s.draws.Override(r.Context(), sessionID, actorFromContext(r.Context()), req.Target)
	if err != nil {
		writeError(w, r, err)
		return
	}

	drawsFinalized.WithLabelValues(string(state.Method)).Inc()
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleFinalizeDraw(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	state, err := s.draws.Finalize(r.Context(), sessionID, actorFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	drawsFinalized.WithLabelValues(string(state.Method)).Inc()
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleResetDraw(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	state, err := s.draws.Reset(r.Context(), sessionID, actorFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	limit := s.historyPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := s.draws.GetHistory(r.Context(), sessionID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSetDiscarded(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromPath(w, r)
	if !ok {
		return
	}

	var req discardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.draws.SetDiscarded(r.Context(), sessionID, actorFromContext(r.Context()), req.Discarded); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReplaceRoster(w http.ResponseWriter, r *http.Request) {
	var req rosterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.roster.ReplaceRoster(r.Context(), req.Students); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	key := models.IdentityKey(r.PathValue("key"))

	student, err := s.roster.Profile(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if student == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown student"})
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		Student:     student,
		DisplayName: student.DisplayName(),
	})
}

func (s *Server) handleGetEligibility(w http.ResponseWriter, r *http.Request) {
	key := models.IdentityKey(r.PathValue("key"))

	eligible, err := s.roster.IsEligible(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eligibilityResponse{Key: key, Eligible: eligible})
}

func sessionIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	sessionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid session id"})
		return 0, false
	}
	return sessionID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps the service error kinds onto HTTP status codes
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNoEligibleCandidates),
		errors.Is(err, service.ErrAmbiguousOverrideTarget):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"requestID": requestID(r.Context()),
			"path":      r.URL.Path,
		}).WithError(err).Error("Request failed")
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}
