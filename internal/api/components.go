package api

import (
	"encoding/json"
	"net/http"

	"github.com/pitchside/pitchside-core/internal/action"
	"github.com/pitchside/pitchside-core/internal/lifecycle"
)

// handleListComponents returns the status of every registered component in
// execution order.
func (s *Server) handleListComponents(w http.ResponseWriter, _ *http.Request) {
	statuses := s.registry.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"components": statuses,
		"count":      len(statuses),
		"phase":      string(s.registry.Phase()),
	})
}

// orderEntry is one row of the execution order report.
type orderEntry struct {
	Position        int    `json:"position"`
	Name            string `json:"name"`
	Priority        int    `json:"priority"`
	Reinitializable bool   `json:"reinitializable"`
}

// handleComponentOrder returns the order components run in, highest
// priority first. Ties keep registration order.
func (s *Server) handleComponentOrder(w http.ResponseWriter, _ *http.Request) {
	statuses := s.registry.Status()
	order := make([]orderEntry, len(statuses))
	for i, st := range statuses {
		order[i] = orderEntry{
			Position:        i + 1,
			Name:            st.Name,
			Priority:        st.Priority,
			Reinitializable: st.Reinitializable,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

// reinitRequest is the JSON body for POST /components/reinit. An empty
// components list replays every reinitialisable component.
type reinitRequest struct {
	Components []string `json:"components"`
	Scope      string   `json:"scope"`
}

// handleReinit replays component callbacks on demand.
func (s *Server) handleReinit(w http.ResponseWriter, r *http.Request) {
	var req reinitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	kind := action.KindReinit
	if len(req.Components) == 0 {
		kind = action.KindReinitAll
	}

	claims := claimsFromContext(r.Context())
	source := "api"
	if claims != nil {
		source = "api:" + claims.Subject
	}

	err := s.dispatcher.Dispatch(r.Context(), action.Request{
		Kind:       kind,
		Components: req.Components,
		Scope:      lifecycle.Scope{Region: req.Scope},
		Source:     source,
	})
	if err != nil {
		s.logger.Error("reinit dispatch failed", "error", err, "source", source)
		writeInternalError(w, "reinitialisation failed")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":     "accepted",
		"action":     string(kind),
		"components": req.Components,
		"scope":      req.Scope,
	})
}
