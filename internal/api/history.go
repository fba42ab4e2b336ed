package api

import (
	"net/http"
	"strconv"

	"github.com/pitchside/pitchside-core/internal/history"
)

// handleListHistory returns persisted component run events, newest first.
// Supports filtering by component, kind, and outcome, plus limit/offset
// pagination.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.historyRepo == nil {
		writeNotFound(w, "run history is not enabled")
		return
	}

	q := r.URL.Query()
	filter := history.Filter{
		Component: q.Get("component"),
		Kind:      q.Get("kind"),
		Outcome:   q.Get("outcome"),
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}

	result, err := s.historyRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing run history failed", "error", err)
		writeInternalError(w, "listing run history failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
