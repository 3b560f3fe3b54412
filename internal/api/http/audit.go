package apihttp

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"plantwatch/internal/audit"
	"plantwatch/internal/auth"
)

func (s *Server) routeAudit(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/audit", s.handleListAudit)
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, s.audit.List(limit))
}

// recordAudit writes one journal entry for the authenticated caller.
func (s *Server) recordAudit(r *http.Request, action, resourceType, resourceID, plantID string, meta any) {
	var payload json.RawMessage
	if meta != nil {
		payload, _ = json.Marshal(meta)
	}
	err := s.audit.Log(r.Context(), audit.Entry{
		Actor:        auth.ActorFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		PlantID:      plantID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		s.logger.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}
