package apihttp

import (
	"net/http"
	"strings"
)

type watchRequest struct {
	PlantID string `json:"plantId"`
}

type watchResponse struct {
	PlantID  string `json:"plantId,omitempty"`
	Watching bool   `json:"watching"`
	Policy   string `json:"policy"`
	Interval string `json:"interval"`
	Clients  int    `json:"streamClients"`
}

func (s *Server) routeLive(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/live/watch", s.handleWatchStatus)
	mux.HandleFunc("POST /api/v1/live/watch", s.handleWatch)
	mux.HandleFunc("DELETE /api/v1/live/watch", s.handleUnwatch)
}

func (s *Server) watchStatus() watchResponse {
	plantID, watching := s.live.Watching()
	return watchResponse{
		PlantID:  plantID,
		Watching: watching,
		Policy:   string(s.live.Policy()),
		Interval: s.live.Interval().String(),
		Clients:  s.broker.Clients(),
	}
}

func (s *Server) handleWatchStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.watchStatus())
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	var req watchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	plantID := strings.TrimSpace(req.PlantID)
	if !s.telemetry.PlantExists(plantID) {
		http.Error(w, "plant not found", http.StatusNotFound)
		return
	}
	if err := s.live.Watch(plantID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.watchStatus())
}

func (s *Server) handleUnwatch(w http.ResponseWriter, r *http.Request) {
	s.live.Stop()
	writeJSON(w, http.StatusOK, s.watchStatus())
}
