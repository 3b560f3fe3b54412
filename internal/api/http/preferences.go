package apihttp

import (
	"net/http"
	"strings"

	preferences "plantwatch/internal/preferences/domain"
)

type activeTabRequest struct {
	PlantID string `json:"plantId"`
}

type selectionRequest struct {
	SensorIDs []string `json:"sensorIds"`
}

type selectionResponse struct {
	PlantID  string              `json:"plantId"`
	Outcome  preferences.Outcome `json:"outcome,omitempty"`
	Changed  bool                `json:"changed"`
	Selected []string            `json:"selected"`
	Count    int                 `json:"count"`
	Max      int                 `json:"max"`
}

func (s *Server) routePreferences(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/preferences", s.handleGetPreferences)
	mux.HandleFunc("DELETE /api/v1/preferences", s.handleClearPreferences)
	mux.HandleFunc("PUT /api/v1/preferences/active-tab", s.handleSetActiveTab)
	mux.HandleFunc("GET /api/v1/preferences/plants/{plantID}/sensors", s.handleGetSelection)
	mux.HandleFunc("PUT /api/v1/preferences/plants/{plantID}/sensors", s.handleSetSelection)
	mux.HandleFunc("DELETE /api/v1/preferences/plants/{plantID}/sensors", s.handleClearSelection)
	mux.HandleFunc("POST /api/v1/preferences/plants/{plantID}/sensors/{sensorID}", s.handleAddSensor)
	mux.HandleFunc("DELETE /api/v1/preferences/plants/{plantID}/sensors/{sensorID}", s.handleRemoveSensor)
	mux.HandleFunc("POST /api/v1/preferences/plants/{plantID}/sensors/{sensorID}/toggle", s.handleToggleSensor)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.prefs.Snapshot())
}

func (s *Server) handleClearPreferences(w http.ResponseWriter, r *http.Request) {
	if err := s.prefs.ClearAllPreferences(r.Context()); err != nil {
		s.internalError(w, r, err)
		return
	}
	s.live.Stop()
	s.recordAudit(r, "preferences.clear", "preferences", "", "", nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleSetActiveTab stores the tab and rearms the live loop when the tab
// names a catalogued plant; any other tab stops it.
func (s *Server) handleSetActiveTab(w http.ResponseWriter, r *http.Request) {
	var req activeTabRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	plantID := strings.TrimSpace(req.PlantID)
	if plantID == "" {
		http.Error(w, "plantId is required", http.StatusBadRequest)
		return
	}
	if err := s.prefs.SetActiveTab(r.Context(), plantID); err != nil {
		s.internalError(w, r, err)
		return
	}
	if s.telemetry.PlantExists(plantID) {
		if err := s.live.Watch(plantID); err != nil {
			s.internalError(w, r, err)
			return
		}
	} else {
		s.live.Stop()
	}
	writeJSON(w, http.StatusOK, s.prefs.Snapshot())
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	s.writeSelection(w, r.PathValue("plantID"), "")
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	plantID := r.PathValue("plantID")
	outcome, err := s.prefs.SetSelectedSensors(r.Context(), plantID, req.SensorIDs)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeSelection(w, plantID, outcome)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("plantID")
	if err := s.prefs.ClearPlantSensors(r.Context(), plantID); err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeSelection(w, plantID, preferences.OutcomeCleared)
}

func (s *Server) handleAddSensor(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("plantID")
	outcome, err := s.prefs.AddSensor(r.Context(), plantID, r.PathValue("sensorID"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeSelection(w, plantID, outcome)
}

func (s *Server) handleRemoveSensor(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("plantID")
	outcome, err := s.prefs.RemoveSensor(r.Context(), plantID, r.PathValue("sensorID"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeSelection(w, plantID, outcome)
}

func (s *Server) handleToggleSensor(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("plantID")
	outcome, err := s.prefs.ToggleSensor(r.Context(), plantID, r.PathValue("sensorID"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeSelection(w, plantID, outcome)
}

func (s *Server) writeSelection(w http.ResponseWriter, plantID string, outcome preferences.Outcome) {
	selected := s.prefs.GetSelectedSensors(plantID)
	writeJSON(w, http.StatusOK, selectionResponse{
		PlantID:  plantID,
		Outcome:  outcome,
		Changed:  outcome.Changed(),
		Selected: selected,
		Count:    len(selected),
		Max:      preferences.MaxSelectedSensors,
	})
}
