package apihttp

import (
	"errors"
	"net/http"
	"strconv"

	"plantwatch/internal/auth"
	telemetry "plantwatch/internal/telemetry/domain"
	"plantwatch/internal/telemetry/infrastructure/memory"
)

const maxTrendHours = 168

func (s *Server) routeTelemetry(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/plants", s.handlePlants)
	mux.HandleFunc("GET /api/v1/plants/{plantID}/sensors", s.handlePlantSensors)
	mux.HandleFunc("GET /api/v1/alerts", s.handleAlerts)
	mux.HandleFunc("POST /api/v1/alerts/{alertID}/{action}", s.handleAlertAction)
	mux.HandleFunc("GET /api/v1/charts/hourly-alerts", s.handleHourlyAlerts)
	mux.HandleFunc("GET /api/v1/charts/trends", s.handleTrends)
	mux.HandleFunc("GET /api/v1/charts/health-matrix", s.handleHealthMatrix)
}

func (s *Server) handlePlants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.telemetry.ListPlants())
}

// handlePlantSensors lists a plant's sensors; selected=true narrows the list
// to the user's selection in selection order.
func (s *Server) handlePlantSensors(w http.ResponseWriter, r *http.Request) {
	plantID := r.PathValue("plantID")
	if r.URL.Query().Get("selected") == "true" {
		if !s.telemetry.PlantExists(plantID) {
			http.Error(w, "plant not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, s.telemetry.SensorsByID(plantID, s.prefs.GetSelectedSensors(plantID)))
		return
	}
	list, err := s.telemetry.ListSensors(plantID)
	if err != nil {
		if errors.Is(err, memory.ErrPlantNotFound) {
			http.Error(w, "plant not found", http.StatusNotFound)
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := memory.AlertFilter{
		PlantID:  q.Get("plant_id"),
		Status:   telemetry.AlertStatus(q.Get("status")),
		Severity: telemetry.Severity(q.Get("severity")),
	}
	switch filter.Status {
	case "", telemetry.AlertActive, telemetry.AlertAcknowledged, telemetry.AlertResolved:
	default:
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.telemetry.ListAlerts(filter))
}

func (s *Server) handleAlertAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("alertID")
	actor := auth.ActorFromContext(r.Context())

	var (
		alert telemetry.Alert
		err   error
	)
	switch r.PathValue("action") {
	case "ack":
		alert, err = s.telemetry.AckAlert(r.Context(), id, actor)
	case "resolve":
		alert, err = s.telemetry.ResolveAlert(r.Context(), id, actor)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, telemetry.ErrAlertNotFound):
			http.Error(w, "alert not found", http.StatusNotFound)
		case errors.Is(err, telemetry.ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	s.recordAudit(r, "alert."+r.PathValue("action"), "alert", alert.ID, alert.PlantID, map[string]string{"status": string(alert.Status)})
	writeJSON(w, http.StatusOK, alert)
}

func (s *Server) handleHourlyAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.telemetry.HourlyAlerts())
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxTrendHours {
			http.Error(w, "hours must be between 1 and 168", http.StatusBadRequest)
			return
		}
		hours = parsed
	}
	writeJSON(w, http.StatusOK, s.telemetry.Trends(hours))
}

func (s *Server) handleHealthMatrix(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.telemetry.HealthMatrix())
}
