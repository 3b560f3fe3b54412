package apihttp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"plantwatch/internal/auth"
	"plantwatch/internal/observability/metrics"
	readings "plantwatch/internal/readings/domain"
	readingexport "plantwatch/internal/readings/interfaces"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

type readingRequest struct {
	SensorID  string    `json:"sensorId"`
	Value     *float64  `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes"`
}

func (s *Server) routeReadings(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/readings", s.handleListReadings)
	mux.HandleFunc("POST /api/v1/readings", s.handleAddReading)
	mux.HandleFunc("DELETE /api/v1/readings", s.handleClearReadings)
	mux.HandleFunc("DELETE /api/v1/readings/{readingID}", s.handleDeleteReading)
	mux.HandleFunc("GET /api/v1/readings/export.xlsx", s.handleExportReadings("xlsx"))
	mux.HandleFunc("GET /api/v1/readings/export.pdf", s.handleExportReadings("pdf"))
}

// selectReadings resolves the sensor_id and limit query parameters.
func (s *Server) selectReadings(r *http.Request) ([]readings.Reading, error) {
	q := r.URL.Query()
	if sensorID := q.Get("sensor_id"); sensorID != "" {
		return s.readings.GetReadingsForSensor(sensorID), nil
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("limit must be an integer")
		}
		limit = parsed
	}
	return s.readings.GetRecentReadings(limit), nil
}

func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	list, err := s.selectReadings(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddReading(w http.ResponseWriter, r *http.Request) {
	var req readingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Value == nil {
		http.Error(w, "value is required", http.StatusBadRequest)
		return
	}
	if req.SensorID != "" && !s.telemetry.Sensors().Exists(req.SensorID) {
		http.Error(w, "unknown sensor", http.StatusBadRequest)
		return
	}
	reading, err := s.readings.AddReading(r.Context(), readings.Input{
		SensorID:  req.SensorID,
		Value:     *req.Value,
		Timestamp: req.Timestamp,
		Notes:     req.Notes,
		EnteredBy: auth.ActorFromContext(r.Context()),
		Source:    readings.SourceManual,
	})
	if err != nil {
		if errors.Is(err, readings.ErrEmptySensorID) || errors.Is(err, readings.ErrInvalidValue) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reading)
}

func (s *Server) handleDeleteReading(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("readingID")
	deleted, err := s.readings.DeleteReading(r.Context(), id)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if deleted {
		s.recordAudit(r, "reading.delete", "reading", id, "", nil)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleClearReadings(w http.ResponseWriter, r *http.Request) {
	if err := s.readings.ClearAllReadings(r.Context()); err != nil {
		s.internalError(w, r, err)
		return
	}
	s.recordAudit(r, "reading.clear", "reading", "", "", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportReadings(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		result := metrics.ResultSuccess
		defer func() {
			metrics.ObserveExport(format, result, time.Since(start))
		}()

		list, err := s.selectReadings(r)
		if err != nil {
			result = metrics.ResultError
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		now := time.Now().UTC()
		var (
			data        []byte
			contentType string
		)
		switch format {
		case "xlsx":
			data, err = readingexport.BuildReadingsXLSX(list, s.telemetry.SensorName, now)
			contentType = contentTypeXLSX
		default:
			data, err = readingexport.BuildReadingsPDF(list, s.telemetry.SensorName, now)
			contentType = contentTypePDF
		}
		if err != nil {
			result = metrics.ResultError
			s.internalError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="readings-%s.%s"`, now.Format("20060102-150405"), format))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
