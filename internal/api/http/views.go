package apihttp

import (
	"net/http"
	"sort"

	telemetry "plantwatch/internal/telemetry/domain"
	"plantwatch/internal/telemetry/infrastructure/memory"
	"plantwatch/internal/telemetry/synthetic"
)

type operatorView struct {
	ActiveTab    string             `json:"activeTab,omitempty"`
	Selected     []telemetry.Sensor `json:"selectedSensors"`
	ActiveAlerts []telemetry.Alert  `json:"activeAlerts"`
}

type plantAlertSummary struct {
	PlantID      string `json:"plantId"`
	PlantName    string `json:"plantName"`
	Active       int    `json:"active"`
	Acknowledged int    `json:"acknowledged"`
	Critical     int    `json:"critical"`
}

type managerView struct {
	Plants []plantAlertSummary          `json:"plants"`
	Hourly []synthetic.HourlyAlertPoint `json:"hourlyAlerts"`
}

type executiveView struct {
	PlantStatus  map[telemetry.PlantStatus]int  `json:"plantStatus"`
	Health       []synthetic.HealthRow          `json:"healthMatrix"`
	HealthTotals map[synthetic.HealthStatus]int `json:"healthTotals"`
}

func (s *Server) routeViews(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/views/operator", s.handleOperatorView)
	mux.HandleFunc("GET /api/v1/views/manager", s.handleManagerView)
	mux.HandleFunc("GET /api/v1/views/executive", s.handleExecutiveView)
}

// handleOperatorView shows the selected sensors and open alerts of the active tab.
func (s *Server) handleOperatorView(w http.ResponseWriter, r *http.Request) {
	view := operatorView{Selected: []telemetry.Sensor{}, ActiveAlerts: []telemetry.Alert{}}
	if plantID, ok := s.prefs.ActiveTab(); ok {
		view.ActiveTab = plantID
		view.Selected = s.telemetry.SensorsByID(plantID, s.prefs.GetSelectedSensors(plantID))
		view.ActiveAlerts = s.telemetry.ListAlerts(memory.AlertFilter{PlantID: plantID, Status: telemetry.AlertActive})
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleManagerView(w http.ResponseWriter, r *http.Request) {
	byPlant := make(map[string]*plantAlertSummary)
	for _, p := range s.telemetry.ListPlants() {
		byPlant[p.ID] = &plantAlertSummary{PlantID: p.ID, PlantName: p.Name}
	}
	for _, a := range s.telemetry.ListAlerts(memory.AlertFilter{}) {
		summary, ok := byPlant[a.PlantID]
		if !ok {
			continue
		}
		switch a.Status {
		case telemetry.AlertActive:
			summary.Active++
		case telemetry.AlertAcknowledged:
			summary.Acknowledged++
		}
		if a.Severity == telemetry.SeverityCritical && a.Status != telemetry.AlertResolved {
			summary.Critical++
		}
	}
	plants := make([]plantAlertSummary, 0, len(byPlant))
	for _, summary := range byPlant {
		plants = append(plants, *summary)
	}
	sort.Slice(plants, func(i, j int) bool { return plants[i].PlantID < plants[j].PlantID })
	writeJSON(w, http.StatusOK, managerView{Plants: plants, Hourly: s.telemetry.HourlyAlerts()})
}

func (s *Server) handleExecutiveView(w http.ResponseWriter, r *http.Request) {
	matrix := s.telemetry.HealthMatrix()
	writeJSON(w, http.StatusOK, executiveView{
		PlantStatus:  s.telemetry.PlantStatusCounts(),
		Health:       matrix,
		HealthTotals: synthetic.HealthSummary(matrix),
	})
}
