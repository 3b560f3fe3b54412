package synthetic

import (
	"fmt"
	"time"

	telemetry "plantwatch/internal/telemetry/domain"
)

type plantSeed struct {
	id       string
	name     string
	location string
	region   string
	status   telemetry.PlantStatus
}

var plantSeeds = []plantSeed{
	{id: "plant-001", name: "Northgate Water Treatment", location: "Northgate", region: "North", status: telemetry.PlantOnline},
	{id: "plant-002", name: "Riverside Filtration Works", location: "Riverside", region: "East", status: telemetry.PlantOnline},
	{id: "plant-003", name: "Lakeshore Purification", location: "Lakeshore", region: "West", status: telemetry.PlantWarning},
	{id: "plant-004", name: "Hillcrest Reservoir Plant", location: "Hillcrest", region: "South", status: telemetry.PlantOnline},
	{id: "plant-005", name: "Eastbrook Desalination", location: "Eastbrook", region: "East", status: telemetry.PlantOnline},
	{id: "plant-006", name: "Southfield Treatment Works", location: "Southfield", region: "South", status: telemetry.PlantOffline},
}

type sensorSpec struct {
	name      string
	unit      string
	min       float64
	max       float64
	setpoint  float64
	priority  int
	hasTarget bool
}

var sensorSpecs = map[telemetry.SensorType]sensorSpec{
	telemetry.SensorPH:              {name: "pH", unit: "pH", min: 6.5, max: 8.5, setpoint: 7.2, priority: 1, hasTarget: true},
	telemetry.SensorTurbidity:       {name: "Turbidity", unit: "NTU", min: 0, max: 4, setpoint: 0.5, priority: 1, hasTarget: true},
	telemetry.SensorChlorine:        {name: "Free Chlorine", unit: "mg/L", min: 0.2, max: 4, setpoint: 1.5, priority: 1, hasTarget: true},
	telemetry.SensorFlow:            {name: "Flow Rate", unit: "m³/h", min: 200, max: 2000, setpoint: 1200, priority: 2, hasTarget: true},
	telemetry.SensorPressure:        {name: "Line Pressure", unit: "bar", min: 2, max: 8, setpoint: 5, priority: 2, hasTarget: true},
	telemetry.SensorTemperature:     {name: "Water Temperature", unit: "°C", min: 4, max: 30, priority: 3},
	telemetry.SensorDissolvedOxygen: {name: "Dissolved Oxygen", unit: "mg/L", min: 5, max: 12, priority: 3},
	telemetry.SensorConductivity:    {name: "Conductivity", unit: "µS/cm", min: 50, max: 1500, priority: 3},
	telemetry.SensorLevel:           {name: "Tank Level", unit: "%", min: 10, max: 95, setpoint: 70, priority: 2, hasTarget: true},
	telemetry.SensorTDS:             {name: "Total Dissolved Solids", unit: "mg/L", min: 0, max: 500, priority: 3},
}

// outletTypes get a second, downstream sensor per plant.
var outletTypes = []telemetry.SensorType{
	telemetry.SensorPH,
	telemetry.SensorTurbidity,
	telemetry.SensorChlorine,
	telemetry.SensorFlow,
}

// Plants returns the fixed plant catalogue stamped with now.
func Plants(now time.Time) []telemetry.Plant {
	out := make([]telemetry.Plant, 0, len(plantSeeds))
	perPlant := len(telemetry.SensorTypes) + len(outletTypes)
	for _, seed := range plantSeeds {
		out = append(out, telemetry.Plant{
			ID:          seed.id,
			Name:        seed.name,
			Location:    seed.location,
			Region:      seed.region,
			Status:      seed.status,
			SensorCount: perPlant,
			LastUpdated: HourStart(now),
		})
	}
	return out
}

// Sensors builds the sensor set for plants. Values, histories and
// timestamps are seeded by plant, sensor and hour so that two calls within
// the same hour agree.
func Sensors(plants []telemetry.Plant, now time.Time) []telemetry.Sensor {
	end := HourStart(now)
	var out []telemetry.Sensor
	for plantIndex, plant := range plants {
		sensorIndex := 0
		add := func(typ telemetry.SensorType, suffix, label, location string) {
			spec := sensorSpecs[typ]
			seedBase := end.Hour()*1000 + plantIndex*100 + sensorIndex*7
			s := telemetry.Sensor{
				ID:           fmt.Sprintf("%s-%s%s", plant.ID, typ, suffix),
				PlantID:      plant.ID,
				Name:         spec.name + label,
				Type:         typ,
				Unit:         spec.unit,
				MinThreshold: spec.min,
				MaxThreshold: spec.max,
				Priority:     spec.priority,
				Location:     location,
				Tag:          fmt.Sprintf("%s-%03d", tagPrefix(typ), plantIndex*20+sensorIndex+1),
			}
			if spec.hasTarget {
				sp := spec.setpoint
				s.Setpoint = &sp
			}
			for i := telemetry.HistoryWindow - 1; i >= 0; i-- {
				at := end.Add(-time.Duration(i) * 3 * time.Minute)
				s.ApplyReading(SensorValue(typ, seedBase+i), at)
			}
			s.CommStatus = commFor(plant.Status, Seeded(seedBase+3))
			out = append(out, s)
			sensorIndex++
		}
		for _, typ := range telemetry.SensorTypes {
			add(typ, "", "", "Inlet")
		}
		for _, typ := range outletTypes {
			add(typ, "-out", " (Outlet)", "Outlet")
		}
	}
	return out
}

// SensorValue returns a seeded value for typ, mostly within its normal band
// with an occasional excursion toward or past a threshold.
func SensorValue(typ telemetry.SensorType, seed int) float64 {
	spec, ok := sensorSpecs[typ]
	if !ok {
		return 0
	}
	span := spec.max - spec.min
	mid := spec.min + span/2
	if spec.hasTarget {
		mid = spec.setpoint
	}
	return round(mid+Spread(seed)*span*0.45, 3)
}

func commFor(status telemetry.PlantStatus, r float64) telemetry.CommStatus {
	switch status {
	case telemetry.PlantOffline:
		return telemetry.CommOffline
	case telemetry.PlantWarning:
		if r > 0.7 {
			return telemetry.CommStale
		}
	}
	if r > 0.95 {
		return telemetry.CommStale
	}
	return telemetry.CommOnline
}

func tagPrefix(typ telemetry.SensorType) string {
	switch typ {
	case telemetry.SensorPH:
		return "AIT-PH"
	case telemetry.SensorTurbidity:
		return "AIT-TU"
	case telemetry.SensorChlorine:
		return "AIT-CL"
	case telemetry.SensorFlow:
		return "FIT"
	case telemetry.SensorPressure:
		return "PIT"
	case telemetry.SensorTemperature:
		return "TIT"
	case telemetry.SensorLevel:
		return "LIT"
	default:
		return "AIT"
	}
}

// Alerts derives an alert for every sensor that is out of band or not
// communicating. Status and age are seeded by sensor position so the set is
// stable within the hour.
func Alerts(plants []telemetry.Plant, sensors []telemetry.Sensor, now time.Time) []telemetry.Alert {
	names := make(map[string]string, len(plants))
	for _, p := range plants {
		names[p.ID] = p.Name
	}
	end := HourStart(now)
	var out []telemetry.Alert
	for i, s := range sensors {
		r := Seeded(i*31 + 5)
		severity, threshold, message, ok := alertFor(s, r)
		if !ok {
			continue
		}
		status := telemetry.AlertActive
		switch {
		case r > 0.85:
			status = telemetry.AlertResolved
		case r > 0.6:
			status = telemetry.AlertAcknowledged
		}
		created := end.Add(-time.Duration(int(Seeded(i*31+6)*240)) * time.Minute)
		a := telemetry.Alert{
			ID:         fmt.Sprintf("alert-%s", s.ID),
			PlantID:    s.PlantID,
			PlantName:  names[s.PlantID],
			SensorID:   s.ID,
			SensorName: s.Name,
			Severity:   severity,
			Message:    message,
			Threshold:  threshold,
			Value:      s.Value,
			Unit:       s.Unit,
			Status:     status,
			CreatedAt:  created,
		}
		if status != telemetry.AlertActive {
			ackAt := created.Add(10 * time.Minute)
			a.AcknowledgedAt = &ackAt
			a.AcknowledgedBy = "Shift Operator"
		}
		if status == telemetry.AlertResolved {
			resolvedAt := created.Add(40 * time.Minute)
			a.ResolvedAt = &resolvedAt
			a.ResolvedBy = "Plant Manager"
		}
		out = append(out, a)
	}
	return out
}

func alertFor(s telemetry.Sensor, r float64) (telemetry.Severity, float64, string, bool) {
	high := s.Value > s.MinThreshold+(s.MaxThreshold-s.MinThreshold)/2
	threshold := s.MinThreshold
	direction := "below"
	if high {
		threshold = s.MaxThreshold
		direction = "above"
	}
	switch s.Status {
	case telemetry.SensorCritical:
		sev := telemetry.SeverityHigh
		if r > 0.5 || s.Priority == 1 {
			sev = telemetry.SeverityCritical
		}
		return sev, threshold, fmt.Sprintf("%s %s threshold (%.2f %s)", s.Name, direction, threshold, s.Unit), true
	case telemetry.SensorWarning:
		sev := telemetry.SeverityMedium
		if r < 0.3 {
			sev = telemetry.SeverityLow
		}
		return sev, threshold, fmt.Sprintf("%s approaching %s threshold", s.Name, direction), true
	}
	if s.CommStatus != telemetry.CommOnline {
		return telemetry.SeverityLow, 0, fmt.Sprintf("%s communication %s", s.Name, s.CommStatus), true
	}
	return "", 0, "", false
}
