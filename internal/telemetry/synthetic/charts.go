package synthetic

import (
	"math"
	"time"

	telemetry "plantwatch/internal/telemetry/domain"
)

const (
	dayMultiplier   = 1.5
	nightMultiplier = 0.6
	dayStartHour    = 8
	dayEndHour      = 18

	// health buckets
	issueAbove     = 0.90
	attentionAbove = 0.75
)

// HourlyAlertPoint is the alert count for one hour, split by severity.
type HourlyAlertPoint struct {
	Hour     time.Time `json:"hour"`
	Label    string    `json:"label"`
	Critical int       `json:"critical"`
	High     int       `json:"high"`
	Medium   int       `json:"medium"`
	Low      int       `json:"low"`
	Total    int       `json:"total"`
}

// HourlyAlertData returns 24 points ending with now's hour. Each point is
// seeded by hour-of-day*17 and scaled up during working hours.
func HourlyAlertData(now time.Time) []HourlyAlertPoint {
	end := HourStart(now)
	points := make([]HourlyAlertPoint, 0, 24)
	for i := 23; i >= 0; i-- {
		hour := end.Add(-time.Duration(i) * time.Hour)
		seed := hour.Hour() * 17
		mult := DayNightMultiplier(hour.Hour())
		p := HourlyAlertPoint{
			Hour:     hour,
			Label:    hour.Format("15:04"),
			Critical: scaledCount(seed+1, 2, mult),
			High:     scaledCount(seed+2, 4, mult),
			Medium:   scaledCount(seed+3, 6, mult),
			Low:      scaledCount(seed+4, 8, mult),
		}
		p.Total = p.Critical + p.High + p.Medium + p.Low
		points = append(points, p)
	}
	return points
}

// DayNightMultiplier is 1.5 between 08:00 and 18:00 and 0.6 otherwise.
func DayNightMultiplier(hour int) float64 {
	if hour >= dayStartHour && hour < dayEndHour {
		return dayMultiplier
	}
	return nightMultiplier
}

func scaledCount(seed int, scale, mult float64) int {
	return int(math.Floor(Seeded(seed) * scale * mult))
}

// Parameter describes a charted water-quality parameter.
type Parameter struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Base      float64 `json:"base"`
	Amplitude float64 `json:"amplitude"`
}

// TrendParameters are the series drawn on the trends chart.
var TrendParameters = []Parameter{
	{Key: "ph", Name: "pH", Unit: "pH", Base: 7.2, Amplitude: 0.4},
	{Key: "turbidity", Name: "Turbidity", Unit: "NTU", Base: 0.5, Amplitude: 0.3},
	{Key: "chlorine", Name: "Chlorine", Unit: "mg/L", Base: 1.5, Amplitude: 0.5},
	{Key: "flow", Name: "Flow", Unit: "m³/h", Base: 1200, Amplitude: 250},
}

// TrendPoint holds every parameter value for one hour.
type TrendPoint struct {
	Time   time.Time          `json:"time"`
	Label  string             `json:"label"`
	Values map[string]float64 `json:"values"`
}

// ParameterTrends returns hours points ending with now's hour; hours <= 0
// means 24. Values are seeded by hour-of-day*7 + parameterIndex*13.
func ParameterTrends(now time.Time, hours int) []TrendPoint {
	if hours <= 0 {
		hours = 24
	}
	end := HourStart(now)
	points := make([]TrendPoint, 0, hours)
	for i := hours - 1; i >= 0; i-- {
		at := end.Add(-time.Duration(i) * time.Hour)
		values := make(map[string]float64, len(TrendParameters))
		for pi, param := range TrendParameters {
			seed := at.Hour()*7 + pi*13
			values[param.Key] = round(param.Base+Spread(seed)*param.Amplitude, 2)
		}
		points = append(points, TrendPoint{Time: at, Label: at.Format("15:04"), Values: values})
	}
	return points
}

// HealthStatus buckets a plant parameter.
type HealthStatus string

const (
	HealthGood      HealthStatus = "good"
	HealthAttention HealthStatus = "attention"
	HealthIssue     HealthStatus = "issue"
)

// HealthParameters are the matrix columns. There are six of them, matching
// the plantIndex*6 + parameterIndex seed layout.
var HealthParameters = []string{"ph", "turbidity", "chlorine", "pressure", "flow", "equipment"}

// HealthCell is one plant × parameter grade.
type HealthCell struct {
	Parameter string       `json:"parameter"`
	Score     float64      `json:"score"`
	Status    HealthStatus `json:"status"`
}

// HealthRow is one plant's row.
type HealthRow struct {
	PlantID   string       `json:"plantId"`
	PlantName string       `json:"plantName"`
	Cells     []HealthCell `json:"cells"`
}

// BucketHealth grades a seeded value: above 0.90 is an issue, above 0.75
// needs attention, the rest is good.
func BucketHealth(r float64) HealthStatus {
	switch {
	case r > issueAbove:
		return HealthIssue
	case r > attentionAbove:
		return HealthAttention
	default:
		return HealthGood
	}
}

// PlantHealthMatrix grades every plant against HealthParameters.
func PlantHealthMatrix(plants []telemetry.Plant) []HealthRow {
	rows := make([]HealthRow, 0, len(plants))
	for plantIndex, plant := range plants {
		row := HealthRow{PlantID: plant.ID, PlantName: plant.Name, Cells: make([]HealthCell, 0, len(HealthParameters))}
		for paramIndex, param := range HealthParameters {
			r := Seeded(plantIndex*len(HealthParameters) + paramIndex)
			row.Cells = append(row.Cells, HealthCell{
				Parameter: param,
				Score:     round(r, 4),
				Status:    BucketHealth(r),
			})
		}
		rows = append(rows, row)
	}
	return rows
}

// HealthSummary counts cells per status.
func HealthSummary(rows []HealthRow) map[HealthStatus]int {
	out := map[HealthStatus]int{HealthGood: 0, HealthAttention: 0, HealthIssue: 0}
	for _, row := range rows {
		for _, cell := range row.Cells {
			out[cell.Status]++
		}
	}
	return out
}
