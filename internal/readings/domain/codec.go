package readings

import (
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayout is the text form used in persisted journals.
const timestampLayout = time.RFC3339Nano

// Journal is the persisted envelope.
type Journal struct {
	Readings []Reading
}

type storedJournal struct {
	Readings []storedReading `json:"readings"`
}

type storedReading struct {
	ID        string  `json:"id"`
	SensorID  string  `json:"sensorId"`
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"`
	Notes     string  `json:"notes,omitempty"`
	EnteredBy string  `json:"enteredBy"`
	Source    string  `json:"source"`
}

// EncodeJournal serializes readings with timestamps as text.
func EncodeJournal(list []Reading) ([]byte, error) {
	out := storedJournal{Readings: make([]storedReading, 0, len(list))}
	for _, r := range list {
		out.Readings = append(out.Readings, storedReading{
			ID:        r.ID,
			SensorID:  r.SensorID,
			Value:     r.Value,
			Timestamp: r.Timestamp.UTC().Format(timestampLayout),
			Notes:     r.Notes,
			EnteredBy: r.EnteredBy,
			Source:    r.Source,
		})
	}
	return json.Marshal(out)
}

// DecodeJournal parses a persisted journal, turning every timestamp back into
// a time.Time. Any unparseable timestamp fails the whole journal.
func DecodeJournal(data []byte) (Journal, error) {
	var in storedJournal
	if err := json.Unmarshal(data, &in); err != nil {
		return Journal{}, err
	}
	list := make([]Reading, 0, len(in.Readings))
	for idx, r := range in.Readings {
		ts, err := time.Parse(timestampLayout, r.Timestamp)
		if err != nil {
			return Journal{}, fmt.Errorf("reading %d (%s): timestamp: %w", idx, r.ID, err)
		}
		if r.ID == "" {
			return Journal{}, fmt.Errorf("reading %d: empty id", idx)
		}
		list = append(list, Reading{
			ID:        r.ID,
			SensorID:  r.SensorID,
			Value:     r.Value,
			Timestamp: ts.UTC(),
			Notes:     r.Notes,
			EnteredBy: r.EnteredBy,
			Source:    r.Source,
		})
	}
	return Journal{Readings: list}, nil
}
