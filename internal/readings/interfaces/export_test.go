package interfaces

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	readings "plantwatch/internal/readings/domain"
)

func sampleReadings() []readings.Reading {
	at := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	return []readings.Reading{
		{ID: "r2", SensorID: "plant-001-ph", Value: 7.05, Timestamp: at.Add(time.Hour), EnteredBy: "Ana", Source: readings.SourceManual, Notes: "grab sample"},
		{ID: "r1", SensorID: "plant-001-chlorine", Value: 1.2, Timestamp: at, EnteredBy: "Ana", Source: readings.SourceManual},
	}
}

func TestBuildReadingsXLSX(t *testing.T) {
	label := func(id string) string {
		if id == "plant-001-ph" {
			return "pH Inlet"
		}
		return ""
	}
	data, err := BuildReadingsXLSX(sampleReadings(), label, time.Now())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("readings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Sensor", rows[0][3])
	assert.Equal(t, "r2", rows[1][0])
	assert.Equal(t, "pH Inlet", rows[1][3])
	assert.Equal(t, "plant-001-chlorine", rows[2][3])
}

func TestBuildReadingsPDF(t *testing.T) {
	data, err := BuildReadingsPDF(sampleReadings(), nil, time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
