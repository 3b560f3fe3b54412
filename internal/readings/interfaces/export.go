package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	readings "plantwatch/internal/readings/domain"
)

// SensorLabel resolves a sensor id to a display name. Unknown ids return "".
type SensorLabel func(sensorID string) string

// BuildReadingsPDF renders a minimal PDF journal.
func BuildReadingsPDF(list []readings.Reading, label SensorLabel, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Manual Sensor Readings")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Readings: %d", len(list)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Timestamp", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, "Sensor", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Value", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Entered By", "1", 0, "C", false, 0, "")
	pdf.CellFormat(85, 6, "Notes", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, r := range list {
		pdf.CellFormat(45, 6, r.Timestamp.UTC().Format("2006-01-02 15:04:05"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 6, sensorName(label, r.SensorID), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.3f", r.Value), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, r.EnteredBy, "1", 0, "L", false, 0, "")
		pdf.CellFormat(85, 6, r.Notes, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReadingsXLSX renders the journal as a workbook with one row per reading.
func BuildReadingsXLSX(list []readings.Reading, label SensorLabel, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "readings"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Timestamp", "Sensor ID", "Sensor", "Value", "Entered By", "Source", "Notes"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, r := range list {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.ID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.Timestamp.UTC().Format(time.RFC3339))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.SensorID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), sensorName(label, r.SensorID))
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.Value)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), r.EnteredBy)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), r.Source)
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), r.Notes)
	}
	_ = f.SetDocProps(&excelize.DocProperties{
		Title:   "Manual Sensor Readings",
		Created: generatedAt.UTC().Format(time.RFC3339),
	})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sensorName(label SensorLabel, sensorID string) string {
	if label == nil {
		return sensorID
	}
	if name := label(sensorID); name != "" {
		return name
	}
	return sensorID
}
