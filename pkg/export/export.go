// Package export writes extracted medical data to JSON, CSV and Parquet
// files, plus a human-readable summary, for downstream analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/oncorag/oncorag/pkg/extract"
	"github.com/oncorag/oncorag/pkg/patient"
)

// exportVersion is stamped into every JSON report.
const exportVersion = "1.0"

// Report is a full patient export: identity plus everything extracted from
// their documents.
type Report struct {
	PatientID       string              `json:"patient_id"`
	PatientInfo     patient.Summary     `json:"patient_info"`
	MedicalData     extract.MedicalData `json:"extracted_medical_data"`
	ExportTimestamp time.Time           `json:"export_timestamp"`
	ExportVersion   string              `json:"export_version"`
}

// Result lists the files produced by a comprehensive export.
type Result struct {
	JSONReport    string   `json:"json_report"`
	SummaryReport string   `json:"summary_report"`
	CSVFiles      []string `json:"csv_files,omitempty"`
	ParquetFiles  []string `json:"parquet_files,omitempty"`
}

// WriteJSON writes the full report as indented JSON.
func WriteJSON(report Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}

// WritePSACSV writes PSA readings as CSV, one row per reading.
func WritePSACSV(readings []extract.PSAResult, path string) error {
	if len(readings) == 0 {
		return nil
	}
	return writeCSV(path, []string{"value", "unit", "date", "context", "source"}, func(w *csv.Writer) error {
		for _, r := range readings {
			row := []string{
				strconv.FormatFloat(r.Value, 'f', -1, 64),
				r.Unit, r.Date, r.Context, r.Source,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteGleasonCSV writes Gleason scores as CSV.
func WriteGleasonCSV(scores []extract.GleasonScore, path string) error {
	if len(scores) == 0 {
		return nil
	}
	return writeCSV(path, []string{"primary_grade", "secondary_grade", "total_score", "context"}, func(w *csv.Writer) error {
		for _, s := range scores {
			row := []string{
				strconv.Itoa(s.PrimaryGrade),
				strconv.Itoa(s.SecondaryGrade),
				strconv.Itoa(s.TotalScore),
				s.Context,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteTreatmentsCSV writes treatment mentions as CSV.
func WriteTreatmentsCSV(treatments []extract.Treatment, path string) error {
	if len(treatments) == 0 {
		return nil
	}
	return writeCSV(path, []string{"treatment", "context", "source"}, func(w *csv.Writer) error {
		for _, t := range treatments {
			if err := w.Write([]string{t.Treatment, t.Context, t.Source}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, header []string, writeRows func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(w); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	w.Flush()
	return w.Error()
}

// psaRow is the Parquet schema for a PSA time series.
type psaRow struct {
	PatientID string  `parquet:"patient_id"`
	Value     float64 `parquet:"value"`
	Unit      string  `parquet:"unit"`
	Date      string  `parquet:"date"`
	Source    string  `parquet:"source"`
}

// WritePSAParquet writes PSA readings as a Parquet file for analytical
// tooling.
func WritePSAParquet(patientID string, readings []extract.PSAResult, path string) error {
	if len(readings) == 0 {
		return nil
	}
	rows := make([]psaRow, len(readings))
	for i, r := range readings {
		rows[i] = psaRow{
			PatientID: patientID,
			Value:     r.Value,
			Unit:      r.Unit,
			Date:      r.Date,
			Source:    r.Source,
		}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write parquet file: %w", err)
	}
	return nil
}

// WriteComprehensiveReport writes the JSON report, per-category CSV files, a
// PSA Parquet series and a human-readable summary under outputDir.
func WriteComprehensiveReport(report Report, outputDir string) (Result, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create export dir: %w", err)
	}

	patientID := report.PatientID
	if patientID == "" {
		patientID = "unknown"
	}
	timestamp := time.Now().Format("20060102_150405")
	name := func(kind, ext string) string {
		return filepath.Join(outputDir, fmt.Sprintf("%s_%s_%s.%s", patientID, kind, timestamp, ext))
	}

	result := Result{
		JSONReport:    name("comprehensive_report", "json"),
		SummaryReport: name("summary", "txt"),
	}
	if err := WriteJSON(report, result.JSONReport); err != nil {
		return Result{}, err
	}

	data := report.MedicalData
	if len(data.PSAResults) > 0 {
		path := name("psa_results", "csv")
		if err := WritePSACSV(data.PSAResults, path); err != nil {
			return Result{}, err
		}
		result.CSVFiles = append(result.CSVFiles, path)

		parquetPath := name("psa_results", "parquet")
		if err := WritePSAParquet(patientID, data.PSAResults, parquetPath); err != nil {
			return Result{}, err
		}
		result.ParquetFiles = append(result.ParquetFiles, parquetPath)
	}
	if len(data.GleasonScores) > 0 {
		path := name("gleason_scores", "csv")
		if err := WriteGleasonCSV(data.GleasonScores, path); err != nil {
			return Result{}, err
		}
		result.CSVFiles = append(result.CSVFiles, path)
	}
	if len(data.Treatments) > 0 {
		path := name("treatments", "csv")
		if err := WriteTreatmentsCSV(data.Treatments, path); err != nil {
			return Result{}, err
		}
		result.CSVFiles = append(result.CSVFiles, path)
	}

	if err := WriteSummary(report, result.SummaryReport); err != nil {
		return Result{}, err
	}
	return result, nil
}
