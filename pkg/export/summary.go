package export

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// WriteSummary writes a human-readable summary of a patient report.
func WriteSummary(report Report, path string) error {
	var b strings.Builder

	b.WriteString("PROSTATE CANCER PATIENT SUMMARY REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	b.WriteString("PATIENT INFORMATION:\n")
	fmt.Fprintf(&b, "Name: %s\n", orNA(report.PatientInfo.Name))
	fmt.Fprintf(&b, "Patient ID: %s\n", orNA(report.PatientID))
	if report.PatientInfo.Age > 0 {
		fmt.Fprintf(&b, "Age: %d\n", report.PatientInfo.Age)
	} else {
		b.WriteString("Age: N/A\n")
	}
	fmt.Fprintf(&b, "Report Date: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	data := report.MedicalData

	if len(data.PSAResults) > 0 {
		b.WriteString("PSA RESULTS:\n" + strings.Repeat("-", 20) + "\n")
		for i, psa := range data.PSAResults {
			fmt.Fprintf(&b, "%d. Value: %g %s\n", i+1, psa.Value, psa.Unit)
			fmt.Fprintf(&b, "   Date: %s\n", psa.Date)
			fmt.Fprintf(&b, "   Context: %s...\n\n", truncate(psa.Context, 100))
		}
	} else {
		b.WriteString("PSA RESULTS: No data found\n\n")
	}

	if len(data.GleasonScores) > 0 {
		b.WriteString("GLEASON SCORES:\n" + strings.Repeat("-", 20) + "\n")
		for i, g := range data.GleasonScores {
			fmt.Fprintf(&b, "%d. Score: %d + %d = %d\n", i+1, g.PrimaryGrade, g.SecondaryGrade, g.TotalScore)
			fmt.Fprintf(&b, "   Context: %s...\n\n", truncate(g.Context, 100))
		}
	} else {
		b.WriteString("GLEASON SCORES: No data found\n\n")
	}

	if len(data.CancerStage) > 0 {
		b.WriteString("CANCER STAGING:\n" + strings.Repeat("-", 20) + "\n")
		for i, s := range data.CancerStage {
			fmt.Fprintf(&b, "%d. Stage: %s\n", i+1, s.Stage)
			fmt.Fprintf(&b, "   Context: %s...\n\n", truncate(s.Context, 100))
		}
	} else {
		b.WriteString("CANCER STAGING: No data found\n\n")
	}

	if len(data.Treatments) > 0 {
		b.WriteString("TREATMENT HISTORY:\n" + strings.Repeat("-", 20) + "\n")
		for i, t := range data.Treatments {
			fmt.Fprintf(&b, "%d. Treatment: %s\n", i+1, t.Treatment)
			fmt.Fprintf(&b, "   Context: %s...\n\n", truncate(t.Context, 100))
		}
	} else {
		b.WriteString("TREATMENT HISTORY: No data found\n\n")
	}

	if len(data.BiopsyResults) > 0 {
		b.WriteString("BIOPSY RESULTS:\n" + strings.Repeat("-", 20) + "\n")
		for i, r := range data.BiopsyResults {
			fmt.Fprintf(&b, "%d. Result: %s\n", i+1, r.Result)
			fmt.Fprintf(&b, "   Context: %s...\n\n", truncate(r.Context, 100))
		}
	} else {
		b.WriteString("BIOPSY RESULTS: No data found\n\n")
	}

	if len(data.ImagingResults) > 0 {
		b.WriteString("IMAGING RESULTS:\n" + strings.Repeat("-", 20) + "\n")
		for i, r := range data.ImagingResults {
			fmt.Fprintf(&b, "%d. Type: %s\n", i+1, r.Type)
			fmt.Fprintf(&b, "   Result: %s...\n\n", truncate(r.Result, 100))
		}
	} else {
		b.WriteString("IMAGING RESULTS: No data found\n\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write summary report: %w", err)
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
