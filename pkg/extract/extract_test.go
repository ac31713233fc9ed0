package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncorag/oncorag/pkg/types"
)

func chunk(source, text string) types.ScoredChunk {
	return types.ScoredChunk{
		Chunk: types.Chunk{
			ID:        "c1",
			PatientID: "p1",
			Source:    source,
			Text:      text,
		},
		Score: 0.9,
	}
}

func TestExtractPSAValues(t *testing.T) {
	chunks := []types.ScoredChunk{
		chunk("labs.pdf", "Collection Date: 12/03/2023 PROSTATE SPECIFIC ANTIGEN - PSA (H)6.04 ng/mL"),
	}

	results := ExtractPSAValues(chunks)
	require.NotEmpty(t, results)
	assert.Equal(t, 6.04, results[0].Value)
	assert.Equal(t, "ng/mL", results[0].Unit)
	assert.Equal(t, "12/03/2023", results[0].Date)
	assert.Equal(t, "labs.pdf", results[0].Source)
	assert.Contains(t, results[0].Context, "PROSTATE SPECIFIC ANTIGEN")
}

func TestExtractPSAValuesFormats(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"serum parenthetical", "-PSA (Serum) 0.02 ng/mL observed", 0.02},
		{"total psa", "-TOTAL (PSA) 0.02 ng/mL", 0.02},
		{"result line", "PSA (Serum) Result 0.01 ng/mL", 0.01},
		{"h flag", "PSA (H)0.15 ng/mL", 0.15},
		{"plain", "PSA: 4.5 ng/mL", 4.5},
		{"long form", "Prostate Specific Antigen 11.2 ng/mL", 11.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := ExtractPSAValues([]types.ScoredChunk{chunk("r.pdf", tt.text)})
			require.NotEmpty(t, results)
			assert.Equal(t, tt.want, results[0].Value)
		})
	}
}

func TestExtractPSAValuesFiltersImplausible(t *testing.T) {
	results := ExtractPSAValues([]types.ScoredChunk{
		chunk("labs.pdf", "PSA 900.0 ng/mL is a transcription error"),
	})
	assert.Empty(t, results)
}

func TestExtractPSAValuesDedupes(t *testing.T) {
	// the same value in identical context must appear once even though
	// several patterns match it
	chunks := []types.ScoredChunk{
		chunk("labs.pdf", "PSA (H)6.04 ng/mL on 12/03/2023"),
		chunk("labs.pdf", "PSA (H)6.04 ng/mL on 12/03/2023"),
	}
	results := ExtractPSAValues(chunks)
	assert.Len(t, results, 1)
}

func TestExtractPSAValuesChronologicalOrder(t *testing.T) {
	chunks := []types.ScoredChunk{
		chunk("labs-2024.pdf", "Collection Date: 05/01/2024 PSA 8.1 ng/mL"),
		chunk("labs-2021.pdf", "Collection Date: 05/01/2021 PSA 2.3 ng/mL"),
		chunk("labs-2023.pdf", "Collection Date: 05/01/2023 PSA 6.0 ng/mL"),
	}

	results := ExtractPSAValues(chunks)
	require.Len(t, results, 3)
	assert.Equal(t, 2.3, results[0].Value)
	assert.Equal(t, 6.0, results[1].Value)
	assert.Equal(t, 8.1, results[2].Value)

	latest, ok := LatestPSA(chunks)
	require.True(t, ok)
	assert.Equal(t, 8.1, latest.Value)
}

func TestExtractPSAValuesUnknownDate(t *testing.T) {
	results := ExtractPSAValues([]types.ScoredChunk{chunk("r.pdf", "PSA 4.5 ng/mL")})
	require.NotEmpty(t, results)
	assert.Equal(t, UnknownDate, results[0].Date)
}

func TestExtractGleasonScores(t *testing.T) {
	chunks := []types.ScoredChunk{
		chunk("biopsy.pdf", "Pathology shows Gleason score 3 + 4 adenocarcinoma."),
	}

	scores := ExtractGleasonScores(chunks)
	require.NotEmpty(t, scores)
	assert.Equal(t, 3, scores[0].PrimaryGrade)
	assert.Equal(t, 4, scores[0].SecondaryGrade)
	assert.Equal(t, 7, scores[0].TotalScore)
	assert.Contains(t, scores[0].Context, "Gleason")
}

func TestExtractCancerStage(t *testing.T) {
	chunks := []types.ScoredChunk{
		chunk("report.pdf", "Clinical stage: T2c with no nodal involvement. Stage II disease."),
	}

	stages := ExtractCancerStage(chunks)
	require.NotEmpty(t, stages)
	found := false
	for _, s := range stages {
		if s.Stage == "II" {
			found = true
		}
	}
	assert.True(t, found, "expected Stage II to be extracted, got %+v", stages)
}

func TestExtractTreatmentHistory(t *testing.T) {
	chunks := []types.ScoredChunk{
		chunk("summary.pdf", "Patient underwent radical prostatectomy in 2021. Radiation therapy followed in 2022."),
	}

	treatments := ExtractTreatmentHistory(chunks)
	require.NotEmpty(t, treatments)

	names := make([]string, 0, len(treatments))
	for _, tr := range treatments {
		names = append(names, tr.Treatment)
		assert.Equal(t, "summary.pdf", tr.Source)
	}
	assert.Contains(t, names, "Prostatectomy")
	assert.Contains(t, names, "Radiation")
}

func TestExtractBiopsyResults(t *testing.T) {
	chunks := []types.ScoredChunk{
		chunk("path.pdf", "Core biopsy: adenocarcinoma in 4 of 12 cores."),
	}

	results := ExtractBiopsyResults(chunks)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Result, "adenocarcinoma")
}

func TestExtractImagingResults(t *testing.T) {
	chunks := []types.ScoredChunk{
		chunk("imaging.pdf", "MRI of the pelvis shows no extracapsular extension. Bone scan negative."),
	}

	results := ExtractImagingResults(chunks)
	require.NotEmpty(t, results)

	imagingTypes := make([]string, 0, len(results))
	for _, r := range results {
		imagingTypes = append(imagingTypes, r.Type)
	}
	assert.Contains(t, imagingTypes, "MRI")
	assert.Contains(t, imagingTypes, "BONE SCAN")
}

func TestExtractMedicalDataAll(t *testing.T) {
	chunks := []types.ScoredChunk{
		chunk("full.pdf", "Collection Date: 12/03/2023 PSA 6.04 ng/mL. Gleason score 3+4. Stage 2B disease. Patient to undergo radiation. Core biopsy: positive. MRI pending."),
	}

	data := ExtractMedicalData(chunks, DataAll)
	assert.NotEmpty(t, data.PSAResults)
	assert.NotEmpty(t, data.GleasonScores)
	assert.NotEmpty(t, data.CancerStage)
	assert.NotEmpty(t, data.Treatments)
	assert.NotEmpty(t, data.BiopsyResults)
	assert.NotEmpty(t, data.ImagingResults)

	psaOnly := ExtractMedicalData(chunks, DataPSA)
	assert.NotEmpty(t, psaOnly.PSAResults)
	assert.Empty(t, psaOnly.GleasonScores)
}

func TestParseDateKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  dateKey
	}{
		{"month day year", "Nov 12, 2023", dateKey{2023, 11, 12}},
		{"day month year", "12 Nov 2023", dateKey{2023, 11, 12}},
		{"month year", "Oct 2022", dateKey{2022, 10, 1}},
		{"unambiguous day first", "25/04/2023", dateKey{2023, 4, 25}},
		{"unambiguous month first", "04/25/2023", dateKey{2023, 4, 25}},
		{"ambiguous reads day first", "05/04/2023", dateKey{2023, 4, 5}},
		{"iso", "2023/04/25", dateKey{2023, 4, 25}},
		{"year month", "2023-04", dateKey{2023, 4, 1}},
		{"month slash year", "04/2023", dateKey{2023, 4, 1}},
		{"year only", "2023", dateKey{2023, 1, 1}},
		{"unknown", UnknownDate, dateKey{1900, 1, 1}},
		{"garbage", "soon", dateKey{1900, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDateKey(tt.input))
		})
	}
}

func TestDateKeyOrdering(t *testing.T) {
	early := parseDateKey("Jan 5, 2020")
	late := parseDateKey("Feb 5, 2020")
	assert.True(t, early.before(late))
	assert.False(t, late.before(early))
	assert.True(t, parseDateKey(UnknownDate).before(early))
}
