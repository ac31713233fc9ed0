// Package extract pulls structured medical data out of retrieved document
// chunks with deterministic pattern matching. Values are reported with the
// surrounding context so a clinician can verify them against the source.
package extract

import (
	"regexp"
	"strings"

	"github.com/oncorag/oncorag/pkg/types"
)

// DataType selects which category of medical data to extract.
type DataType string

// Extraction categories
const (
	DataAll       DataType = "all"
	DataPSA       DataType = "psa"
	DataGleason   DataType = "gleason"
	DataStage     DataType = "stage"
	DataTreatment DataType = "treatment"
	DataBiopsy    DataType = "biopsy"
	DataImaging   DataType = "imaging"
)

// GleasonScore is a Gleason grade pair found in a pathology report.
type GleasonScore struct {
	PrimaryGrade   int    `json:"primary_grade"`
	SecondaryGrade int    `json:"secondary_grade"`
	TotalScore     int    `json:"total_score"`
	Context        string `json:"context"`
}

// StageResult is a cancer staging mention.
type StageResult struct {
	Stage   string `json:"stage"`
	Context string `json:"context"`
}

// Treatment is a treatment mention with its containing sentence.
type Treatment struct {
	Treatment string `json:"treatment"`
	Context   string `json:"context"`
	Source    string `json:"source"`
}

// BiopsyResult is a biopsy finding.
type BiopsyResult struct {
	Result  string `json:"result"`
	Context string `json:"context"`
}

// ImagingResult is an imaging study mention.
type ImagingResult struct {
	Type    string `json:"type"`
	Result  string `json:"result"`
	Context string `json:"context"`
}

// MedicalData aggregates everything extracted from one set of chunks.
type MedicalData struct {
	PSAResults     []PSAResult     `json:"psa_results,omitempty"`
	GleasonScores  []GleasonScore  `json:"gleason_scores,omitempty"`
	CancerStage    []StageResult   `json:"cancer_stage,omitempty"`
	Treatments     []Treatment     `json:"treatments,omitempty"`
	BiopsyResults  []BiopsyResult  `json:"biopsy_results,omitempty"`
	ImagingResults []ImagingResult `json:"imaging_results,omitempty"`
}

// ExtractMedicalData runs the extractors selected by dataType over retrieved
// chunks.
func ExtractMedicalData(chunks []types.ScoredChunk, dataType DataType) MedicalData {
	var data MedicalData

	if dataType == DataPSA || dataType == DataAll {
		data.PSAResults = ExtractPSAValues(chunks)
	}
	if dataType == DataGleason || dataType == DataAll {
		data.GleasonScores = ExtractGleasonScores(chunks)
	}
	if dataType == DataStage || dataType == DataAll {
		data.CancerStage = ExtractCancerStage(chunks)
	}
	if dataType == DataTreatment || dataType == DataAll {
		data.Treatments = ExtractTreatmentHistory(chunks)
	}
	if dataType == DataBiopsy || dataType == DataAll {
		data.BiopsyResults = ExtractBiopsyResults(chunks)
	}
	if dataType == DataImaging || dataType == DataAll {
		data.ImagingResults = ExtractImagingResults(chunks)
	}
	return data
}

var gleasonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Gleason\s*score[:\s]*([0-9]+)\s*\+\s*([0-9]+)`),
	regexp.MustCompile(`(?i)Gleason\s*([0-9]+)\s*\+\s*([0-9]+)`),
	regexp.MustCompile(`(?i)Grade\s*([0-9]+)\s*\+\s*([0-9]+)`),
	regexp.MustCompile(`(?i)([0-9]+)\s*\+\s*([0-9]+)\s*Gleason`),
}

// ExtractGleasonScores finds Gleason grade pairs such as "Gleason score 3+4".
func ExtractGleasonScores(chunks []types.ScoredChunk) []GleasonScore {
	var scores []GleasonScore
	for i := range chunks {
		text := flatten(chunks[i].Chunk.Text)
		for _, pattern := range gleasonPatterns {
			for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
				primary, ok1 := atoiSafe(text[m[2]:m[3]])
				secondary, ok2 := atoiSafe(text[m[4]:m[5]])
				if !ok1 || !ok2 {
					continue
				}
				scores = append(scores, GleasonScore{
					PrimaryGrade:   primary,
					SecondaryGrade: secondary,
					TotalScore:     primary + secondary,
					Context:        window(text, m[0], m[1], 100),
				})
			}
		}
	}
	return scores
}

var stagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Stage\s*([I1-4]+[ABC]?)`),
	regexp.MustCompile(`(?i)T([0-4][ABC]?)\s*N([0-3])\s*M([0-1])`),
	regexp.MustCompile(`(?i)TNM\s*([0-4][ABC]?)\s*([0-3])\s*([0-1])`),
	regexp.MustCompile(`(?i)Clinical\s*stage[:\s]*([I1-4]+[ABC]?)`),
}

// ExtractCancerStage finds staging mentions, both named stages and TNM
// notation.
func ExtractCancerStage(chunks []types.ScoredChunk) []StageResult {
	var stages []StageResult
	for i := range chunks {
		text := flatten(chunks[i].Chunk.Text)
		for _, pattern := range stagePatterns {
			for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
				stages = append(stages, StageResult{
					Stage:   text[m[2]:m[3]],
					Context: window(text, m[0], m[1], 100),
				})
			}
		}
	}
	return stages
}

var treatmentKeywords = []string{
	"surgery", "prostatectomy", "radiation", "chemotherapy", "hormone therapy",
	"androgen deprivation", "brachytherapy", "cryotherapy", "immunotherapy",
}

// ExtractTreatmentHistory finds treatment mentions and reports the sentence
// containing each one.
func ExtractTreatmentHistory(chunks []types.ScoredChunk) []Treatment {
	var treatments []Treatment
	for i := range chunks {
		text := flatten(chunks[i].Chunk.Text)
		lower := strings.ToLower(text)
		for _, keyword := range treatmentKeywords {
			if !strings.Contains(lower, keyword) {
				continue
			}
			if sentence, ok := sentenceContaining(text, keyword); ok {
				treatments = append(treatments, Treatment{
					Treatment: titleCase(keyword),
					Context:   sentence,
					Source:    chunks[i].Chunk.Source,
				})
			}
		}
	}
	return treatments
}

var biopsyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)biopsy[:\s]*([^.]*)`),
	regexp.MustCompile(`(?i)needle\s*biopsy[:\s]*([^.]*)`),
	regexp.MustCompile(`(?i)core\s*biopsy[:\s]*([^.]*)`),
}

// ExtractBiopsyResults finds biopsy findings.
func ExtractBiopsyResults(chunks []types.ScoredChunk) []BiopsyResult {
	var results []BiopsyResult
	for i := range chunks {
		text := flatten(chunks[i].Chunk.Text)
		for _, pattern := range biopsyPatterns {
			for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
				results = append(results, BiopsyResult{
					Result:  strings.TrimSpace(text[m[2]:m[3]]),
					Context: window(text, m[0], m[1], 100),
				})
			}
		}
	}
	return results
}

var imagingKeywords = []string{"MRI", "CT", "PET", "ultrasound", "bone scan", "imaging"}

// ExtractImagingResults finds imaging study mentions.
func ExtractImagingResults(chunks []types.ScoredChunk) []ImagingResult {
	var results []ImagingResult
	for i := range chunks {
		text := flatten(chunks[i].Chunk.Text)
		lower := strings.ToLower(text)
		for _, keyword := range imagingKeywords {
			if !strings.Contains(lower, strings.ToLower(keyword)) {
				continue
			}
			if sentence, ok := sentenceContaining(text, strings.ToLower(keyword)); ok {
				results = append(results, ImagingResult{
					Type:    strings.ToUpper(keyword),
					Result:  sentence,
					Context: sentence,
				})
			}
		}
	}
	return results
}

func flatten(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}

// window returns the text around a match, clamped to the text bounds.
func window(text string, start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	return strings.TrimSpace(text[lo:hi])
}

// sentenceContaining returns the first period-delimited sentence mentioning
// the keyword.
func sentenceContaining(text, keyword string) (string, bool) {
	for _, sentence := range strings.Split(text, ".") {
		if strings.Contains(strings.ToLower(sentence), keyword) {
			return strings.TrimSpace(sentence), true
		}
	}
	return "", false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func atoiSafe(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
