package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/oncorag/oncorag/pkg/types"
)

// maxPlausiblePSA filters out values that are almost certainly parse
// artifacts rather than real serum PSA readings.
const maxPlausiblePSA = 50.0

// PSAResult is a single PSA reading with the date it was associated with.
type PSAResult struct {
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Date    string  `json:"date"`
	Context string  `json:"context"`
	Source  string  `json:"source"`
}

// UnknownDate marks a PSA reading with no date found near it.
const UnknownDate = "Unknown date"

// psaPatterns are ordered most specific first; lab reports format the assay
// name many different ways.
var psaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)PROSTATE\s*SPECIFIC\s*ANTIGEN\s*-\s*PSA\s*\([HL]\)\s*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`),
	regexp.MustCompile(`(?i)PROSTATE\s*SPECIFIC\s*ANTIGEN[^0-9]*\([^)]*\)\s*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`),
	regexp.MustCompile(`(?i)PROSTATE\s*SPECIFIC\s*ANTIGEN[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`),
	regexp.MustCompile(`(?i)PSA\s*\([HL]\)\s*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`),
	regexp.MustCompile(`(?i)-PSA\s*\([^)]*\)\s*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`),
	regexp.MustCompile(`(?i)-TOTAL\s*\(PSA\)\s*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`),
	regexp.MustCompile(`(?i)PSA\s*\([^)]*\)\s*Result\s*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`),
	regexp.MustCompile(`(?i)PSA[,\s]*TOTAL[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`),
	regexp.MustCompile(`(?i)ng/mL\s*([0-9]+(?:\.[0-9]+)?)\s*(?:Note|$)`),
	regexp.MustCompile(`(?i)Result\s*[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`),
	regexp.MustCompile(`(?i)PSA[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*ng/mL`),
	regexp.MustCompile(`(?i)(?:PSA|Prostate\s*Specific\s*Antigen)[:\s=]*([0-9]+(?:\.[0-9]+)?)\s*(?:ng/mL|ng/ml)?`),
	regexp.MustCompile(`(?i)PSA\s*([0-9]+(?:\.[0-9]+)?)\s*(?:ng/mL|ng/ml)?`),
	regexp.MustCompile(`(?i)Prostate\s*Specific\s*Antigen\s*([0-9]+(?:\.[0-9]+)?)\s*(?:ng/mL|ng/ml)?`),
}

// datePatterns are ordered most specific first. Month-name forms beat
// numeric forms so "Nov 12, 2023" is not parsed as a bare year.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4})`),
	regexp.MustCompile(`(?i)(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4})`),
	regexp.MustCompile(`(?i)((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4})`),
	regexp.MustCompile(`(?i)Collection\s+Date[:\s]*(\d{1,2}[/-]\d{1,2}[/-]\d{4})`),
	regexp.MustCompile(`(?i)Report\s+Date[:\s]*(\d{1,2}[/-]\d{1,2}[/-]\d{4})`),
	regexp.MustCompile(`(?i)Received\s+On\s+(\d{1,2}[/-]\d{1,2}[/-]\d{4})`),
	regexp.MustCompile(`(?i)Reported\s+On\s+(\d{1,2}[/-]\d{1,2}[/-]\d{4})`),
	regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{4})`),
	regexp.MustCompile(`(\d{4}[/-]\d{1,2}[/-]\d{1,2})`),
	regexp.MustCompile(`(\d{1,2}/\d{4})`),
	regexp.MustCompile(`(\d{4}-\d{2})`),
	regexp.MustCompile(`(?i)(\d{1,2}\s+of\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4})`),
	regexp.MustCompile(`(?i)((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2}\s+\d{4})`),
	regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2})`),
	regexp.MustCompile(`(\d{4})`),
}

// ExtractPSAValues finds PSA readings in retrieved chunks. Each value is
// associated with the nearest date, deduplicated and sorted chronologically
// (oldest first).
func ExtractPSAValues(chunks []types.ScoredChunk) []PSAResult {
	var readings []PSAResult

	for i := range chunks {
		text := flatten(chunks[i].Chunk.Text)
		for _, pattern := range psaPatterns {
			for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
				if m[2] < 0 {
					continue
				}
				value, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
				if err != nil || value > maxPlausiblePSA {
					continue
				}

				readings = append(readings, PSAResult{
					Value:   value,
					Unit:    "ng/mL",
					Date:    findNearbyDate(text, m[0], m[1]),
					Context: window(text, m[0], m[1], 150),
					Source:  chunks[i].Chunk.Source,
				})
			}
		}
	}

	readings = dedupePSA(readings)
	sort.SliceStable(readings, func(i, j int) bool {
		return parseDateKey(readings[i].Date).before(parseDateKey(readings[j].Date))
	})
	return readings
}

// LatestPSA returns the most recent PSA reading, if any were found.
func LatestPSA(chunks []types.ScoredChunk) (PSAResult, bool) {
	readings := ExtractPSAValues(chunks)
	if len(readings) == 0 {
		return PSAResult{}, false
	}
	return readings[len(readings)-1], true
}

// findNearbyDate looks for a date within 500 characters of the value, then
// falls back to the whole document.
func findNearbyDate(text string, start, end int) string {
	lo := start - 500
	if lo < 0 {
		lo = 0
	}
	hi := end + 500
	if hi > len(text) {
		hi = len(text)
	}

	for _, scope := range []string{text[lo:hi], text} {
		for _, pattern := range datePatterns {
			if m := pattern.FindStringSubmatch(scope); m != nil {
				return m[1]
			}
		}
	}
	return UnknownDate
}

// dedupePSA drops readings matched by more than one pattern or repeated
// across overlapping chunks.
func dedupePSA(readings []PSAResult) []PSAResult {
	type key struct {
		value   float64
		date    string
		context string
		source  string
	}

	seen := make(map[key]struct{}, len(readings))
	unique := readings[:0]
	for _, r := range readings {
		contextKey := r.Context
		if len(contextKey) > 100 {
			contextKey = contextKey[:100]
		}
		k := key{r.Value, r.Date, strings.TrimSpace(contextKey), r.Source}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}
