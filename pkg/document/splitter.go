package document

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oncorag/oncorag/pkg/types"
)

// DefaultSeparators orders split boundaries from most to least natural:
// paragraph breaks, line breaks, word breaks, then hard character cuts.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplitter splits text into chunks of at most ChunkSize characters,
// preferring natural boundaries and overlapping consecutive chunks by
// ChunkOverlap characters to preserve context across boundaries.
type RecursiveSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewRecursiveSplitter creates a splitter with the given size and overlap.
func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &RecursiveSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   DefaultSeparators,
	}
}

// SplitText splits a single text into bounded chunks.
func (s *RecursiveSplitter) SplitText(text string) []string {
	if text == "" {
		return nil
	}
	return s.split(text, s.Separators)
}

// SplitDocuments splits documents into chunks carrying the source metadata
// the vector store and the extractors rely on.
func (s *RecursiveSplitter) SplitDocuments(docs []types.Document) []types.Chunk {
	now := time.Now()

	var chunks []types.Chunk
	for _, doc := range docs {
		for _, text := range s.SplitText(doc.Content) {
			chunks = append(chunks, types.Chunk{
				ID:         uuid.NewString(),
				DocumentID: doc.ID,
				PatientID:  doc.PatientID,
				Source:     doc.Source,
				Page:       doc.Page,
				Text:       text,
				Metadata:   doc.Metadata,
				CreatedAt:  now,
			})
		}
	}
	return chunks
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	if len(text) <= s.ChunkSize {
		return []string{text}
	}

	// Pick the first separator that occurs in the text. The empty separator
	// always matches and forces a hard cut.
	sep := ""
	rest := []string{}
	for i, candidate := range separators {
		if candidate == "" {
			sep = ""
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return s.hardCut(text)
	}

	var final []string
	var pending []string
	for _, piece := range strings.Split(text, sep) {
		if len(piece) <= s.ChunkSize {
			pending = append(pending, piece)
			continue
		}
		// Oversized piece: flush what we have and recurse with finer
		// separators.
		final = append(final, s.merge(pending, sep)...)
		pending = nil
		final = append(final, s.split(piece, rest)...)
	}
	final = append(final, s.merge(pending, sep)...)

	return final
}

// merge greedily joins small splits into chunks of at most ChunkSize,
// carrying ChunkOverlap characters of trailing context into the next chunk.
func (s *RecursiveSplitter) merge(splits []string, sep string) []string {
	var chunks []string
	var window []string
	total := 0

	flush := func() {
		if len(window) == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(window, sep))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range splits {
		pieceLen := len(piece) + len(sep)
		if total+pieceLen > s.ChunkSize && len(window) > 0 {
			flush()
			// Slide the window forward until the retained tail fits in the
			// overlap budget and leaves room for the incoming piece.
			for len(window) > 0 && (total > s.ChunkOverlap || total+pieceLen > s.ChunkSize) {
				total -= len(window[0]) + len(sep)
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += pieceLen
	}
	flush()

	return chunks
}

// hardCut slices text into ChunkSize spans stepping by ChunkSize-ChunkOverlap.
// It steps by runes so multi-byte sequences are never cut mid-character.
func (s *RecursiveSplitter) hardCut(text string) []string {
	step := s.ChunkSize - s.ChunkOverlap
	if step <= 0 {
		step = s.ChunkSize
	}

	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
