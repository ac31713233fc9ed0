package qa

import (
	"fmt"
	"strings"

	"github.com/oncorag/oncorag/pkg/llm"
	"github.com/oncorag/oncorag/pkg/types"
)

const systemPrompt = `You are a clinical assistant answering questions about a patient's medical documents.
Answer using only the provided document excerpts. If the excerpts do not contain the answer, say so plainly.
Quote values (lab results, dates, staging) exactly as they appear in the documents.`

const jsonInstruction = `Respond with valid JSON only, no prose before or after the JSON object.`

// buildMessages assembles the stuffed prompt: system instructions, the
// retrieved excerpts, then the question.
func buildMessages(question string, chunks []types.ScoredChunk, wantJSON bool) []types.Message {
	var ctx strings.Builder
	for i, sc := range chunks {
		fmt.Fprintf(&ctx, "[Excerpt %d] (source: %s, page %d)\n%s\n\n",
			i+1, sc.Chunk.Source, sc.Chunk.Page, sc.Chunk.Text)
	}

	user := fmt.Sprintf("Document excerpts:\n\n%sQuestion: %s", ctx.String(), question)
	if wantJSON {
		user += "\n\n" + jsonInstruction
	}

	return []types.Message{
		llm.NewSystemMessage(systemPrompt),
		llm.NewUserMessage(user),
	}
}
