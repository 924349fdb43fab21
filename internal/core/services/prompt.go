package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// FallbackPhrase is what the model is told to answer when the context does
// not contain the answer.
const FallbackPhrase = "I couldn't find this in the document"

const promptTemplate = `You are a document-based AI assistant.

You must answer ONLY using the provided document context.
Do not use outside knowledge.
Do not invent information.
Do not invent page numbers.

If the user requests a summary:
- Identify the main topics and key points.
- Write a clear and concise structured summary.
- Preserve the original meaning.
- Cite page numbers when they are explicitly available in the document.

If the user asks a question:
- Answer directly and concisely.
- If the answer is not clearly stated in the document, say:
"%s"
- If the document provides partial information, give the closest relevant information and state that it is partial.
- Cite page numbers when available in the document using format: (Page X)

---------------------
DOCUMENT CONTEXT:
%s
---------------------

Question:
%s

Answer:
`

// FormatContext renders passages as "[Page N] text" blocks separated by blank lines.
func FormatContext(passages []domain.Passage) string {
	blocks := make([]string, len(passages))
	for i, p := range passages {
		blocks[i] = fmt.Sprintf("[Page %d] %s", p.Page, p.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// BuildPrompt wraps the retrieved context and the question in the fixed
// instruction template.
func BuildPrompt(question string, passages []domain.Passage) string {
	return fmt.Sprintf(promptTemplate, FallbackPhrase, FormatContext(passages), strings.TrimSpace(question))
}
