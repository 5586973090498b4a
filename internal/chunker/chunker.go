package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"document-analyzer/internal/domain"
)

// EstimateTokens approximates the token cost of text as one token per
// four characters, rounded up. Cheap and provider-agnostic; the budget
// check only needs a consistent overestimate-resistant measure.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// Chunker packs normalized units into size-bounded chunks. Packing is
// greedy and order-preserving: units stay whole unless a single unit
// alone exceeds the budget, in which case it is split at sentence or
// line boundaries.
type Chunker struct {
	budgetTokens int
	logger       domain.Logger
}

// NewChunker creates a chunker with the given per-chunk token budget.
func NewChunker(budgetTokens int, logger domain.Logger) *Chunker {
	return &Chunker{budgetTokens: budgetTokens, logger: logger}
}

// Chunk builds the ordered chunk sequence for a normalized document.
// Empty units are skipped; their ordinals simply never appear in any
// chunk. Chunk IDs are deterministic so an unchanged document re-chunks
// identically.
func (c *Chunker) Chunk(doc *domain.NormalizedDocument) []domain.Chunk {
	var chunks []domain.Chunk

	var curText []string
	var curOrdinals []int
	curTokens := 0

	flush := func() {
		if len(curText) == 0 {
			return
		}
		text := strings.Join(curText, "\n\n")
		chunks = append(chunks, domain.Chunk{
			ID:           chunkID(doc.DocumentID, len(chunks)),
			Seq:          len(chunks),
			UnitOrdinals: append([]int(nil), curOrdinals...),
			Text:         text,
			EstTokens:    EstimateTokens(text),
		})
		curText = curText[:0]
		curOrdinals = curOrdinals[:0]
		curTokens = 0
	}

	for _, unit := range doc.Units {
		if unit.Text == "" {
			continue
		}

		tokens := EstimateTokens(unit.Text)
		if tokens > c.budgetTokens {
			// Oversized unit: flush what we have, then emit the unit as
			// its own run of sub-split chunks.
			flush()
			for _, piece := range splitOversized(unit.Text, c.budgetTokens) {
				chunks = append(chunks, domain.Chunk{
					ID:           chunkID(doc.DocumentID, len(chunks)),
					Seq:          len(chunks),
					UnitOrdinals: []int{unit.Ordinal},
					Text:         piece,
					EstTokens:    EstimateTokens(piece),
				})
			}
			continue
		}

		// Joining adds a separator, charged at its token estimate.
		joinCost := 0
		if len(curText) > 0 {
			joinCost = EstimateTokens("\n\n")
		}
		if curTokens+joinCost+tokens > c.budgetTokens {
			flush()
			joinCost = 0
		}
		curText = append(curText, unit.Text)
		curOrdinals = append(curOrdinals, unit.Ordinal)
		curTokens += joinCost + tokens
	}
	flush()

	c.logger.Debug("document chunked",
		"document_id", doc.DocumentID, "units", doc.TotalUnits, "chunks", len(chunks))
	return chunks
}

// chunkID derives a stable identifier from the document and position.
func chunkID(documentID string, seq int) string {
	return fmt.Sprintf("%s:%04d", documentID, seq)
}

// splitOversized cuts text into pieces each within the budget, breaking
// at sentence ends where possible, otherwise at line breaks, otherwise
// at a hard character boundary. Concatenating the pieces reproduces the
// input exactly.
func splitOversized(text string, budgetTokens int) []string {
	maxChars := budgetTokens * 4
	if maxChars < 1 {
		maxChars = 1
	}

	var pieces []string
	for len(text) > maxChars {
		cut := findBreak(text, maxChars)
		pieces = append(pieces, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}

// findBreak picks the cut position within limit, preferring the last
// sentence terminator, then the last newline, then the limit itself.
func findBreak(text string, limit int) int {
	window := text[:limit]

	best := -1
	for _, term := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n"} {
		if idx := strings.LastIndex(window, term); idx >= 0 && idx+len(term) > best {
			best = idx + len(term)
		}
	}
	if best > 0 {
		return best
	}

	if idx := strings.LastIndexByte(window, '\n'); idx > 0 {
		return idx + 1
	}

	// Hard cut: never land inside a multi-byte rune.
	cut := limit
	for cut > 1 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return cut
}
