package provider

import (
	"fmt"

	"document-analyzer/internal/domain"
)

// modelTemperature keeps generation conservative; analysis output should
// restate the document, not embellish it.
const modelTemperature = 0.3

// systemPrompt frames every request regardless of directive.
const systemPrompt = "You are a document analysis assistant. Work only from the provided text. " +
	"Never invent facts that are not present in it."

// BuildPrompt renders the user prompt for one chunk. Known directives
// get a task-specific template; anything else is passed through as the
// instruction verbatim.
func BuildPrompt(directive, text string) string {
	switch directive {
	case domain.DirectiveSummarize:
		return fmt.Sprintf(
			"Summarize the following document section in a few concise sentences. "+
				"Preserve names, dates, amounts and identifiers exactly as written.\n\n%s", text)
	case domain.DirectiveExtractEntities:
		return fmt.Sprintf(
			"List every entity mentioned in the following document section: people, "+
				"organizations, dates, monetary amounts, and product or order identifiers. "+
				"One entity per line, formatted as type: value.\n\n%s", text)
	case domain.DirectiveClassify:
		return fmt.Sprintf(
			"Classify the following document section. Reply with a single short label "+
				"describing the document type (for example: invoice, contract, returns report, "+
				"correspondence) and one sentence of justification.\n\n%s", text)
	default:
		return fmt.Sprintf("%s\n\n%s", directive, text)
	}
}
