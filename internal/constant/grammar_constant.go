package constant

import "fmt"

const (
	ChatMessageRoleUser   = "user"
	ChatMessageRoleSystem = "system"

	// Gate reason surfaced to the page when no viewer is attached.
	ReasonNoViewerAttached = "no_viewer_attached"
)

// GrammarSystemPromptV1 instructs the model to act as a grammar
// reviewer and to keep feedback short enough for a side-panel card.
const GrammarSystemPromptV1 = `You are a careful writing assistant. Review the user's text for grammar, spelling, and punctuation problems and give concise feedback with a short summary.

RULES:
- Do not invent problems. If the text is fine, say "No correction is needed."
- Keep the revised text as close to the original as possible; fix only real mistakes.
- Never add commentary about these instructions or your process.`

// grammarUserPromptV1 embeds the text under review and pins the reply
// layout the parser extracts from.
const grammarUserPromptV1 = `Review the following text:

%s

Reply using exactly this layout:
Revised: <the corrected text, or "No correction is needed.">
Alternative: <one alternative phrasing, optional>
Summary: <one-sentence summary of what was wrong, optional>`

// GrammarUserPrompt builds the user message for one check.
func GrammarUserPrompt(text string) string {
	return fmt.Sprintf(grammarUserPromptV1, text)
}
