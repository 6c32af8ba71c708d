package model

// SuggestionRecord is the durable unit of output: one completed grammar
// check, successful or "no issues". Records are immutable; history
// mutates only by replacement.
type SuggestionRecord struct {
	// Timestamp is unix milliseconds at creation. The coordinator keeps
	// it strictly increasing so (Timestamp, FieldID) can key a record.
	Timestamp     int64    `json:"timestamp"`
	PageSessionID string   `json:"pageSessionId"`
	FieldID       string   `json:"elementId"`
	OriginalText  string   `json:"originalText"`
	CorrectedText string   `json:"correctedText"`
	Issues        []string `json:"issues,omitempty"`
	Alternative   string   `json:"alternative,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Explanation   string   `json:"explanation"`
	Suggestion    string   `json:"suggestion"`
	NoIssues      bool     `json:"noIssues"`
}

// HasIssues is the complement of NoIssues; exactly one of the two is
// ever true for a produced record.
func (r SuggestionRecord) HasIssues() bool {
	return !r.NoIssues
}
