package model

// CheckRequest is one grammar-check attempt, created by a page monitor
// and consumed exactly once by the coordinator. The monitor guarantees
// the text meets the configured minimum length and differs from the
// last text successfully checked for the field.
type CheckRequest struct {
	PageSessionID string `json:"pageSessionId"`
	FieldID       string `json:"elementId"`
	Text          string `json:"text"`
}

// CheckResult is the coordinator's immediate answer to a CheckRequest.
// Accepted=false means the request was gated off (no viewer attached),
// not that the model call failed.
type CheckResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}
