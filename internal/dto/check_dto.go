package dto

// CheckGrammarRequest is the one-shot `checkGrammar` action from the
// page binding.
type CheckGrammarRequest struct {
	PageSessionID string `json:"pageSessionId" validate:"required,uuid4"`
	ElementID     string `json:"elementId" validate:"required"`
	Text          string `json:"text" validate:"required"`
}

// CheckGrammarResponse mirrors the `{accepted, reason?}` result shape.
type CheckGrammarResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// OpenViewerRequest is the one-shot `openViewer` action. The daemon
// cannot open a panel itself; it reports whether one is already
// watching so the page binding can prompt the user.
type OpenViewerRequest struct {
	PageSessionID string `json:"pageSessionId" validate:"required,uuid4"`
}

type OpenViewerResponse struct {
	ViewerOpen bool `json:"viewerOpen"`
}

// HighlightRequest is the one-shot `highlightElement` action.
type HighlightRequest struct {
	PageSessionID string `json:"pageSessionId" validate:"required,uuid4"`
	ElementID     string `json:"elementId" validate:"required"`
}

// DismissRequest removes one history entry by its (timestamp, element)
// key. ElementID is optional; when empty the first timestamp match wins.
type DismissRequest struct {
	Timestamp int64  `json:"timestamp" validate:"required"`
	ElementID string `json:"elementId,omitempty"`
}
