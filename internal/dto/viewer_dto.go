package dto

import "ai-grammar-companion/internal/model"

// Viewer-originated actions on the persistent connection.
const (
	ViewerActionRegisterTab      = "registerTab"
	ViewerActionRequestHistory   = "requestHistory"
	ViewerActionDismissEntry     = "dismissEntry"
	ViewerActionHighlightElement = "highlightElement"
)

// ViewerCommand is the envelope for messages a viewer sends to the
// coordinator. TabID names the page session the viewer looks at.
type ViewerCommand struct {
	Action    string `json:"action" validate:"required,oneof=registerTab requestHistory dismissEntry highlightElement"`
	TabID     string `json:"tabId,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	ElementID string `json:"elementId,omitempty"`
}

// Coordinator-originated actions toward viewers.
const (
	ViewerActionHistoryUpdate     = "historyUpdate"
	ViewerActionDisplaySuggestion = "displaySuggestion"
	ViewerActionDisplayError      = "displayError"
	ViewerActionRemoveSuggestion  = "removeSuggestion"
	ViewerActionStatusUpdate      = "statusUpdate"
)

// Status types carried by statusUpdate.
const (
	StatusTypeWorking = "working"
	StatusTypeInfo    = "info"
)

// ViewerPush is the envelope for messages the coordinator sends to a
// viewer. Exactly the fields relevant to Action are populated.
type ViewerPush struct {
	Action     string                   `json:"action"`
	History    []model.SuggestionRecord `json:"history,omitempty"`
	Data       *model.SuggestionRecord  `json:"data,omitempty"`
	Error      string                   `json:"error,omitempty"`
	Timestamp  int64                    `json:"timestamp,omitempty"`
	ElementID  string                   `json:"elementId,omitempty"`
	Message    string                   `json:"message,omitempty"`
	StatusType string                   `json:"type,omitempty"`
}
