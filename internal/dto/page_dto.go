package dto

// Field event types delivered by the page binding.
const (
	FieldEventInput = "input"
	FieldEventFocus = "focus"
	FieldEventClick = "click"
)

// FieldDescriptor carries the attributes the monitor needs to derive a
// stable field identifier: explicit id, else name, else tag+class with
// the ordinal index among same-tag elements at event time.
type FieldDescriptor struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	TagName   string `json:"tagName" validate:"required"`
	ClassName string `json:"className,omitempty"`
	Ordinal   int    `json:"ordinal"`
}

// FieldEvent is one keystroke/focus/click notification from the page.
type FieldEvent struct {
	Type  string          `json:"type" validate:"required,oneof=input focus click"`
	Field FieldDescriptor `json:"field" validate:"required"`
	Text  string          `json:"text,omitempty"`
}

// Page-bound push actions.
const (
	PageActionShowSuggestion   = "showSuggestion"
	PageActionHighlightElement = "highlightElement"
	PageActionViewerStatus     = "viewerStatus"
)

// PagePush is the envelope for messages the core sends toward a page.
type PagePush struct {
	Action       string `json:"action"`
	ElementID    string `json:"elementId,omitempty"`
	Suggestion   string `json:"suggestion,omitempty"`
	OriginalText string `json:"originalText,omitempty"`
	IsOpen       bool   `json:"isOpen,omitempty"`
}
