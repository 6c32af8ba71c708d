package events

// Topic of the in-process bus carrying coordinator-to-page
// notifications. One topic; the page session id travels in the payload.
const TopicPageNotify = "PAGE_NOTIFY"

// Event types published on TopicPageNotify.
const (
	TypeSuggestionDelivered = "SUGGESTION_DELIVERED"
	TypeHighlightField      = "HIGHLIGHT_FIELD"
	TypeViewerStatus        = "VIEWER_STATUS"
)

// PageNotification is the payload carried on TopicPageNotify. Exactly
// the fields relevant to Type are populated.
type PageNotification struct {
	Type          string `json:"type"`
	PageSessionID string `json:"pageSessionId"`
	ElementID     string `json:"elementId,omitempty"`
	Suggestion    string `json:"suggestion,omitempty"`
	OriginalText  string `json:"originalText,omitempty"`
	ViewerOpen    bool   `json:"viewerOpen,omitempty"`
}
