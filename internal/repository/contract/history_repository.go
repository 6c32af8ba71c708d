package contract

import "ai-grammar-companion/internal/model"

// HistoryRepository owns the bounded, newest-first suggestion log.
// Implementations are safe for concurrent use.
type HistoryRepository interface {
	// Prepend inserts a record at the front, evicting the oldest entry
	// silently when the capacity is exceeded.
	Prepend(record model.SuggestionRecord)

	// All returns a snapshot of the full history, newest first.
	All() []model.SuggestionRecord

	// ByPageSession returns the snapshot filtered to one page session.
	ByPageSession(pageSessionID string) []model.SuggestionRecord

	// Remove deletes the first entry matching timestamp, and field id
	// when non-empty. Returns the removed record and whether a match
	// was found; removing a non-existent key is a no-op.
	Remove(timestamp int64, fieldID string) (model.SuggestionRecord, bool)

	Len() int
}
