package memory

import (
	"sync"

	"ai-grammar-companion/internal/model"
	"ai-grammar-companion/internal/repository/contract"
)

// HistoryRepository keeps the suggestion log in memory, newest first.
type HistoryRepository struct {
	mu       sync.RWMutex
	capacity int
	records  []model.SuggestionRecord
}

var _ contract.HistoryRepository = &HistoryRepository{}

func NewHistoryRepository(capacity int) *HistoryRepository {
	return &HistoryRepository{
		capacity: capacity,
		records:  make([]model.SuggestionRecord, 0, capacity),
	}
}

func (r *HistoryRepository) Prepend(record model.SuggestionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append([]model.SuggestionRecord{record}, r.records...)
	if len(r.records) > r.capacity {
		r.records = r.records[:r.capacity]
	}
}

func (r *HistoryRepository) All() []model.SuggestionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.SuggestionRecord, len(r.records))
	copy(out, r.records)
	return out
}

func (r *HistoryRepository) ByPageSession(pageSessionID string) []model.SuggestionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.SuggestionRecord, 0)
	for _, rec := range r.records {
		if rec.PageSessionID == pageSessionID {
			out = append(out, rec)
		}
	}
	return out
}

func (r *HistoryRepository) Remove(timestamp int64, fieldID string) (model.SuggestionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if rec.Timestamp != timestamp {
			continue
		}
		if fieldID != "" && rec.FieldID != fieldID {
			continue
		}
		r.records = append(r.records[:i], r.records[i+1:]...)
		return rec, true
	}
	return model.SuggestionRecord{}, false
}

func (r *HistoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
