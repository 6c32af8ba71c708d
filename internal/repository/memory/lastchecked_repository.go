package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// LastCheckedRepository remembers, per field id, the last text a check
// was dispatched for, so an unchanged field is never re-sent. Entries
// age out after an hour; a stale miss merely allows a redundant check.
type LastCheckedRepository struct {
	cache *cache.Cache
}

func NewLastCheckedRepository() *LastCheckedRepository {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &LastCheckedRepository{
		cache: c,
	}
}

func (r *LastCheckedRepository) Save(fieldID, text string) {
	r.cache.Set(fieldID, text, cache.DefaultExpiration)
}

func (r *LastCheckedRepository) Get(fieldID string) (string, bool) {
	if x, found := r.cache.Get(fieldID); found {
		return x.(string), true
	}
	return "", false
}

// Flush wipes the map, used when the viewer detaches from the page.
func (r *LastCheckedRepository) Flush() {
	r.cache.Flush()
}
