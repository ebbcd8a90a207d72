// Package tracks stores race texts in a JSON file with a read-through
// cache. Storage failures degrade to a fallback track so room creation
// never aborts on content errors.
package tracks

import (
	"encoding/json"
	"math/rand"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Typerace/internal/domain"
)

// FallbackText keeps races runnable when the track store is unreadable.
const FallbackText = "The quick brown fox jumps over the lazy dog while the typists warm up their fingers."

type Repository struct {
	path string

	mu    sync.RWMutex
	cache map[string]domain.Track
}

func NewRepository(path string) *Repository {
	return &Repository{
		path:  path,
		cache: make(map[string]domain.Track),
	}
}

// GetAll reads every track from the store, refreshing the cache.
// Read or parse failures return an empty slice, never an error.
func (r *Repository) GetAll() []domain.Track {
	data, err := os.ReadFile(r.path)
	if err != nil {
		log.Error().Err(err).Str("module", "tracks").Str("path", r.path).Msg("read track store")
		return nil
	}
	var all []domain.Track
	if err := json.Unmarshal(data, &all); err != nil {
		log.Error().Err(err).Str("module", "tracks").Str("path", r.path).Msg("parse track store")
		return nil
	}

	r.mu.Lock()
	for _, t := range all {
		if _, ok := r.cache[t.ID]; !ok {
			r.cache[t.ID] = t
		}
	}
	r.mu.Unlock()

	return all
}

// GetByID serves from cache when possible, falling back to a full read.
func (r *Repository) GetByID(id string) (domain.Track, bool) {
	r.mu.RLock()
	t, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return t, true
	}
	for _, t := range r.GetAll() {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Track{}, false
}

// Random picks a random track, or the fallback when the store is empty
// or unreadable. The result always has non-empty text.
func (r *Repository) Random() domain.Track {
	all := r.GetAll()
	usable := all[:0:0]
	for _, t := range all {
		if t.Text != "" {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		log.Warn().Str("module", "tracks").Msg("no usable tracks, using fallback")
		return domain.Track{ID: "fallback", Text: FallbackText}
	}
	return usable[rand.Intn(len(usable))]
}
