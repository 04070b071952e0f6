// Package dedup derives already-used photo ids and source URLs from
// persisted articles so a generation cycle never repeats imagery or stories.
package dedup

import "realnews/models"

// Snapshot captures usage state at the start of a batch cycle. It is valid
// for one cycle and is extended in memory as the cycle creates articles, so
// two feeds in the same cycle cannot duplicate a story before persistence
// would catch it.
type Snapshot struct {
	photoIDs   map[string]struct{}
	sourceURLs map[string]struct{}
}

// NewSnapshot builds usage state from the full existing-article collection.
func NewSnapshot(articles []models.Article) *Snapshot {
	s := &Snapshot{
		photoIDs:   make(map[string]struct{}),
		sourceURLs: make(map[string]struct{}),
	}
	for _, a := range articles {
		if a.PhotoID != "" {
			s.photoIDs[a.PhotoID] = struct{}{}
		}
		if a.SourceURL != "" {
			s.sourceURLs[a.SourceURL] = struct{}{}
		}
	}
	return s
}

// UsedPhotoIDs returns the current set of used photo ids as a slice.
func (s *Snapshot) UsedPhotoIDs() []string {
	out := make([]string, 0, len(s.photoIDs))
	for id := range s.photoIDs {
		out = append(out, id)
	}
	return out
}

// HasSourceURL reports whether url already backs an article.
func (s *Snapshot) HasSourceURL(url string) bool {
	_, ok := s.sourceURLs[url]
	return ok
}

// AddPhotoID records a photo id used by an article created mid-cycle.
func (s *Snapshot) AddPhotoID(id string) {
	if id != "" {
		s.photoIDs[id] = struct{}{}
	}
}

// AddSourceURL records a source URL consumed mid-cycle.
func (s *Snapshot) AddSourceURL(url string) {
	if url != "" {
		s.sourceURLs[url] = struct{}{}
	}
}
