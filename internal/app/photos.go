package app

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/stagehand/internal/domain"
	"github.com/rs/zerolog/log"
)

// PhotoStore holds the photos of the current shooting round, grouped by
// participant and keyed by sequence number. It only forgets photos on Reset.
type PhotoStore struct {
	mu       sync.RWMutex
	byNumber map[domain.ParticipantID]map[int]*domain.Photo
	now      func() time.Time
}

func NewPhotoStore() *PhotoStore {
	return &PhotoStore{
		byNumber: make(map[domain.ParticipantID]map[int]*domain.Photo),
		now:      time.Now,
	}
}

// Put stores data at (n, count), replacing any earlier record there.
// A nil count takes the next free sequence number for n.
func (s *PhotoStore) Put(n domain.ParticipantID, count *int, data string) domain.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.byNumber[n]
	if !ok {
		group = make(map[int]*domain.Photo)
		s.byNumber[n] = group
	}
	var c int
	if count != nil {
		c = *count
	} else {
		for k := range group {
			c = max(c, k)
		}
		c++
	}
	p := &domain.Photo{
		Number:     n,
		Count:      c,
		Data:       data,
		Included:   true,
		ReceivedAt: s.now(),
	}
	if _, replaced := group[c]; replaced {
		log.Debug().Str("module", "app.photos").Int("number", int(n)).Int("count", c).Msg("photo overwritten")
	}
	group[c] = p
	return *p
}

func (s *PhotoStore) Get(n domain.ParticipantID, count int) (domain.Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byNumber[n][count]
	if !ok {
		return domain.Photo{}, false
	}
	return *p, true
}

// SetIncluded flips the reveal flag of one photo. Unknown photos are ignored.
func (s *PhotoStore) SetIncluded(n domain.ParticipantID, count int, include bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byNumber[n][count]
	if !ok {
		return false
	}
	p.Included = include
	return true
}

// orderedLocked walks photos by participant, then sequence number.
func (s *PhotoStore) orderedLocked() []*domain.Photo {
	out := make([]*domain.Photo, 0)
	for _, n := range slices.Sorted(maps.Keys(s.byNumber)) {
		group := s.byNumber[n]
		for _, c := range slices.Sorted(maps.Keys(group)) {
			out = append(out, group[c])
		}
	}
	return out
}

// Selection returns the payloads marked for reveal, flattened.
func (s *PhotoStore) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0)
	for _, p := range s.orderedLocked() {
		if p.Included {
			out = append(out, p.Data)
		}
	}
	return out
}

func (s *PhotoStore) Snapshot() []domain.PhotoMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ordered := s.orderedLocked()
	out := make([]domain.PhotoMeta, 0, len(ordered))
	for _, p := range ordered {
		out = append(out, p.Meta())
	}
	return out
}

func (s *PhotoStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, group := range s.byNumber {
		n += len(group)
	}
	return n
}

// Reset drops every photo and returns how many were held.
func (s *PhotoStore) Reset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, group := range s.byNumber {
		n += len(group)
	}
	clear(s.byNumber)
	log.Info().Str("module", "app.photos").Int("dropped", n).Msg("photo store reset")
	return n
}
