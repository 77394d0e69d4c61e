package lookup

import (
	"context"
	"strings"
	"sync"
)

var _ Resolver = (*Static)(nil)

// Static is an in-memory Resolver seeded from configuration. Tag UIDs are
// matched case-insensitively since readers report hex UIDs in mixed case.
type Static struct {
	mu      sync.RWMutex
	byTag   map[string]Record
	healthy bool
}

// NewStatic builds a Static resolver from the given records.
func NewStatic(records []Record) *Static {
	s := &Static{
		byTag:   make(map[string]Record, len(records)),
		healthy: true,
	}
	for _, r := range records {
		s.byTag[normalizeUID(r.TagUID)] = r
	}
	return s
}

// ByTag implements Resolver.
func (s *Static) ByTag(_ context.Context, uid string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.healthy {
		return nil, ErrUnavailable
	}
	r, ok := s.byTag[normalizeUID(uid)]
	if !ok {
		return nil, ErrNotFound
	}
	out := r
	return &out, nil
}

// Add registers or replaces a record.
func (s *Static) Add(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byTag[normalizeUID(r.TagUID)] = r
}

// SetHealthy toggles the availability of the resolver. Tests use it to
// exercise degraded-lookup paths.
func (s *Static) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

func normalizeUID(uid string) string {
	return strings.ToUpper(strings.TrimSpace(uid))
}
