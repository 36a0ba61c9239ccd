package metadata

import (
	"context"
	"maps"
	"sync"
)

// MemoryGateway serves records held in memory.
type MemoryGateway struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryGateway creates a gateway holding records. Later records with the
// same machine name replace earlier ones.
func NewMemoryGateway(records ...Record) *MemoryGateway {
	g := &MemoryGateway{records: make(map[string]Record, len(records))}
	for _, r := range records {
		g.records[r.MachineName] = r
	}
	return g
}

// Put adds or replaces a record.
func (g *MemoryGateway) Put(r Record) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records[r.MachineName] = r
}

// FindActiveByName implements Gateway.
func (g *MemoryGateway) FindActiveByName(ctx context.Context, name string) (*Record, error) {
	return g.FindAnyByName(ctx, name, false)
}

// FindAnyByName implements Gateway. The returned record is a copy.
func (g *MemoryGateway) FindAnyByName(ctx context.Context, name string, includeDisabled bool) (*Record, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.records[name]
	if !ok {
		return nil, nil
	}
	r.Meta = maps.Clone(r.Meta)
	return visible(&r, includeDisabled), nil
}

var _ Gateway = (*MemoryGateway)(nil)
