package sections

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces ids for new custom sections.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable section ids.
//
// UUIDv7 embeds the creation timestamp in its most significant bits, so
// ids sort by creation time like the "custom_<millis>" ids of older
// backups do.
type UUIDv7Generator struct{}

// Generate returns "custom_" followed by a hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return "custom_" + uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined ids for testing.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
