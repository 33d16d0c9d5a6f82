// Package session holds the in-progress POS invoice of each active section
// and turns it, or a booking or service form, into an issued invoice.
package session

import (
	"slices"

	"github.com/roach88/karmapos/internal/model"
)

// Session is the running invoice of one POS section.
type Session struct {
	section model.Section
	lines   []model.LineItem
}

func newSession(section model.Section) *Session {
	return &Session{section: section, lines: []model.LineItem{}}
}

// Section returns the section this session belongs to.
func (s *Session) Section() model.Section { return s.section }

// Add puts one unit of item on the invoice. An item already present has its
// quantity incremented.
func (s *Session) Add(item model.Item) {
	for i := range s.lines {
		if s.lines[i].ID == item.ID {
			s.lines[i].Quantity++
			return
		}
	}
	s.lines = append(s.lines, model.LineItem{Item: item, Quantity: 1})
}

// ChangeQuantity adds delta to the quantity of itemID. A line that drops to
// zero or below is removed. Unknown ids are ignored.
func (s *Session) ChangeQuantity(itemID int64, delta int) {
	idx := slices.IndexFunc(s.lines, func(l model.LineItem) bool { return l.ID == itemID })
	if idx < 0 {
		return
	}
	s.lines[idx].Quantity += delta
	if s.lines[idx].Quantity <= 0 {
		s.lines = slices.Delete(s.lines, idx, idx+1)
	}
}

// Lines returns a copy of the invoice lines in the order they were added.
func (s *Session) Lines() []model.LineItem {
	return slices.Clone(s.lines)
}

// Total is the sum of quantity × price over all lines.
func (s *Session) Total() float64 {
	var total float64
	for _, l := range s.lines {
		total += l.Subtotal()
	}
	return total
}

// Empty reports whether the invoice has no lines.
func (s *Session) Empty() bool { return len(s.lines) == 0 }

func (s *Session) reset() { s.lines = []model.LineItem{} }
