package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/prompt"
	"github.com/roach88/karmapos/internal/sections"
	"github.com/roach88/karmapos/internal/sequencer"
)

var (
	// ErrEmptyInvoice is returned when checking out a session with no lines.
	ErrEmptyInvoice = errors.New("cannot issue an empty invoice")

	// ErrNotActive is returned for a section with no active session.
	ErrNotActive = errors.New("section has no active session")

	// ErrWrongTemplate is returned when a form does not match the section.
	ErrWrongTemplate = errors.New("section template does not support this operation")

	// ErrInvalidPrice is returned when an amount is not positive.
	ErrInvalidPrice = errors.New("amount must be greater than zero")

	// ErrInvalidTime is returned for a bad slot or manual time range.
	ErrInvalidTime = errors.New("invalid booking time")
)

// Controller owns one Session per active POS section and issues invoices.
type Controller struct {
	seq     *sequencer.Sequencer
	prompts *prompt.Slot
	now     func() time.Time
	logger  *slog.Logger

	mu     sync.Mutex
	active map[string]*Session
}

// NewController creates a controller. A nil now uses time.Now; a nil logger
// uses slog.Default().
func NewController(seq *sequencer.Sequencer, prompts *prompt.Slot, now func() time.Time, logger *slog.Logger) *Controller {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		seq:     seq,
		prompts: prompts,
		now:     now,
		logger:  logger,
		active:  make(map[string]*Session),
	}
}

// Activate returns the session for a POS section, creating it on first use.
func (c *Controller) Activate(section model.Section) (*Session, error) {
	if section.Template != model.TemplatePOS {
		return nil, fmt.Errorf("activate %q: %w", section.ID, ErrWrongTemplate)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.active[section.ID]; ok {
		return s, nil
	}
	s := newSession(section)
	c.active[section.ID] = s
	return s, nil
}

// Session returns the active session for sectionID.
func (c *Controller) Session(sectionID string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.active[sectionID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotActive, sectionID)
	}
	return s, nil
}

// Leave discards the session of sectionID.
func (c *Controller) Leave(sectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, sectionID)
}

// Clear empties the running invoice of sectionID. A non-empty invoice is
// only cleared after the operator confirms.
func (c *Controller) Clear(ctx context.Context, sectionID string) error {
	s, err := c.Session(sectionID)
	if err != nil {
		return err
	}
	if s.Empty() {
		return nil
	}
	if err := c.prompts.Require(ctx, "Clear the current invoice?"); err != nil {
		return fmt.Errorf("clear %q: %w", sectionID, err)
	}
	s.reset()
	return nil
}

// Checkout issues the running invoice of sectionID and empties the session.
func (c *Controller) Checkout(ctx context.Context, sectionID string) (model.Invoice, error) {
	s, err := c.Session(sectionID)
	if err != nil {
		return model.Invoice{}, err
	}
	if s.Empty() {
		return model.Invoice{}, ErrEmptyInvoice
	}

	inv, err := c.seq.IssueInvoice(ctx, model.Invoice{
		Type:        s.section.InvoiceType(),
		SectionName: s.section.Name,
		Date:        c.now(),
		Details:     model.Details{Items: s.Lines()},
		Total:       s.Total(),
	})
	if err != nil {
		return model.Invoice{}, fmt.Errorf("checkout %q: %w", sectionID, err)
	}
	s.reset()
	return inv, nil
}

// BookingRequest is the booking form of a booking section.
type BookingRequest struct {
	// ReservationDate supplies the calendar day; the time of day is taken
	// from the clock. Zero means today.
	ReservationDate time.Time

	// Slot is one of sections.TimeSlots(). Ignored when ManualStart is set.
	Slot string

	// ManualStart and ManualEnd are "HH:MM" and must satisfy start < end.
	ManualStart string
	ManualEnd   string

	Price        float64
	FieldName    string
	CustomerName string
}

// IssueBooking validates and issues a booking or football invoice.
func (c *Controller) IssueBooking(ctx context.Context, section model.Section, req BookingRequest) (model.Invoice, error) {
	if section.Template != model.TemplateBooking {
		return model.Invoice{}, fmt.Errorf("book %q: %w", section.ID, ErrWrongTemplate)
	}
	if !(req.Price > 0) {
		return model.Invoice{}, ErrInvalidPrice
	}
	display, err := timeDisplay(req)
	if err != nil {
		return model.Invoice{}, err
	}

	inv, err := c.seq.IssueInvoice(ctx, model.Invoice{
		Type:        section.InvoiceType(),
		SectionName: section.Name,
		Date:        onDay(req.ReservationDate, c.now()),
		Details: model.Details{
			TimeDisplay:  display,
			FieldName:    model.Normalize(req.FieldName),
			CustomerName: model.Normalize(req.CustomerName),
		},
		Total: req.Price,
	})
	if err != nil {
		return model.Invoice{}, fmt.Errorf("book %q: %w", section.ID, err)
	}
	return inv, nil
}

// IssueSimple issues a service invoice. An empty service name defaults to
// the section name.
func (c *Controller) IssueSimple(ctx context.Context, section model.Section, serviceName string, price float64) (model.Invoice, error) {
	if section.Template != model.TemplateSimple {
		return model.Invoice{}, fmt.Errorf("service %q: %w", section.ID, ErrWrongTemplate)
	}
	if !(price > 0) {
		return model.Invoice{}, ErrInvalidPrice
	}
	name := model.Normalize(serviceName)
	if name == "" {
		name = section.Name
	}

	inv, err := c.seq.IssueInvoice(ctx, model.Invoice{
		Type:        section.InvoiceType(),
		SectionName: section.Name,
		Date:        c.now(),
		Details:     model.Details{ServiceName: name},
		Total:       price,
	})
	if err != nil {
		return model.Invoice{}, fmt.Errorf("service %q: %w", section.ID, err)
	}
	return inv, nil
}

func timeDisplay(req BookingRequest) (string, error) {
	if req.ManualStart == "" && req.ManualEnd == "" {
		if !slices.Contains(sections.TimeSlots(), req.Slot) {
			return "", fmt.Errorf("%w: unknown slot %q", ErrInvalidTime, req.Slot)
		}
		return req.Slot, nil
	}

	start, err := time.Parse("15:04", req.ManualStart)
	if err != nil {
		return "", fmt.Errorf("%w: start %q", ErrInvalidTime, req.ManualStart)
	}
	end, err := time.Parse("15:04", req.ManualEnd)
	if err != nil {
		return "", fmt.Errorf("%w: end %q", ErrInvalidTime, req.ManualEnd)
	}
	if !start.Before(end) {
		return "", fmt.Errorf("%w: end must be after start", ErrInvalidTime)
	}
	return req.ManualStart + " - " + req.ManualEnd, nil
}

// onDay combines the calendar day of day with the time of day of now.
func onDay(day, now time.Time) time.Time {
	if day.IsZero() {
		return now
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
}
