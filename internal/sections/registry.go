// Package sections manages the business sections of the app and renders
// each one into page markup.
//
// Three sections are built in (restaurant, cafe, football). Custom sections
// are stored as a list under the customSections app state key. The Registry
// caches that list; every mutation invalidates the cache so the next read
// reloads from the store.
package sections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/store"
)

var (
	// ErrUnknownSection is returned for an id that is neither built in
	// nor registered.
	ErrUnknownSection = errors.New("unknown section")

	// ErrBuiltinSection is returned when removing a built-in section.
	ErrBuiltinSection = errors.New("built-in section cannot be removed")
)

// Registry resolves section ids and owns the custom section list.
type Registry struct {
	st     *store.Store
	ids    IDGenerator
	logger *slog.Logger

	mu     sync.Mutex
	custom []model.Section
	loaded bool
}

// NewRegistry creates a registry. A nil ids uses UUIDv7Generator; a nil
// logger uses slog.Default().
func NewRegistry(st *store.Store, ids IDGenerator, logger *slog.Logger) *Registry {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{st: st, ids: ids, logger: logger}
}

// Invalidate drops the cached custom section list.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom = nil
	r.loaded = false
}

// Custom returns the registered custom sections in creation order.
func (r *Registry) Custom(ctx context.Context) ([]model.Section, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(r.custom), nil
}

// All returns the built-in sections followed by the custom ones.
func (r *Registry) All(ctx context.Context) ([]model.Section, error) {
	custom, err := r.Custom(ctx)
	if err != nil {
		return nil, err
	}

	all := Builtins()
	for i := range all {
		if err := r.fillBuiltin(ctx, &all[i]); err != nil {
			return nil, err
		}
	}
	return append(all, custom...), nil
}

// Get resolves a section by id.
func (r *Registry) Get(ctx context.Context, id string) (model.Section, error) {
	if s, ok := builtin(id); ok {
		if err := r.fillBuiltin(ctx, &s); err != nil {
			return model.Section{}, err
		}
		return s, nil
	}

	custom, err := r.Custom(ctx)
	if err != nil {
		return model.Section{}, err
	}
	for _, s := range custom {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Section{}, fmt.Errorf("%w: %q", ErrUnknownSection, id)
}

// Register creates a custom section and appends it to the stored list.
func (r *Registry) Register(ctx context.Context, name, icon string, tmpl model.Template) (model.Section, error) {
	section := model.Section{
		ID:       r.ids.Generate(),
		Name:     model.Normalize(name),
		Icon:     model.Normalize(icon),
		Template: tmpl,
	}
	if err := model.JoinErrors(section.Validate()); err != nil {
		return model.Section{}, fmt.Errorf("register section: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(ctx); err != nil {
		return model.Section{}, err
	}
	list := append(slices.Clone(r.custom), section)
	if err := r.st.SetValue(ctx, model.KeyCustomSections, list); err != nil {
		return model.Section{}, fmt.Errorf("register section: %w", err)
	}
	r.custom, r.loaded = nil, false

	r.logger.Info("section registered", "id", section.ID, "name", section.Name, "template", section.Template)
	return section, nil
}

// Remove deletes a custom section and every item whose sectionId matches.
// Returns the number of items deleted.
func (r *Registry) Remove(ctx context.Context, id string) (int64, error) {
	if _, ok := builtin(id); ok {
		return 0, fmt.Errorf("remove %q: %w", id, ErrBuiltinSection)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(ctx); err != nil {
		return 0, err
	}
	idx := slices.IndexFunc(r.custom, func(s model.Section) bool { return s.ID == id })
	if idx < 0 {
		return 0, fmt.Errorf("remove: %w: %q", ErrUnknownSection, id)
	}

	list := slices.Delete(slices.Clone(r.custom), idx, idx+1)
	if err := r.st.SetValue(ctx, model.KeyCustomSections, list); err != nil {
		return 0, fmt.Errorf("remove section %q: %w", id, err)
	}
	r.custom, r.loaded = nil, false

	n, err := r.st.DeleteItemsBySection(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("remove section %q: %w", id, err)
	}

	r.logger.Info("section removed", "id", id, "items_deleted", n)
	return n, nil
}

// SetQuickPrice updates the quick-price button of a booking section.
// For the built-in football section it writes the global quickPrice.
func (r *Registry) SetQuickPrice(ctx context.Context, id string, price float64) error {
	if price < 0 {
		return fmt.Errorf("quick price must not be negative, got %v", price)
	}
	if id == FootballID {
		if err := r.st.SetValue(ctx, model.KeyQuickPrice, price); err != nil {
			return fmt.Errorf("set quick price: %w", err)
		}
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadLocked(ctx); err != nil {
		return err
	}
	list := slices.Clone(r.custom)
	idx := slices.IndexFunc(list, func(s model.Section) bool { return s.ID == id })
	if idx < 0 {
		return fmt.Errorf("set quick price: %w: %q", ErrUnknownSection, id)
	}
	list[idx].QuickPrice = price
	if err := r.st.SetValue(ctx, model.KeyCustomSections, list); err != nil {
		return fmt.Errorf("set quick price: %w", err)
	}
	r.custom, r.loaded = nil, false
	return nil
}

// loadLocked reads the custom section list if it is not cached.
// A missing key means no custom sections.
func (r *Registry) loadLocked(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	var list []model.Section
	if err := r.st.GetValue(ctx, model.KeyCustomSections, &list); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("load sections: %w", err)
	}
	if list == nil {
		list = []model.Section{}
	}
	r.custom = list
	r.loaded = true
	return nil
}

// fillBuiltin copies stored settings onto a built-in section.
func (r *Registry) fillBuiltin(ctx context.Context, s *model.Section) error {
	if s.ID != FootballID {
		return nil
	}
	price := float64(model.DefaultQuickPrice)
	if err := r.st.GetValue(ctx, model.KeyQuickPrice, &price); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("load quick price: %w", err)
	}
	s.QuickPrice = price
	return nil
}
