// Package settings reads and writes the operator-editable app state:
// cashier info, the football quick price and the screen-lock timeout.
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/store"
)

// Settings is a view over app state.
type Settings struct {
	st *store.Store
}

// New creates a Settings over st.
func New(st *store.Store) *Settings {
	return &Settings{st: st}
}

// Snapshot is every setting at once, for display.
type Snapshot struct {
	Cashier     model.CashierInfo `json:"cashierInfo"`
	QuickPrice  float64           `json:"quickPrice"`
	LockTimeout int               `json:"screenLockTimeout"`
	LastBackup  *model.BackupInfo `json:"lastBackupInfo,omitempty"`
}

// get reads key into dest, leaving dest unchanged when the key is unset.
func (s *Settings) get(ctx context.Context, key string, dest any) error {
	if err := s.st.GetValue(ctx, key, dest); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("read %s: %w", key, err)
	}
	return nil
}

// Load returns all settings with defaults filled in.
func (s *Settings) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{QuickPrice: model.DefaultQuickPrice}
	if err := s.get(ctx, model.KeyCashierInfo, &snap.Cashier); err != nil {
		return Snapshot{}, err
	}
	if err := s.get(ctx, model.KeyQuickPrice, &snap.QuickPrice); err != nil {
		return Snapshot{}, err
	}
	if err := s.get(ctx, model.KeyScreenLockTimeout, &snap.LockTimeout); err != nil {
		return Snapshot{}, err
	}
	var last model.BackupInfo
	if err := s.get(ctx, model.KeyLastBackupInfo, &last); err != nil {
		return Snapshot{}, err
	}
	if last.Filename != "" {
		snap.LastBackup = &last
	}
	return snap, nil
}

// SetCashier updates the cashier name and phone. Empty fields keep their
// stored value.
func (s *Settings) SetCashier(ctx context.Context, name, phone string) error {
	var info model.CashierInfo
	if err := s.get(ctx, model.KeyCashierInfo, &info); err != nil {
		return err
	}
	if name = model.Normalize(name); name != "" {
		info.Name = name
	}
	if phone = model.Normalize(phone); phone != "" {
		info.Phone = phone
	}
	return s.st.SetValue(ctx, model.KeyCashierInfo, info)
}

// SetQuickPrice sets the football quick-price button.
func (s *Settings) SetQuickPrice(ctx context.Context, price float64) error {
	if price < 0 {
		return fmt.Errorf("quick price must not be negative, got %v", price)
	}
	return s.st.SetValue(ctx, model.KeyQuickPrice, price)
}

// SetLockTimeout sets the idle minutes before the screen locks. Zero
// disables the lock.
func (s *Settings) SetLockTimeout(ctx context.Context, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("lock timeout must not be negative, got %d", minutes)
	}
	return s.st.SetValue(ctx, model.KeyScreenLockTimeout, minutes)
}

// LockTimeout returns the idle timeout, or 0 when disabled.
func (s *Settings) LockTimeout(ctx context.Context) (time.Duration, error) {
	var minutes int
	if err := s.get(ctx, model.KeyScreenLockTimeout, &minutes); err != nil {
		return 0, err
	}
	return time.Duration(minutes) * time.Minute, nil
}
