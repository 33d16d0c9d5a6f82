// Package auth checks the shared role passwords and tracks the screen lock.
//
// Passwords are stored in plaintext in app state (adminPassword,
// cashierPassword) and compared as-is. Anyone who can read the database
// file or a backup can read them. This is the trust model of the
// application, not an oversight of this package: there is one shared
// password per role and no user accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/store"
)

// MinPasswordLength is the shortest password SetPassword accepts.
const MinPasswordLength = 4

var (
	// ErrWrongPassword is returned on a mismatch. Callers may retry.
	ErrWrongPassword = errors.New("wrong password")

	// ErrLocked is returned by RequireUnlocked while the screen is locked.
	ErrLocked = errors.New("screen is locked")

	// ErrPasswordTooShort is returned by SetPassword.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// Role selects which stored password is used.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

func (r Role) key() (string, error) {
	switch r {
	case RoleAdmin:
		return model.KeyAdminPassword, nil
	case RoleCashier:
		return model.KeyCashierPassword, nil
	}
	return "", fmt.Errorf("unknown role %q", r)
}

// Auth reads and writes role passwords and the lock flag.
type Auth struct {
	st     *store.Store
	logger *slog.Logger
}

// New creates an Auth over st. A nil logger uses slog.Default().
func New(st *store.Store, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auth{st: st, logger: logger}
}

// password returns the stored password for role, or the default when unset
// or empty.
func (a *Auth) password(ctx context.Context, role Role) (string, error) {
	key, err := role.key()
	if err != nil {
		return "", err
	}
	var pw string
	if err := a.st.GetValue(ctx, key, &pw); err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("read %s password: %w", role, err)
	}
	if pw == "" {
		pw = model.DefaultPassword
	}
	return pw, nil
}

// Check compares candidate with the stored password for role.
func (a *Auth) Check(ctx context.Context, role Role, candidate string) error {
	pw, err := a.password(ctx, role)
	if err != nil {
		return err
	}
	if candidate != pw {
		a.logger.Warn("password check failed", "role", role)
		return ErrWrongPassword
	}
	return nil
}

// SetPassword stores a new password for role.
func (a *Auth) SetPassword(ctx context.Context, role Role, next string) error {
	key, err := role.key()
	if err != nil {
		return err
	}
	if utf8.RuneCountInString(next) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if err := a.st.SetValue(ctx, key, next); err != nil {
		return fmt.Errorf("set %s password: %w", role, err)
	}
	a.logger.Info("password changed", "role", role)
	return nil
}

// Reset restores the default password for role.
func (a *Auth) Reset(ctx context.Context, role Role) error {
	key, err := role.key()
	if err != nil {
		return err
	}
	if err := a.st.SetValue(ctx, key, model.DefaultPassword); err != nil {
		return fmt.Errorf("reset %s password: %w", role, err)
	}
	a.logger.Info("password reset to default", "role", role)
	return nil
}

// Lock sets the persisted screen-lock flag.
func (a *Auth) Lock(ctx context.Context) error {
	if err := a.st.SetValue(ctx, model.KeyScreenLocked, true); err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	return nil
}

// Unlock clears the lock flag if password matches the cashier password.
func (a *Auth) Unlock(ctx context.Context, password string) error {
	if err := a.Check(ctx, RoleCashier, password); err != nil {
		return err
	}
	if err := a.st.SetValue(ctx, model.KeyScreenLocked, false); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	return nil
}

// IsLocked reports the persisted lock flag. Unset means unlocked.
func (a *Auth) IsLocked(ctx context.Context) (bool, error) {
	var locked bool
	if err := a.st.GetValue(ctx, model.KeyScreenLocked, &locked); err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("read lock state: %w", err)
	}
	return locked, nil
}

// RequireUnlocked returns ErrLocked while the lock flag is set.
func (a *Auth) RequireUnlocked(ctx context.Context) error {
	locked, err := a.IsLocked(ctx)
	if err != nil {
		return err
	}
	if locked {
		return ErrLocked
	}
	return nil
}
