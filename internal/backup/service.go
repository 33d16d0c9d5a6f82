package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/karmapos/internal/auth"
	"github.com/roach88/karmapos/internal/model"
	"github.com/roach88/karmapos/internal/prompt"
	"github.com/roach88/karmapos/internal/store"
)

// ErrPermissionDenied is returned when a backup file cannot be written for
// lack of permission.
var ErrPermissionDenied = errors.New("permission denied writing backup file")

// FileName is the default backup file name for the UTC day of now.
func FileName(now time.Time) string {
	return "karma_backup_" + now.UTC().Format("2006-01-02") + ".json"
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	// Dir receives backups when no path is remembered. Default ".".
	Dir    string
	Now    func() time.Time
	Logger *slog.Logger
}

// Service runs the operator-facing backup actions: save to file, import,
// wipe. Import and wipe are gated by the admin password and a confirmation.
type Service struct {
	st      *store.Store
	auth    *auth.Auth
	prompts *prompt.Slot

	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(st *store.Store, a *auth.Auth, prompts *prompt.Slot, opts Options) *Service {
	s := &Service{st: st, auth: a, prompts: prompts, dir: opts.Dir, now: opts.Now, logger: opts.Logger}
	if s.dir == "" {
		s.dir = "."
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Save exports the store to the remembered backup path. If there is none,
// or writing it fails, the remembered path is forgotten and the backup goes
// to a fresh FileName in the backup dir, which becomes the remembered path.
func (s *Service) Save(ctx context.Context) (model.BackupInfo, error) {
	var remembered string
	if err := s.st.GetValue(ctx, model.KeyBackupFilePath, &remembered); err != nil && !errors.Is(err, store.ErrNotFound) {
		return model.BackupInfo{}, fmt.Errorf("save backup: %w", err)
	}

	if remembered != "" {
		info, err := s.SaveTo(ctx, remembered)
		if err == nil {
			return info, nil
		}
		s.logger.Warn("remembered backup path unusable, falling back",
			"path", remembered,
			"permission", errors.Is(err, ErrPermissionDenied),
			"error", err,
		)
		if err := s.st.DeleteState(ctx, model.KeyBackupFilePath); err != nil {
			return model.BackupInfo{}, fmt.Errorf("save backup: %w", err)
		}
	}

	return s.SaveTo(ctx, filepath.Join(s.dir, FileName(s.now())))
}

// SaveTo exports the store to path, remembers path and records
// lastBackupInfo.
func (s *Service) SaveTo(ctx context.Context, path string) (model.BackupInfo, error) {
	snap, err := Export(ctx, s.st)
	if err != nil {
		return model.BackupInfo{}, err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return model.BackupInfo{}, err
	}
	if err := writeFile(path, buf.Bytes()); err != nil {
		return model.BackupInfo{}, err
	}

	info := model.BackupInfo{Date: s.now().UTC(), Filename: filepath.Base(path)}
	if err := s.st.SetValue(ctx, model.KeyBackupFilePath, path); err != nil {
		return model.BackupInfo{}, fmt.Errorf("save backup: %w", err)
	}
	if err := s.st.SetValue(ctx, model.KeyLastBackupInfo, info); err != nil {
		return model.BackupInfo{}, fmt.Errorf("save backup: %w", err)
	}

	s.logger.Info("backup written", "path", path, "invoices", len(snap.Invoices), "items", len(snap.Items))
	return info, nil
}

// writeFile replaces path with data through a temp file in the same dir.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".karma_backup_*.tmp")
	if err != nil {
		return wrapWriteError(path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return wrapWriteError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return wrapWriteError(path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return wrapWriteError(path, err)
	}
	return nil
}

func wrapWriteError(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %s: %w", ErrPermissionDenied, path, err)
	}
	return fmt.Errorf("write backup %s: %w", path, err)
}

// Info returns the last successful backup, or nil if there was none.
func (s *Service) Info(ctx context.Context) (*model.BackupInfo, error) {
	var info model.BackupInfo
	if err := s.st.GetValue(ctx, model.KeyLastBackupInfo, &info); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("backup info: %w", err)
	}
	return &info, nil
}

// Import decodes data and, after the admin password and a confirmation,
// merges it. A document that fails to decode changes nothing.
func (s *Service) Import(ctx context.Context, data []byte) (MergeResult, error) {
	snap, err := Decode(data)
	if err != nil {
		return MergeResult{}, err
	}
	if err := s.authorize(ctx); err != nil {
		return MergeResult{}, fmt.Errorf("import: %w", err)
	}
	msg := fmt.Sprintf("Merge %d invoices and %d items from the file into the current data?", len(snap.Invoices), len(snap.Items))
	if err := s.prompts.Require(ctx, msg); err != nil {
		return MergeResult{}, fmt.Errorf("import: %w", err)
	}
	return Merge(ctx, s.st, snap, s.logger)
}

// Wipe clears all three collections after the admin password and a
// confirmation.
func (s *Service) Wipe(ctx context.Context) error {
	if err := s.authorize(ctx); err != nil {
		return fmt.Errorf("wipe: %w", err)
	}
	if err := s.prompts.Require(ctx, "Delete ALL invoices, items and settings? This cannot be undone."); err != nil {
		return fmt.Errorf("wipe: %w", err)
	}
	for _, c := range store.Collections {
		if err := s.st.Clear(ctx, c); err != nil {
			return fmt.Errorf("wipe: %w", err)
		}
	}
	s.logger.Warn("all data deleted")
	return nil
}

func (s *Service) authorize(ctx context.Context) error {
	pw, err := s.prompts.Password(ctx, "Admin password")
	if err != nil {
		return err
	}
	return s.auth.Check(ctx, auth.RoleAdmin, pw)
}
