package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/roach88/karmapos/internal/history"
)

// Environment variables read by the CLI.
const (
	EnvDB        = "KARMA_DB"
	EnvBackupDir = "KARMA_BACKUP_DIR"
	EnvAddr      = "KARMA_ADDR"
	EnvPageSize  = "KARMA_PAGE_SIZE"
)

// Defaults used when neither a flag nor the environment sets a value.
const (
	DefaultDB        = "karma.db"
	DefaultBackupDir = "."
	DefaultAddr      = "127.0.0.1:8080"
)

// Config holds environment-level settings.
type Config struct {
	DB        string
	BackupDir string
	Addr      string
	PageSize  int
}

// LoadConfig reads envFile (if it exists) and the process environment.
// Process variables win over the file.
func LoadConfig(envFile string) (Config, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileVars[key]
	}
	return configFrom(lookup)
}

func configFrom(lookup func(string) string) (Config, error) {
	cfg := Config{
		DB:        DefaultDB,
		BackupDir: DefaultBackupDir,
		Addr:      DefaultAddr,
		PageSize:  history.DefaultPageSize,
	}
	if v := lookup(EnvDB); v != "" {
		cfg.DB = v
	}
	if v := lookup(EnvBackupDir); v != "" {
		cfg.BackupDir = v
	}
	if v := lookup(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := lookup(EnvPageSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("%w: %s must be a positive integer, got %q", errInvalidArgument, EnvPageSize, v)
		}
		cfg.PageSize = n
	}
	return cfg, nil
}

// applyConfig fills every flag the user did not set from cfg.
func applyConfig(cmd *cobra.Command, opts *RootOptions, cfg Config) {
	flags := cmd.Flags()
	if !flags.Changed("db") {
		opts.DB = cfg.DB
	}
	if !flags.Changed("backup-dir") {
		opts.BackupDir = cfg.BackupDir
	}
	if !flags.Changed("page-size") {
		opts.PageSize = cfg.PageSize
	}
	opts.Addr = cfg.Addr
}
