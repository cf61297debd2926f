// Package config loads the application settings and editor preferences.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/provide-io/landforge/go/landforge/internal/workenv"
	"github.com/provide-io/landforge/go/landforge/pkg/utils/permissions"
)

// DefaultFile is the config file looked up when none is named.
const DefaultFile = "landforge.yaml"

// Backup controls archiving of ROM images before they are overwritten.
type Backup struct {
	Enabled     bool   `yaml:"enabled"`
	Compression string `yaml:"compression"`
	Dir         string `yaml:"dir"`
}

// Patch controls exported patch files.
type Patch struct {
	Format string `yaml:"format"`
}

// Config is the application configuration.
type Config struct {
	LogLevel    string   `yaml:"log_level"`
	LabelTables []string `yaml:"label_tables"`
	Charset     string   `yaml:"charset"`
	Region      string   `yaml:"region"`
	Preferences string   `yaml:"preferences"`
	Backup      Backup   `yaml:"backup"`
	Patch       Patch    `yaml:"patch"`
	FileMode    string   `yaml:"file_mode"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		LogLevel: "warn",
		Backup: Backup{
			Enabled:     true,
			Compression: "zstd",
			Dir:         workenv.GetBackupDir(),
		},
		Patch:    Patch{Format: "cbor"},
		FileMode: permissions.FormatOctal(0o644),
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path tries DefaultFile and tolerates its absence.
func Load(path string) (*Config, error) {
	cfg := Default()
	optional := path == ""
	if optional {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		base := filepath.Dir(path)
		for i, p := range cfg.LabelTables {
			cfg.LabelTables[i] = resolve(base, p)
		}
		cfg.Charset = resolve(base, cfg.Charset)
		cfg.Preferences = resolve(base, cfg.Preferences)
	case os.IsNotExist(err) && optional:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// ApplyEnv overrides settings from LANDFORGE_LOG_LEVEL,
// LANDFORGE_BACKUP_DIR and LANDFORGE_LABELS.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LANDFORGE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LANDFORGE_BACKUP_DIR"); v != "" {
		c.Backup.Dir = v
	}
	if v := os.Getenv("LANDFORGE_LABELS"); v != "" {
		c.LabelTables = filepath.SplitList(v)
	}
}

var compressions = map[string]bool{"": true, "none": true, "gzip": true, "bzip2": true, "lz4": true, "zstd": true}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !compressions[strings.ToLower(c.Backup.Compression)] {
		return fmt.Errorf("unknown backup compression %q", c.Backup.Compression)
	}
	if c.Patch.Format != "" && c.Patch.Format != "cbor" {
		return fmt.Errorf("unsupported patch format %q", c.Patch.Format)
	}
	if _, err := permissions.ParseOctalString(c.FileMode); err != nil {
		return err
	}
	return nil
}

// Mode returns the permission bits for files written by the tool.
func (c *Config) Mode() os.FileMode {
	m, err := permissions.ParseOctalString(c.FileMode)
	if err != nil {
		return os.FileMode(permissions.DefaultFilePerms)
	}
	return os.FileMode(m)
}

var chainSuffix = map[string]string{"gzip": ".gz", "bzip2": ".bz2", "lz4": ".lz4", "zstd": ".zst"}

// BackupChain returns the operation chain string for backups.
func (c *Config) BackupChain() string {
	return "tar" + chainSuffix[strings.ToLower(c.Backup.Compression)]
}
