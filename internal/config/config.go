package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete kpatch configuration.
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Tools   ToolsConfig   `mapstructure:"tools"`
	Patch   PatchConfig   `mapstructure:"patch"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PathsConfig locates source trees and patch sets
type PathsConfig struct {
	// KernelsDir holds one source tree per subdirectory; used to pick a
	// target when none is given
	KernelsDir string `mapstructure:"kernels_dir"`
	// PatchesDir holds one patch directory per tree, named after the tree
	PatchesDir string `mapstructure:"patches_dir"`
}

// ToolsConfig names the external programs. Empty means the default.
type ToolsConfig struct {
	Patch  string `mapstructure:"patch"`
	Search string `mapstructure:"search"`
	// Pager is a program name, or "builtin" for the built-in viewer
	Pager string `mapstructure:"pager"`
	// Editor falls back to $VISUAL, $EDITOR, then nano
	Editor string `mapstructure:"editor"`
}

// PatchConfig controls how patches are applied
type PatchConfig struct {
	Strip  int  `mapstructure:"strip"`
	Fuzz   int  `mapstructure:"fuzz"`
	DryRun bool `mapstructure:"dry_run"`
}

// ScanConfig controls conflict marker scanning
type ScanConfig struct {
	// Backend is "auto", "ripgrep" or "builtin". auto uses ripgrep when it
	// is on PATH.
	Backend string   `mapstructure:"backend"`
	Workers int      `mapstructure:"workers"`
	Exclude []string `mapstructure:"exclude"`
}

// LoggingConfig controls the debug log
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// File is the log destination; empty logs to stderr
	File string `mapstructure:"file"`
}

const (
	BackendAuto    = "auto"
	BackendRipgrep = "ripgrep"
	BackendBuiltin = "builtin"

	PagerBuiltin = "builtin"
)

var (
	validBackends = []string{BackendAuto, BackendRipgrep, BackendBuiltin}
	validLevels   = []string{"debug", "info", "warn", "error"}
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			KernelsDir: "./kernels",
			PatchesDir: "./patches",
		},
		Tools: ToolsConfig{
			Patch:  "patch",
			Search: "rg",
			Pager:  "bat",
			Editor: "",
		},
		Patch: PatchConfig{
			Strip:  1,
			Fuzz:   0,
			DryRun: false,
		},
		Scan: ScanConfig{
			Backend: BackendAuto,
			Workers: 8,
			Exclude: []string{".git"},
		},
		Logging: LoggingConfig{
			Level: "warn",
			File:  "",
		},
	}
}

// SetDefaults registers Default with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("paths.kernels_dir", defaults.Paths.KernelsDir)
	viper.SetDefault("paths.patches_dir", defaults.Paths.PatchesDir)

	viper.SetDefault("tools.patch", defaults.Tools.Patch)
	viper.SetDefault("tools.search", defaults.Tools.Search)
	viper.SetDefault("tools.pager", defaults.Tools.Pager)
	viper.SetDefault("tools.editor", defaults.Tools.Editor)

	viper.SetDefault("patch.strip", defaults.Patch.Strip)
	viper.SetDefault("patch.fuzz", defaults.Patch.Fuzz)
	viper.SetDefault("patch.dry_run", defaults.Patch.DryRun)

	viper.SetDefault("scan.backend", defaults.Scan.Backend)
	viper.SetDefault("scan.workers", defaults.Scan.Workers)
	viper.SetDefault("scan.exclude", defaults.Scan.Exclude)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)
}

// EnvPrefix prefixes environment overrides, e.g. KPATCH_SCAN_BACKEND.
const EnvPrefix = "KPATCH"

var envReplacer = strings.NewReplacer(".", "_")

// Init wires defaults, the config file and environment overrides into viper.
// A missing config file is only an error when cfgFile names it explicitly.
func Init(cfgFile string) error {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(envReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load reads the configuration from viper.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	var problems []string

	if c.Patch.Strip < 0 {
		problems = append(problems, fmt.Sprintf("patch.strip must be >= 0, got %d", c.Patch.Strip))
	}
	if c.Patch.Fuzz < 0 {
		problems = append(problems, fmt.Sprintf("patch.fuzz must be >= 0, got %d", c.Patch.Fuzz))
	}
	if !slices.Contains(validBackends, strings.ToLower(c.Scan.Backend)) {
		problems = append(problems, fmt.Sprintf("scan.backend must be one of %s, got %q",
			strings.Join(validBackends, ", "), c.Scan.Backend))
	}
	if c.Scan.Workers < 1 {
		problems = append(problems, fmt.Sprintf("scan.workers must be >= 1, got %d", c.Scan.Workers))
	}
	if !slices.Contains(validLevels, strings.ToLower(c.Logging.Level)) {
		problems = append(problems, fmt.Sprintf("logging.level must be one of %s, got %q",
			strings.Join(validLevels, ", "), c.Logging.Level))
	}
	if strings.TrimSpace(c.Tools.Patch) == "" {
		problems = append(problems, "tools.patch must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// PatchDirFor returns the patch directory for a source tree: a directory
// named after the tree inside PatchesDir.
func (p *PathsConfig) PatchDirFor(target string) string {
	return filepath.Join(p.PatchesDir, filepath.Base(filepath.Clean(target)))
}

// ConfigDir returns the kpatch configuration directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kpatch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kpatch"
	}
	return filepath.Join(home, ".config", "kpatch")
}
