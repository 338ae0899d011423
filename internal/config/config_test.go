package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
paths:
  patches_dir: /srv/patches
tools:
  pager: builtin
patch:
  fuzz: 2
scan:
  backend: builtin
  exclude: [".git", "Documentation"]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	t.Setenv("KPATCH_LOGGING_LEVEL", "debug")
	require.NoError(t, Init(path))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/patches", cfg.Paths.PatchesDir)
	assert.Equal(t, "./kernels", cfg.Paths.KernelsDir)
	assert.Equal(t, PagerBuiltin, cfg.Tools.Pager)
	assert.Equal(t, 2, cfg.Patch.Fuzz)
	assert.Equal(t, 1, cfg.Patch.Strip)
	assert.Equal(t, BackendBuiltin, cfg.Scan.Backend)
	assert.Equal(t, []string{".git", "Documentation"}, cfg.Scan.Exclude)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestInit_MissingExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	err := Init(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValue(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("scan.workers", 0)

	_, err := Load()
	assert.ErrorContains(t, err, "scan.workers")
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative strip", func(c *Config) { c.Patch.Strip = -1 }, "patch.strip"},
		{"negative fuzz", func(c *Config) { c.Patch.Fuzz = -2 }, "patch.fuzz"},
		{"bad backend", func(c *Config) { c.Scan.Backend = "grep" }, "scan.backend"},
		{"zero workers", func(c *Config) { c.Scan.Workers = 0 }, "scan.workers"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"no patch tool", func(c *Config) { c.Tools.Patch = " " }, "tools.patch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPatchDirFor(t *testing.T) {
	p := PathsConfig{PatchesDir: "./patches"}
	assert.Equal(t, filepath.Join("patches", "linux-6.9"), p.PatchDirFor("./kernels/linux-6.9/"))
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "kpatch"), ConfigDir())
}
