package cmd

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/corpeningc/kpatch/internal/config"
	"github.com/corpeningc/kpatch/internal/conflict"
	"github.com/corpeningc/kpatch/internal/logging"
	"github.com/corpeningc/kpatch/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"apply", []string{"apply"}},
		{"apply  --pick   -t linux", []string{"apply", "--pick", "-t", "linux"}},
		{`apply "my patches/0001 fix.patch"`, []string{"apply", "my patches/0001 fix.patch"}},
		{`scan -t 'linux 6.9'`, []string{"scan", "-t", "linux 6.9"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseCommandLine(tt.input))
		})
	}
}

func TestGetCommandNames(t *testing.T) {
	names := getCommandNames()
	assert.Contains(t, names, "apply")
	assert.Contains(t, names, "scan")
	assert.Contains(t, names, "resolve")
	assert.NotContains(t, names, "shell")
}

func TestHandleSpecialCommand(t *testing.T) {
	quit, handled := handleSpecialCommand("EXIT")
	assert.True(t, quit)
	assert.True(t, handled)

	quit, handled = handleSpecialCommand("apply")
	assert.False(t, quit)
	assert.False(t, handled)
}

func TestListTrees(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"linux-6.9", "linux-6.1", ".cache"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, name), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))

	trees, err := listTrees(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "linux-6.1"), filepath.Join(dir, "linux-6.9")}, trees)

	trees, err = listTrees(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, trees)
}

func TestResolveTarget_Flag(t *testing.T) {
	dir := t.TempDir()
	targetDir = dir
	t.Cleanup(func() { targetDir = "" })

	got, err := resolveTarget(config.Default())
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	targetDir = filepath.Join(dir, "missing")
	_, err = resolveTarget(config.Default())
	assert.Error(t, err)
}

func TestResolveTarget_NoTrees(t *testing.T) {
	c := config.Default()
	c.Paths.KernelsDir = filepath.Join(t.TempDir(), "kernels")

	_, err := resolveTarget(c)
	assert.ErrorContains(t, err, "no source trees found")
}

func TestNewScanner_Backends(t *testing.T) {
	c := config.Default()
	c.Scan.Backend = config.BackendBuiltin
	assert.IsType(t, &conflict.WalkScanner{}, newScanner(c, logging.Nop()))

	c.Scan.Backend = config.BackendRipgrep
	assert.IsType(t, &conflict.SearchScanner{}, newScanner(c, logging.Nop()))

	c.Scan.Backend = config.BackendAuto
	c.Tools.Search = filepath.Join(t.TempDir(), "no-rg")
	assert.IsType(t, &conflict.WalkScanner{}, newScanner(c, logging.Nop()))
}

func TestNewViewer_Builtin(t *testing.T) {
	c := config.Default()
	c.Tools.Pager = config.PagerBuiltin
	assert.IsType(t, ui.RangeViewer{}, newViewer(c, logging.Nop()))

	c.Tools.Pager = filepath.Join(t.TempDir(), "no-bat")
	assert.IsType(t, ui.RangeViewer{}, newViewer(c, logging.Nop()))
}

func TestCompleteLine(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join("series", "v2"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join("series", "0001-fix.patch"), nil, 0644))
	require.NoError(t, os.WriteFile("notes.txt", nil, 0644))

	assert.Equal(t, []string{"apply"}, completeLine("ap"))
	assert.Equal(t, []string{"apply series/"}, completeLine("apply ser"))
	assert.Equal(t, []string{"apply series/0001-fix.patch", "apply series/v2/"}, completeLine("apply series/"))
	assert.Empty(t, completeLine("apply no"))
	assert.Equal(t, []string{"scan -t series/"}, completeLine("scan -t se"))
	assert.Equal(t, []string{"apply -p series/v2/"}, completeLine("apply -p series/v"))
	assert.Empty(t, completeLine("resolve x"))
}

// Commands run in one shell session must not inherit each other's flags.
func TestShellSession_FlagsResetBetweenCommands(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	argLog := filepath.Join(dir, "patch-args.log")
	bin := filepath.Join(dir, "fake-patch")
	script := "#!/bin/sh\n[ \"$1\" = \"-R\" ] && exit 1\necho \"$*\" >> " + argLog + "\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0755))
	t.Setenv("KPATCH_TOOLS_PATCH", bin)
	t.Setenv("KPATCH_SCAN_BACKEND", config.BackendBuiltin)

	tree := filepath.Join(dir, "linux")
	require.NoError(t, os.MkdirAll(tree, 0755))
	patchFile := filepath.Join(dir, "0001.patch")
	require.NoError(t, os.WriteFile(patchFile, nil, 0644))

	session := newShellSession(context.Background())
	t.Cleanup(func() {
		session.resetFlags()
		cfg, logger, loggedWith = nil, nil, config.LoggingConfig{}
	})

	require.NoError(t, session.execute("apply --dry-run --fuzz 2 --log-level debug -p "+dir+" -t "+tree+" "+patchFile))
	assert.True(t, cfg.Patch.DryRun)
	assert.Equal(t, 2, cfg.Patch.Fuzz)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, dir, patchesDir)

	require.NoError(t, session.execute("apply -t "+tree+" "+patchFile))
	assert.False(t, cfg.Patch.DryRun)
	assert.Equal(t, 0, cfg.Patch.Fuzz)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Empty(t, patchesDir)

	data, err := os.ReadFile(argLog)
	require.NoError(t, err)
	calls := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0], "--dry-run")
	assert.Contains(t, calls[0], "--fuzz=2")
	assert.NotContains(t, calls[1], "--dry-run")
	assert.NotContains(t, calls[1], "--fuzz")
}
