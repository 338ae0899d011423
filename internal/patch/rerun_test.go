package patch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/corpeningc/kpatch/internal/conflict"
	"github.com/corpeningc/kpatch/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const renamePatch = `--- a/lib/list.c
+++ b/lib/list.c
@@ -1,3 +1,3 @@
 one
-two
+TWO
 three
`

// Running a series twice with GNU patch must leave the tree as the first run
// did. In merge mode patch rewrites an applied hunk as a conflict instead of
// skipping it, so the second run relies on the applied check.
func TestOrchestrator_RerunWithPatchTool(t *testing.T) {
	if !tools.Available("patch") {
		t.Skip("patch not installed")
	}

	target := t.TempDir()
	file := filepath.Join(target, "lib", "list.c")
	writeFile(t, file, "one", "two", "three")

	patchFile := filepath.Join(t.TempDir(), "0001-rename.patch")
	require.NoError(t, os.WriteFile(patchFile, []byte(renamePatch), 0644))

	run := func() *Report {
		patcher := tools.NewPatchTool("patch", 1, 0, false, nil)
		resolver := &stubResolver{}
		o := NewOrchestrator(patcher, conflict.NewWalkScanner(1, nil, nil), resolver, nil, nil)

		report, err := o.Run(context.Background(), target, []string{patchFile})
		require.NoError(t, err)
		assert.False(t, resolver.called)
		return report
	}

	first := run()
	assert.Equal(t, []string{patchFile}, first.Applied)

	second := run()
	assert.Empty(t, second.Applied)
	assert.Equal(t, []string{patchFile}, second.Skipped)
	assert.True(t, second.Complete())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "one\nTWO\nthree\n", string(data))
}
