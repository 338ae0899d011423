package patch

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/corpeningc/kpatch/internal/errors"
)

// Extension marks files Discover picks up.
const Extension = ".patch"

// Discover returns every .patch file under dir in lexical path order, which
// is the order numbered patch series are meant to be applied in.
func Discover(dir string) ([]string, error) {
	var patches []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.NewIOError("walk", path, err)
		}
		if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(path), Extension) {
			patches = append(patches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patches, nil
}
