package organizer

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
)

// ListFiles returns every regular file under root whose name doesn't start
// with a dot, sorted by file name (not path). Hidden directories are still
// descended into.
func ListFiles(root string, reverse bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errcodes.Filesystem("couldn't list "+root, errors.WithStack(err))
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := filepath.Base(files[i]), filepath.Base(files[j])
		if reverse {
			return a > b
		}
		return a < b
	})
	return files, nil
}
