package organizer

import (
	"fmt"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
)

// acquireLock takes an exclusive lock on path without waiting. The returned
// func releases it.
func acquireLock(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errcodes.Filesystem("couldn't lock "+path, errors.WithStack(err))
	}
	if !ok {
		return nil, errcodes.Configuration(fmt.Sprintf("Another run holds the lock file %s", path))
	}
	return func() { _ = lock.Unlock() }, nil
}
