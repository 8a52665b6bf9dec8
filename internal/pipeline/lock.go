package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"sfmbundle/internal/services"
)

// LockFile is the advisory lock created in the working directory.
const LockFile = ".sfmbundle.lock"

func acquireLock(dir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "lock", "",
			"another sfmbundle run is using "+dir, nil)
	}
	return lock, nil
}
