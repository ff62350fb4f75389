// Package tempfile provides scoped, ephemeral configuration files for
// helper processes: the payload is written atomically, the path is unique
// per process lifetime, and the file is unlinked on drop regardless of how
// the owning strategy's slot was torn down.
package tempfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/oklog/ulid"
	"github.com/sirupsen/logrus"
)

// Root is the per-process temp directory new files are created under. It
// defaults to os.TempDir() and can be overridden (tests use a scratch
// directory).
var Root = os.TempDir()

// File is a scoped temp file: Path is published before Write is ever
// attempted, so a write failure still leaves a path that Release can
// (harmlessly) attempt to unlink, and a panic between acquisition and write
// does not leak an un-trackable path.
type File struct {
	Path string

	mu       sync.Mutex
	released bool
}

// Acquire reserves a unique path under Root for strategyID, without writing
// anything yet. The name always contains strategyID plus a random suffix, so
// two acquisitions for the same strategyID never collide.
func Acquire(strategyID string) *File {
	suffix := ulid.MustNew(ulid.Now(), nil).String()
	path := filepath.Join(Root, fmt.Sprintf("%s-%s.cfg", strategyID, suffix))
	return &File{Path: path}
}

// Write atomically writes payload to f.Path (write-to-temp, then rename
// within the same directory, via renameio), so a reader can never observe a
// partially-written file.
func (f *File) Write(payload []byte) error {
	return renameio.WriteFile(f.Path, payload, 0600)
}

// Release unlinks the file. Best-effort: failures are logged, never
// returned, and Release is idempotent.
func (f *File) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return
	}
	f.released = true

	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		logrus.WithFields(logrus.Fields{
			"component": "tempfile",
			"path":      f.Path,
		}).WithError(err).Warn("failed to unlink temp config file")
	}
}
