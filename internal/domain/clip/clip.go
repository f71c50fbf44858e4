// Package clip provides the Clip domain entity.
package clip

import (
	"path/filepath"
	"strings"
	"time"
)

// Clip is an opaque handle to an audio asset.
// Sessions compare clips by identity, so callers should keep one *Clip per asset.
type Clip struct {
	Name     string        // Display name
	Path     string        // Asset location understood by the playback backend
	Duration time.Duration // Declared length (used by the virtual backend, 0 if unknown)
}

// New creates a clip for the given path. The name is derived from the file name.
func New(path string, duration time.Duration) *Clip {
	return &Clip{
		Name:     nameFromPath(path),
		Path:     path,
		Duration: duration,
	}
}

// String returns the clip name.
func (c *Clip) String() string {
	if c == nil {
		return "<nil>"
	}
	return c.Name
}

func nameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
