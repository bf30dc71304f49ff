package save

import (
	"os"
	"sync"
)

// Artifact is a transient reference to a compressed save, backed by a
// temporary file. It is owned exclusively by the ExecuteSave invocation that
// created it and must be released at cleanup.
type Artifact struct {
	Filename string
	Path     string
	Size     int64

	mu       sync.Mutex
	released bool
}

// Release removes the backing file. Safe to call more than once; only the
// first call has an effect.
func (a *Artifact) Release() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return nil
	}
	a.released = true
	if a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Released reports whether the artifact has been released.
func (a *Artifact) Released() bool {
	if a == nil {
		return true
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}
