// Package indexing switches automatic indexing on and off.
package indexing

import "sync"

// Toggle holds whether indexing and unindexing run. Scopes opened with
// Disable or Enable restore the state they found when their restore func
// is called, so nested scopes unwind in reverse order.
type Toggle struct {
	mu      sync.RWMutex
	enabled bool
}

// NewToggle returns a toggle in the given state.
func NewToggle(enabled bool) *Toggle {
	return &Toggle{enabled: enabled}
}

// Enabled reports whether indexing runs. A nil Toggle is enabled.
func (t *Toggle) Enabled() bool {
	if t == nil {
		return true
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Disable turns indexing off and returns a func restoring the previous state.
func (t *Toggle) Disable() (restore func()) { return t.set(false) }

// Enable turns indexing on and returns a func restoring the previous state.
func (t *Toggle) Enable() (restore func()) { return t.set(true) }

func (t *Toggle) set(v bool) func() {
	t.mu.Lock()
	prev := t.enabled
	t.enabled = v
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			t.enabled = prev
			t.mu.Unlock()
		})
	}
}

// WithDisabled runs fn with indexing off.
func (t *Toggle) WithDisabled(fn func() error) error {
	restore := t.Disable()
	defer restore()
	return fn()
}

// WithEnabled runs fn with indexing on.
func (t *Toggle) WithEnabled(fn func() error) error {
	restore := t.Enable()
	defer restore()
	return fn()
}
