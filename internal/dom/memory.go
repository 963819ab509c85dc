package dom

import (
	"context"
	"sync"
)

// Memory is an in-process document head holding at most one style node.
type Memory struct {
	mu       sync.RWMutex
	present  bool
	text     string
	inserts  int
	detached bool
}

var _ Document = (*Memory)(nil)

// NewMemory returns an empty document.
func NewMemory() *Memory { return &Memory{} }

// Seed installs a pre-existing style node, as if another script had already
// written one into the page.
func (m *Memory) Seed(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.present = true
	m.text = text
}

func (m *Memory) EnsureStyle(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return "", false, ErrDetached
	}
	if m.present {
		return m.text, false, nil
	}
	m.present = true
	m.text = ""
	m.inserts++
	return "", true, nil
}

func (m *Memory) SetStyleText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return ErrDetached
	}
	if !m.present {
		return ErrNoStyle
	}
	m.text = text
	return nil
}

func (m *Memory) RemoveStyle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detached {
		return ErrDetached
	}
	m.present = false
	m.text = ""
	return nil
}

// Text returns the style node's content, empty when there is no node.
func (m *Memory) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text
}

// Exists reports whether the style node is in the document.
func (m *Memory) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.present
}

// Inserts counts how many style nodes were ever created.
func (m *Memory) Inserts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inserts
}

// Detach makes every further mutation fail with ErrDetached.
func (m *Memory) Detach() {
	m.mu.Lock()
	m.detached = true
	m.mu.Unlock()
}

// Attach undoes Detach.
func (m *Memory) Attach() {
	m.mu.Lock()
	m.detached = false
	m.mu.Unlock()
}
