package alerting

import (
	"sync"

	"github.com/medisync/dose-alert/pkg/types"
)

// MemorySink holds the currently displayed notification for the attached
// UI. Dismissing clears the payload and visibility flag only; it never
// touches the scheduler's fired sets, so a dismissed alert stays fired.
type MemorySink struct {
	mu      sync.Mutex
	current *types.DoseNotification
	visible bool
}

// NewMemorySink creates an empty notification sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Show replaces the displayed notification
func (m *MemorySink) Show(notification *types.DoseNotification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = notification
	m.visible = true
}

// Dismiss clears the displayed notification. Idempotent.
func (m *MemorySink) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.visible = false
}

// Current returns the displayed notification and whether one is visible
func (m *MemorySink) Current() (*types.DoseNotification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.visible
}
