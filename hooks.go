package lookupsync

import (
	"sync"

	"github.com/agentstation/lookupsync/pkg/reconciler"
	"github.com/agentstation/lookupsync/pkg/writeback"
)

// Hook function types for run events
type (
	// MappingsHook is called after a reconciliation phase ("lookup" or
	// "master") passed its duplicate check
	MappingsHook func(phase string, mappings reconciler.Mappings)

	// ItemsHook is called with the propagated master items before they are written
	ItemsHook func(items []reconciler.MasterItemMapping)

	// WrittenHook is called after the writer finished
	WrittenHook func(result *writeback.Result)
)

// Hooks allows registering callbacks for run events.
type Hooks interface {
	OnMappings(fn MappingsHook)
	OnItems(fn ItemsHook)
	OnWritten(fn WrittenHook)
}

// hooks manages event callbacks for a client
type hooks struct {
	mu         sync.RWMutex
	onMappings []MappingsHook
	onItems    []ItemsHook
	onWritten  []WrittenHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnMappings registers a callback for accepted mappings
func (h *hooks) OnMappings(fn MappingsHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMappings = append(h.onMappings, fn)
}

// OnItems registers a callback for propagated master items
func (h *hooks) OnItems(fn ItemsHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onItems = append(h.onItems, fn)
}

// OnWritten registers a callback for the write result
func (h *hooks) OnWritten(fn WrittenHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onWritten = append(h.onWritten, fn)
}

func (h *hooks) triggerMappings(phase string, m reconciler.Mappings) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onMappings {
		fn(phase, m)
	}
}

func (h *hooks) triggerItems(items []reconciler.MasterItemMapping) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onItems {
		fn(items)
	}
}

func (h *hooks) triggerWritten(result *writeback.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onWritten {
		fn(result)
	}
}

// OnMappings registers a callback on the client's hooks
func (c *client) OnMappings(fn MappingsHook) { c.hooks.OnMappings(fn) }

// OnItems registers a callback on the client's hooks
func (c *client) OnItems(fn ItemsHook) { c.hooks.OnItems(fn) }

// OnWritten registers a callback on the client's hooks
func (c *client) OnWritten(fn WrittenHook) { c.hooks.OnWritten(fn) }
