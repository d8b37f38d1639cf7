package notify

import (
	"context"
	"fmt"
	"sync"
)

// MemoryPublisher records events instead of sending them.
type MemoryPublisher struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemory returns an empty MemoryPublisher.
func NewMemory() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish records ev and returns a pseudo id.
func (p *MemoryPublisher) Publish(_ context.Context, ev Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return fmt.Sprintf("memory-%d", len(p.events)), nil
}

// Events returns a copy of the recorded events.
func (p *MemoryPublisher) Events() []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
