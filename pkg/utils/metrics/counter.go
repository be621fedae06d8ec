package metrics

import "sync"

// Counter is the minimal emission surface the engine needs: tier
// distribution, stream failures, degraded calls. Keeping it an interface
// keeps the pipeline free of module-level mutable state.
type Counter interface {
	Inc(name string)
}

type discard struct{}

func (discard) Inc(string) {}

// Discard drops every count.
var Discard Counter = discard{}

// InMemory accumulates counts per process. Safe for concurrent use.
type InMemory struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewInMemory() *InMemory {
	return &InMemory{counts: make(map[string]int64)}
}

func (m *InMemory) Inc(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name]++
}

// Get returns the current count for a name.
func (m *InMemory) Get(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

// Snapshot copies all counts.
func (m *InMemory) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}
