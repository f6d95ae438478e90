package channel

import "sync"

// Registry hands out exactly one channel instance per ID, shared across
// every worker goroutine in the job. Exchange, Broadcast, and Aggregate
// channels are cross-worker by construction (many pushers, several or
// one puller), so every worker's identical dataflow build must resolve
// to the same underlying instance for a given channel ID; Pipeline
// channels never go through the registry since they are intra-thread by
// definition (spec.md §4.3).
type Registry struct {
	mu   sync.Mutex
	byID map[ID]any
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[ID]any)}
}

// GetOrCreate returns the existing instance registered under id, or
// calls create and registers its result if none exists yet. Declared as
// a free function (not a Registry method) because Go methods cannot
// introduce their own type parameters.
func GetOrCreate[T any](r *Registry, id ID, create func() T) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.byID[id]; ok {
		return v.(T)
	}
	v := create()
	r.byID[id] = v
	return v
}
