package build

import (
	"sort"
	"sync"
)

type entryState int

const (
	statePending entryState = iota
	stateGenerated
	stateFailed
)

type entry struct {
	state entryState
	name  string // emitted URI, hashed unless dry run
	err   error
}

// Registry deduplicates derivative requests by target URI for one build.
// The first claim of a URI generates it; later claims are cache hits.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Claim reports whether the caller should generate uri.
func (r *Registry) Claim(uri string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[uri]; exists {
		return false
	}
	r.entries[uri] = &entry{state: statePending}
	return true
}

// Resolve records the emitted name of uri.
func (r *Registry) Resolve(uri, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[uri] = &entry{state: stateGenerated, name: name}
}

// Fail records that uri could not be generated.
func (r *Registry) Fail(uri string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[uri] = &entry{state: stateFailed, err: err}
}

// Generated checks if uri was generated.
func (r *Registry) Generated(uri string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[uri]
	return ok && e.state == stateGenerated
}

// Emitted returns the emitted name of uri, or uri itself if it was not generated.
func (r *Registry) Emitted(uri string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[uri]; ok && e.state == stateGenerated {
		return e.name
	}
	return uri
}

// Failures returns the failed URIs (sorted).
func (r *Registry) Failures() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var uris []string
	for uri, e := range r.entries {
		if e.state == stateFailed {
			uris = append(uris, uri)
		}
	}
	sort.Strings(uris)
	return uris
}

// Count returns the number of claimed URIs.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
