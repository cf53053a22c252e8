package providers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"encodeforge/internal/fingerprint"
)

// Candidate is one subtitle offer from one source. (Provider, FileID) is
// intended to be unique; FileID is only meaningful within its provider.
type Candidate struct {
	Provider    string
	FileID      string
	Language    string // as reported by the source; canonicalized at ranking
	Format      string // "srt", "ass", ...
	Release     string // display name of the release/file
	DownloadURL string // URL or opaque token the owning adapter understands
	Downloads   int
	Rating      float64
	ManualOnly  bool
	Score       float64 // assigned by the ranking engine, zero until scored
}

// Payload is the result of retrieving a candidate. Either Data holds the raw
// subtitle bytes (possibly gzip- or zip-framed; the retrieval dispatcher
// normalizes that), or Manual is set and Instructions carries human-readable
// download steps. A manual outcome is an expected result, not an error.
type Payload struct {
	Data         []byte
	FileName     string
	Manual       bool
	Instructions string
	// SourceEncoding names the provider's native text encoding when it is not
	// UTF-8 (e.g. "latin1"). The dispatcher re-encodes on a best-effort basis.
	SourceEncoding string
}

// Provider is the capability pair every subtitle source implements.
//
// Search never returns an error for ordinary network or parse failures; it
// logs and returns an empty list so one source's trouble cannot affect the
// rest of a search. Retrieve does return errors, because the caller chose a
// specific candidate and needs to know why it could not be fetched.
type Provider interface {
	// Name is the registry key, lowercase.
	Name() string

	// Languages lists the ISO 639-2 codes the source specializes in.
	// Empty means the source covers every language. The orchestrator skips a
	// provider whose specialty does not intersect the request, before any
	// network traffic happens.
	Languages() []string

	Search(ctx context.Context, fp fingerprint.MediaFingerprint, languages []string) ([]Candidate, error)

	Retrieve(ctx context.Context, candidate Candidate) (Payload, error)
}

// ErrUnknownProvider is returned when retrieval names a provider that was
// never registered.
var ErrUnknownProvider = errors.New("unknown subtitle provider")

// Registry holds providers keyed by name and remembers registration priority.
// Both search and retrieval dispatch by name through it.
type Registry struct {
	mu         sync.RWMutex
	providers  map[string]Provider
	priorities map[string]int
	order      int
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		providers:  make(map[string]Provider),
		priorities: make(map[string]int),
	}
}

// Register adds a provider. Registration order is priority order: the
// single-file orchestrator walks providers in the sequence they were
// registered, so register the most trusted source first.
func (r *Registry) Register(p Provider) {
	name := strings.ToLower(strings.TrimSpace(p.Name()))
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; exists {
		return
	}
	r.providers[name] = p
	r.priorities[name] = r.order
	r.order++
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Ordered returns all providers in registration (priority) order.
func (r *Registry) Ordered() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return r.priorities[names[i]] < r.priorities[names[j]]
	})
	ordered := make([]Provider, 0, len(names))
	for _, name := range names {
		ordered = append(ordered, r.providers[name])
	}
	return ordered
}

// Len reports the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
