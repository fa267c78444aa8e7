package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a provider instance from validated credentials.
type Factory func(creds Credentials) (Provider, error)

// ConfigurationError reports an unresolvable variant or missing credentials.
// It is deliberately not part of the provider error taxonomy: it never
// crosses a provider call boundary.
type ConfigurationError struct {
	Variant string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider configuration error (%s): %s", e.Variant, e.Reason)
}

// Registry resolves (variant name, credentials) into live provider
// instances. Instances are cached per (user, variant, credential
// fingerprint) so repeated resolutions do not redo authentication
// handshakes; construction is single-flight under concurrent first access.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	cache     map[string]*cacheEntry
}

type cacheEntry struct {
	once     sync.Once
	provider Provider
	err      error
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		cache:     make(map[string]*cacheEntry),
	}
}

// Register adds a variant implementation by name. The variant set is open;
// nothing outside the registry hard-codes backend names.
func (r *Registry) Register(name string, factory Factory) {
	name = normalizeVariant(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

func (r *Registry) Variants() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns a live provider for the given variant and credentials,
// reusing a cached instance when the same configuration is requested again.
func (r *Registry) Resolve(userID int64, variant string, creds Credentials) (Provider, error) {
	variant = normalizeVariant(variant)

	r.mu.Lock()
	factory, ok := r.factories[variant]
	if !ok {
		available := make([]string, 0, len(r.factories))
		for name := range r.factories {
			available = append(available, name)
		}
		sort.Strings(available)
		r.mu.Unlock()
		return nil, &ConfigurationError{
			Variant: variant,
			Reason:  fmt.Sprintf("unsupported variant, available: %s", strings.Join(available, ", ")),
		}
	}
	if creds.Empty() {
		r.mu.Unlock()
		return nil, &ConfigurationError{Variant: variant, Reason: "credentials are required"}
	}

	key := fmt.Sprintf("%d|%s|%s", userID, variant, creds.Fingerprint())
	entry, ok := r.cache[key]
	if !ok {
		entry = &cacheEntry{}
		r.cache[key] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		entry.provider, entry.err = factory(creds)
	})

	if entry.err != nil {
		// Drop failed constructions so a later attempt can start over.
		r.mu.Lock()
		if r.cache[key] == entry {
			delete(r.cache, key)
		}
		r.mu.Unlock()
		return nil, entry.err
	}
	return entry.provider, nil
}

// Invalidate evicts every cached instance for a user's variant, forcing the
// next resolution to construct fresh. Used when credentials are rotated.
func (r *Registry) Invalidate(userID int64, variant string) {
	prefix := fmt.Sprintf("%d|%s|", userID, normalizeVariant(variant))
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.cache {
		if strings.HasPrefix(key, prefix) {
			delete(r.cache, key)
		}
	}
}

func normalizeVariant(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
