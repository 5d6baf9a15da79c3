package scanner

import (
	"context"
	"fmt"
	"sort"

	"SentimentMonitor/internal/domain"
)

// Source captures a single platform adapter (search index, social platform, official account).
type Source interface {
	Name() domain.Source
	// Search walks at most maxUnits pages or scroll iterations for term. Per-unit
	// failures end the walk and return what was collected so far.
	Search(ctx context.Context, term string, maxUnits int) ([]domain.Record, error)
}

// SessionHolder is implemented by adapters that own credential state.
type SessionHolder interface {
	LoadSession(ctx context.Context) error
	SaveSession(ctx context.Context) error
}

// CheckUnits rejects negative unit counts, the only fail-fast contract violation.
func CheckUnits(maxUnits int) error {
	if maxUnits < 0 {
		return fmt.Errorf("max units %d: %w", maxUnits, domain.ErrInvalidArgument)
	}
	return nil
}

// Registry keeps a mapping from platform keys to their adapters.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces an adapter under key.
func (r *Registry) Register(key string, source Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	r.sources[key] = source
}

// Resolve returns an adapter by key or an error if it is absent.
func (r *Registry) Resolve(key string) (Source, error) {
	if source, ok := r.sources[key]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("source %s is not registered", key)
}

// Keys lists registered platform keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.sources))
	for k := range r.sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
