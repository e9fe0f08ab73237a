package adapters

import (
	"fmt"
	"strings"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway/domain"
)

// knownProviders is the catalog of provider names the platform recognizes.
// A name in this list without a registered factory is a deployment that asked
// for a provider we have not built yet, which is an internal error rather than
// a bad request.
var knownProviders = map[string]struct{}{
	"lemonsqueezy": {},
	"stripe":       {},
	"paddle":       {},
}

type Registry struct {
	factories map[string]domain.Factory
}

func NewRegistry(factories ...domain.Factory) *Registry {
	registry := &Registry{factories: map[string]domain.Factory{}}
	for _, factory := range factories {
		if factory == nil {
			continue
		}
		provider := strings.ToLower(strings.TrimSpace(factory.Provider()))
		if provider == "" {
			continue
		}
		registry.factories[provider] = factory
	}
	return registry
}

func (r *Registry) ProviderExists(provider string) bool {
	if r == nil {
		return false
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	_, ok := r.factories[provider]
	return ok
}

// NewProvider resolves the named provider into a configured adapter.
func (r *Registry) NewProvider(provider string, cfg domain.AdapterConfig) (domain.Provider, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	factory, ok := r.factories[provider]
	if !ok {
		if _, known := knownProviders[provider]; known {
			return nil, fmt.Errorf("%w: %s has no adapter", domain.ErrProviderNotImplemented, provider)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotFound, provider)
	}
	return factory.New(cfg)
}
