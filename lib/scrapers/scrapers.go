// Package scrapers defines the contract every provider extraction
// strategy implements and the registry that routes a configured site
// URL to the strategy that knows how to read it.
package scrapers

import (
	"context"

	"magenta-backend/lib/browser"
	"magenta-backend/lib/tariff"
)

// Strategy is one provider's way of turning a prepared page into raw
// tariff records. Implementations own their selectors, pattern
// families and timing parameters as data; control flow stays generic.
type Strategy interface {
	// Provider is the stable key records are attributed to.
	Provider() string
	// Match reports whether this strategy can extract from url.
	Match(url string) bool
	// Scrape drives the session against url and returns whatever
	// records could be extracted. Per-card failures are recorded in
	// diags and skipped; only a top-level navigation failure is
	// returned as an error.
	Scrape(ctx context.Context, session *browser.Session, url string, diags *tariff.Diagnostics) ([]tariff.Record, error)
}

type Registry struct {
	strategies []Strategy
}

func NewRegistry(strategies ...Strategy) *Registry {
	return &Registry{strategies: strategies}
}

// Match returns the first strategy claiming url, or nil. A nil result
// is a skip-with-warning at the call site, not an error.
func (r *Registry) Match(url string) Strategy {
	for _, s := range r.strategies {
		if s.Match(url) {
			return s
		}
	}
	return nil
}

// ByProvider looks a strategy up by its provider key.
func (r *Registry) ByProvider(provider string) Strategy {
	for _, s := range r.strategies {
		if s.Provider() == provider {
			return s
		}
	}
	return nil
}
