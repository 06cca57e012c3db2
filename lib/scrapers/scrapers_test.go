package scrapers_test

import (
	"context"
	"strings"
	"testing"

	"magenta-backend/lib/browser"
	"magenta-backend/lib/scrapers"
	"magenta-backend/lib/scrapers/turkcell"
	"magenta-backend/lib/scrapers/vodafone"
	"magenta-backend/lib/tariff"

	"github.com/stretchr/testify/require"
)

type fakeStrategy struct {
	provider string
	substr   string
}

func (f fakeStrategy) Provider() string { return f.provider }

func (f fakeStrategy) Match(url string) bool { return strings.Contains(url, f.substr) }

func (f fakeStrategy) Scrape(ctx context.Context, session *browser.Session, url string, diags *tariff.Diagnostics) ([]tariff.Record, error) {
	return nil, nil
}

func TestRegistryMatch(t *testing.T) {
	first := fakeStrategy{provider: "first", substr: "alpha"}
	second := fakeStrategy{provider: "second", substr: "beta"}
	registry := scrapers.NewRegistry(first, second)

	require.Equal(t, "first", registry.Match("https://alpha.example/tarifeler").Provider())
	require.Equal(t, "second", registry.Match("https://beta.example/").Provider())
	require.Nil(t, registry.Match("https://gamma.example/"))
}

func TestRegistryByProvider(t *testing.T) {
	first := fakeStrategy{provider: "first", substr: "alpha"}
	registry := scrapers.NewRegistry(first)

	require.Equal(t, first, registry.ByProvider("first"))
	require.Nil(t, registry.ByProvider("missing"))
}

func TestDefaultStrategiesRouteConfiguredSites(t *testing.T) {
	registry := scrapers.NewRegistry(
		vodafone.New(vodafone.DefaultConfig(), nil),
		turkcell.NewExisting(turkcell.DefaultExistingConfig(), nil),
		turkcell.NewCatalog(turkcell.DefaultCatalogConfig(), nil),
	)

	testCases := []struct {
		url      string
		provider string
	}{
		{"https://www.vodafone.com.tr/numara-tasima/tarifeler", "vodafone"},
		{"https://www.turkcell.com.tr/paket-secimi", "turkcell"},
		{"https://www.turkcell.com.tr/paket-ve-tarifeler?paymentType=faturali-hat", "turkcell_mevcut"},
	}
	for _, test := range testCases {
		strategy := registry.Match(test.url)
		require.NotNil(t, strategy, test.url)
		require.Equal(t, test.provider, strategy.Provider())
	}

	require.Nil(t, registry.Match("https://www.example.com/unrelated"))
}
