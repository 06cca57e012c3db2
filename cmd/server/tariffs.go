package main

import (
	"context"

	"magenta-backend/lib/fetch"
	"magenta-backend/lib/scrapers"
	"magenta-backend/lib/scrapers/turkcell"
	"magenta-backend/lib/scrapers/vodafone"
	"magenta-backend/services/tariffs"
)

func initTariffs(ctx context.Context, cfg tariffs.Config) (*tariffs.Service, error) {
	fallback, err := fetch.NewClient()
	if err != nil {
		return nil, err
	}

	registry := scrapers.NewRegistry(
		vodafone.New(vodafone.DefaultConfig(), fallback),
		turkcell.NewExisting(turkcell.DefaultExistingConfig(), fallback),
		turkcell.NewCatalog(turkcell.DefaultCatalogConfig(), fallback),
	)

	return tariffs.NewService(ctx, cfg, registry), nil
}
