package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"magenta-backend/lib/configutil"
	"magenta-backend/lib/fetch"
	"magenta-backend/lib/scrapers"
	"magenta-backend/lib/scrapers/turkcell"
	"magenta-backend/lib/scrapers/vodafone"
	"magenta-backend/lib/serviceutil"
	"magenta-backend/lib/tariff"
	"magenta-backend/lib/telemetry"
	"magenta-backend/services/tariffs"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var configPath string
var outputPath string
var timeout time.Duration

var rootCmd = &cobra.Command{
	Use:   "tariff-cli",
	Short: "One-shot tariff extraction across all configured operator sites.",
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape every configured site and write the xlsx report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(false)

		cfg, err := configutil.ReadConfig[tariffs.Config](configPath)
		if err != nil {
			return fmt.Errorf("read config %s: %w", configPath, err)
		}
		if outputPath != "" {
			cfg.OutputFile = outputPath
		}

		ctx, cancel := context.WithTimeout(serviceutil.SignalContext(), timeout)
		defer cancel()

		fallback, err := fetch.NewClient()
		if err != nil {
			return err
		}
		registry := scrapers.NewRegistry(
			vodafone.New(vodafone.DefaultConfig(), fallback),
			turkcell.NewExisting(turkcell.DefaultExistingConfig(), fallback),
			turkcell.NewCatalog(turkcell.DefaultCatalogConfig(), fallback),
		)
		service := tariffs.NewService(ctx, cfg, registry)

		records, diags, err := service.ScrapeAll(ctx)
		if err != nil {
			return err
		}

		renderRecords(records)
		for _, d := range diags {
			fmt.Fprintf(os.Stderr, "note [%s]: %s\n", d.Stage, d.Detail)
		}
		fmt.Printf("\n%d tariffs extracted", len(records))
		if cfg.OutputFile != "" && len(records) > 0 {
			fmt.Printf(", report written to %s", cfg.OutputFile)
		}
		fmt.Println()
		return nil
	},
}

func renderRecords(records []tariff.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Category", "Name", "GB", "Minutes", "SMS", "Price", "No-Commitment", "Provider"})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.Category, r.Name, r.GB, r.Minutes, r.SMS, r.Price, r.NoCommitmentPrice, r.Provider,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func main() {
	scrapeCmd.Flags().StringVarP(&configPath, "config", "c", "config.json5", "Path to the site configuration.")
	scrapeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Override the configured report path.")
	scrapeCmd.Flags().DurationVar(&timeout, "timeout", 15*time.Minute, "Abort the whole run after this long.")
	rootCmd.AddCommand(scrapeCmd)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
