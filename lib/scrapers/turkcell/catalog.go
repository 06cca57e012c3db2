// Package turkcell extracts tariffs from the two Turkcell surfaces:
// the new-customer package catalog (flat card list) and the
// existing-customer listing, which only links out to per-tariff
// detail pages.
package turkcell

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"magenta-backend/lib/browser"
	"magenta-backend/lib/fetch"
	"magenta-backend/lib/tariff"
	"magenta-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("magenta.scrapers.turkcell")

const catalogProvider = "turkcell"

// DefaultClassifier is the current segment naming; site config can
// replace the table when the operator renames them again.
func DefaultClassifier() tariff.Classifier {
	return tariff.Classifier{
		Rules: []tariff.Rule{
			{Contains: "platinum", Category: "Platinum Tarifeleri"},
			{Contains: "gnç", Category: "GNÇ Tarifeleri"},
			{Contains: "star", Category: "Star Tarifeleri"},
			{Contains: "esneyen", Category: "Esneyen Tarifeler"},
		},
		Default: tariff.DefaultCategory,
	}
}

type CatalogConfig struct {
	CardSelector    string
	TitleSelector   string
	BadgeSelector   string
	GBSelector      string
	MinutesSelector string
	PriceSelector   string
	CookieSelector  string
	// NotifySelector is the secondary campaign/notification overlay.
	NotifySelector string
	Anchor         string
	AnchorTimeout  time.Duration
	ScrollCycles   int
	ScrollPx       int
	ScrollSettle   time.Duration

	// PricePatterns run over the dedicated price element's text.
	PricePatterns []*regexp.Regexp
	GBPattern     *regexp.Regexp
	DKPattern     *regexp.Regexp
	SMSPatterns   []*regexp.Regexp
	Classifier    tariff.Classifier
	Modal         browser.ModalConfig
}

func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		CardSelector:    ".package-card, .tariff-card",
		TitleSelector:   ".package-card__title, h3",
		BadgeSelector:   ".package-card__badge, .badge",
		GBSelector:      ".package-card__internet, .internet",
		MinutesSelector: ".package-card__minutes, .minutes",
		PriceSelector:   ".package-card__price, .price",
		CookieSelector:  "#onetrust-reject-all-handler",
		NotifySelector:  `//button[contains(., "Daha sonra")]`,
		Anchor:          ".package-card, .tariff-card",
		AnchorTimeout:   time.Second * 20,
		ScrollCycles:    10,
		ScrollPx:        1000,
		ScrollSettle:    time.Millisecond * 500,
		PricePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(\d{2,4})\s*TL`),
			regexp.MustCompile(`₺\s*(\d{2,4})`),
			regexp.MustCompile(`(\d{2,4})`),
		},
		GBPattern: regexp.MustCompile(`(?i)(\d+)\s*GB`),
		DKPattern: regexp.MustCompile(`(?i)(\d+)\s*(?:DK|Dakika)`),
		SMSPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\d+)\s*SMS`),
		},
		Classifier: DefaultClassifier(),
		Modal: browser.ModalConfig{
			OpenText:        "Detay",
			OverlaySelector: `[role="dialog"], .modal-content`,
			CloseSelector:   `button[aria-label="Close"]`,
			CloseTextHints:  []string{"✕", "X", "Kapat"},
			PopulateDelay:   time.Millisecond * 800,
			CloseDelay:      time.Millisecond * 500,
		},
	}
}

// Catalog is the flat-card strategy for the new-customer package
// page: every card carries dedicated sub-elements for data, minutes
// and price, and the SMS allowance only shows up inside the details
// overlay.
type Catalog struct {
	cfg      CatalogConfig
	fallback *fetch.Client
}

func NewCatalog(cfg CatalogConfig, fallback *fetch.Client) *Catalog {
	return &Catalog{cfg: cfg, fallback: fallback}
}

func (c *Catalog) Provider() string { return catalogProvider }

func (c *Catalog) Match(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "turkcell") && !strings.Contains(lower, "paket-ve-tarifeler")
}

func (c *Catalog) Scrape(ctx context.Context, session *browser.Session, url string, diags *tariff.Diagnostics) ([]tariff.Record, error) {
	ctx, span := tracer.Start(ctx, "Catalog.Scrape")
	defer span.End()

	page := session.Page()
	err := page.Navigate(url, c.cfg.Anchor, c.cfg.AnchorTimeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		return c.scrapeStatic(ctx, url, diags, err)
	}

	page.DismissOverlay(c.cfg.CookieSelector, time.Second*5)
	page.DismissOverlay(c.cfg.NotifySelector, time.Second*3)
	page.ScrollCycles(c.cfg.ScrollCycles, c.cfg.ScrollPx, c.cfg.ScrollSettle)

	var records []tariff.Record
	cards := page.Nodes(c.cfg.CardSelector, nil, time.Second*5)
	if len(cards) == 0 {
		diags.Add("cards", "no %q cards found", c.cfg.CardSelector)
	}
	for _, card := range cards {
		doc, err := page.Doc(card)
		if err != nil {
			diags.Add("card", "failed to materialize card: %s", err)
			continue
		}
		record, ok := c.extractCard(doc.Selection, diags)
		if !ok {
			continue
		}

		if modalText, ok := page.OpenModal(card, c.cfg.Modal); ok {
			record.SMS = matchFirstGroup(c.cfg.SMSPatterns, modalText)
		}
		records = append(records, record)
	}

	slog.InfoContext(ctx, "turkcell catalog extraction finished", "records", len(records))
	return records, nil
}

// extractCard reads the dedicated sub-elements of one card. The badge
// feeds the classifier; a badge no rule matched still names its own
// category via the suffixing rule.
func (c *Catalog) extractCard(card *goquery.Selection, diags *tariff.Diagnostics) (tariff.Record, bool) {
	title := textutil.CleanLine(card.Find(c.cfg.TitleSelector).First().Text())
	badge := textutil.CleanLine(card.Find(c.cfg.BadgeSelector).First().Text())

	gb := firstGroupOf(c.cfg.GBPattern, card.Find(c.cfg.GBSelector).Text())
	price := matchFirstGroup(c.cfg.PricePatterns, card.Find(c.cfg.PriceSelector).Text())
	if gb == "" || price == "" {
		diags.Add("parse", "card %q lacked price or data allowance", title)
		return tariff.Record{}, false
	}

	category, matched := c.cfg.Classifier.Match(title, badge)
	if !matched && badge != "" {
		category = badge + " Tarifeleri"
	}

	return tariff.Record{
		Category: category,
		Name:     textutil.Truncate(title, tariff.MaxNameLength),
		GB:       gb,
		Minutes:  firstGroupOf(c.cfg.DKPattern, card.Find(c.cfg.MinutesSelector).Text()),
		Price:    atoi(price),
		Provider: catalogProvider,
	}, true
}

func (c *Catalog) scrapeStatic(ctx context.Context, url string, diags *tariff.Diagnostics, navErr error) ([]tariff.Record, error) {
	if c.fallback == nil {
		return nil, navErr
	}
	doc, err := c.fallback.Document(ctx, url)
	if err != nil {
		diags.Add("fallback", "static fetch failed: %s", err)
		return nil, navErr
	}
	diags.Add("fallback", "extracted from static HTML, overlay fields unavailable")

	var records []tariff.Record
	doc.Find(c.cfg.CardSelector).Each(func(_ int, card *goquery.Selection) {
		record, ok := c.extractCard(card, diags)
		if ok {
			records = append(records, record)
		}
	})
	return records, nil
}
