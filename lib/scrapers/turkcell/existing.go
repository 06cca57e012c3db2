package turkcell

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"magenta-backend/lib/browser"
	"magenta-backend/lib/fetch"
	"magenta-backend/lib/htmlutil"
	"magenta-backend/lib/tariff"
	"magenta-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const existingProvider = "turkcell_mevcut"

type ExistingConfig struct {
	// LinkSelector collects the per-tariff detail links off the
	// listing page.
	LinkSelector   string
	CookieSelector string
	Anchor         string
	AnchorTimeout  time.Duration
	ScrollCycles   int
	ScrollPx       int
	ScrollSettle   time.Duration
	// DetailSettle gives a detail page time to hydrate before its
	// body text is read.
	DetailSettle time.Duration

	// AnnualPatterns recover the committed price from the detail
	// page body; MonthlyPatterns the no-commitment monthly price.
	// The two families are independent on purpose, the site words
	// them differently.
	AnnualPatterns  []*regexp.Regexp
	MonthlyPatterns []*regexp.Regexp
	// Radio fallback: labels containing these tokens are scanned
	// when the body-text patterns come up empty.
	YearlyTokens  []string
	MonthlyTokens []string
	RadioSelector string
	DigitsPattern *regexp.Regexp

	GBPattern  *regexp.Regexp
	DKPattern  *regexp.Regexp
	SMSPattern *regexp.Regexp
	Classifier tariff.Classifier
}

func DefaultExistingConfig() ExistingConfig {
	return ExistingConfig{
		LinkSelector:   `a[href*="/paket-ve-tarifeler/"]`,
		CookieSelector: "#onetrust-reject-all-handler",
		Anchor:         `a[href*="/paket-ve-tarifeler/"]`,
		AnchorTimeout:  time.Second * 20,
		ScrollCycles:   10,
		ScrollPx:       1000,
		ScrollSettle:   time.Millisecond * 500,
		DetailSettle:   time.Millisecond * 1500,
		AnnualPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)12\s*ay.*?(\d{2,4})\s*TL`),
			regexp.MustCompile(`(?i)y[ıi]ll[ıi]k.*?(\d{2,4})\s*TL`),
		},
		MonthlyPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)taahhütsüz.*?(\d{2,4})\s*TL`),
			regexp.MustCompile(`(?i)ayl[ıi]k.*?(\d{2,4})\s*TL`),
		},
		YearlyTokens:  []string{"yıllık", "12 ay"},
		MonthlyTokens: []string{"aylık", "taahhütsüz"},
		RadioSelector: `label, input[type="radio"]`,
		DigitsPattern: regexp.MustCompile(`(\d{2,4})\s*TL`),
		GBPattern:     regexp.MustCompile(`(?i)(\d+)\s*GB`),
		DKPattern:     regexp.MustCompile(`(?i)(\d+)\s*(?:DK|Dakika)`),
		SMSPattern:    regexp.MustCompile(`(?i)(\d+)\s*SMS`),
		Classifier:    DefaultClassifier(),
	}
}

// Existing is the link-crawl strategy for the existing-customer
// listing: the listing only links out, so every tariff costs one
// detail-page visit on a second tab that leaves the listing intact.
type Existing struct {
	cfg      ExistingConfig
	fallback *fetch.Client
}

func NewExisting(cfg ExistingConfig, fallback *fetch.Client) *Existing {
	return &Existing{cfg: cfg, fallback: fallback}
}

func (e *Existing) Provider() string { return existingProvider }

func (e *Existing) Match(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.Contains(lower, "turkcell") && strings.Contains(lower, "paket-ve-tarifeler")
}

func (e *Existing) Scrape(ctx context.Context, session *browser.Session, rawURL string, diags *tariff.Diagnostics) ([]tariff.Record, error) {
	ctx, span := tracer.Start(ctx, "Existing.Scrape")
	defer span.End()

	page := session.Page()
	err := page.Navigate(rawURL, e.cfg.Anchor, e.cfg.AnchorTimeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		return nil, err
	}

	page.DismissOverlay(e.cfg.CookieSelector, time.Second*5)
	page.ScrollCycles(e.cfg.ScrollCycles, e.cfg.ScrollPx, e.cfg.ScrollSettle)

	links, err := e.collectLinks(ctx, page, rawURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "link collection failed")
		return nil, err
	}
	if len(links) == 0 {
		diags.Add("links", "no detail links matched %q", e.cfg.LinkSelector)
		return nil, nil
	}
	slog.InfoContext(ctx, "collected detail links", "count", len(links))

	// detail pages are visited on their own tab so the listing keeps
	// its scroll/filter state
	detail, closeDetail := session.NewPage()
	defer closeDetail()

	var records []tariff.Record
	for _, link := range links {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}
		record, ok := e.scrapeDetail(ctx, detail, link, diags)
		if ok {
			records = append(records, record)
		}
	}

	slog.InfoContext(ctx, "turkcell existing extraction finished", "records", len(records))
	return records, nil
}

func (e *Existing) collectLinks(ctx context.Context, page *browser.Page, rawURL string) ([]string, error) {
	doc, err := page.Snapshot()
	if err != nil {
		return nil, err
	}
	return e.detailLinks(ctx, doc, rawURL)
}

// detailLinks resolves, dedups and filters the per-tariff links of a
// listing document. Every returned link is visited exactly once.
func (e *Existing) detailLinks(ctx context.Context, doc *goquery.Document, rawURL string) ([]string, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	anchors := htmlutil.GetAnchors(ctx, base, doc.Find(e.cfg.LinkSelector))
	anchors = htmlutil.DedupAnchors(anchors)

	links := make([]string, 0, len(anchors))
	for _, a := range anchors {
		// the listing links back to itself through filter anchors
		if a.Href == rawURL {
			continue
		}
		links = append(links, a.Href)
	}
	return links, nil
}

// scrapeDetail extracts one tariff from its detail page. Any failure
// drops only this link.
func (e *Existing) scrapeDetail(ctx context.Context, page *browser.Page, link string, diags *tariff.Diagnostics) (tariff.Record, bool) {
	var doc *goquery.Document
	err := page.Navigate(link, "", 0)
	if err == nil {
		page.Settle(e.cfg.DetailSettle)
		doc, err = page.Snapshot()
	}
	if err != nil {
		// one slow or broken detail page drops only itself; the
		// static fetch still gets a chance at it first
		if e.fallback != nil {
			doc, err = e.fallback.Document(ctx, link)
		}
		if err != nil || doc == nil {
			diags.Add("detail", "failed to open %s: %s", link, err)
			return tariff.Record{}, false
		}
	}

	return e.extractDetail(doc, link, diags)
}

// extractDetail pulls the tariff fields out of a materialized detail
// page document.
func (e *Existing) extractDetail(doc *goquery.Document, link string, diags *tariff.Diagnostics) (tariff.Record, bool) {
	body := htmlutil.Text(doc.Find("body"))
	price := matchFirstGroup(e.cfg.AnnualPatterns, body)
	noCommitment := matchFirstGroup(e.cfg.MonthlyPatterns, body)

	// secondary pass over commitment radio/label elements
	if price == "" || noCommitment == "" {
		radioPrice, radioMonthly := e.radioPass(doc)
		if price == "" {
			price = radioPrice
		}
		if noCommitment == "" {
			noCommitment = radioMonthly
		}
	}

	// the site doesn't show a committed price for every plan; when
	// only the monthly price resolved it becomes the primary price
	// instead of being reported twice
	if price == "" && noCommitment != "" {
		price = noCommitment
		noCommitment = ""
	}

	gb := firstGroupOf(e.cfg.GBPattern, body)
	if price == "" || gb == "" {
		diags.Add("detail", "%s lacked price or data allowance", link)
		return tariff.Record{}, false
	}

	name := e.detailName(doc, body)
	return tariff.Record{
		Category:          e.cfg.Classifier.Classify(name),
		Name:              name,
		GB:                gb,
		Minutes:           firstGroupOf(e.cfg.DKPattern, body),
		SMS:               firstGroupOf(e.cfg.SMSPattern, body),
		Price:             atoi(price),
		NoCommitmentPrice: noCommitment,
		Provider:          existingProvider,
	}, true
}

// radioPass scans commitment radio/label elements for yearly and
// monthly price figures when the body-text patterns found nothing.
func (e *Existing) radioPass(doc *goquery.Document) (price, monthly string) {
	doc.Find(e.cfg.RadioSelector).Each(func(_ int, s *goquery.Selection) {
		raw := textutil.CleanLine(s.Text())
		if raw == "" {
			return
		}
		digits := firstGroupOf(e.cfg.DigitsPattern, raw)
		if digits == "" {
			return
		}
		lower := strings.ToLower(raw)
		if price == "" && containsAny(lower, e.cfg.YearlyTokens) {
			price = digits
			return
		}
		if monthly == "" && containsAny(lower, e.cfg.MonthlyTokens) {
			monthly = digits
		}
	})
	return price, monthly
}

func containsAny(text string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func (e *Existing) detailName(doc *goquery.Document, body string) string {
	h1 := textutil.CleanLine(doc.Find("h1").First().Text())
	if utf8.RuneCountInString(h1) >= 5 {
		return textutil.Truncate(h1, tariff.MaxNameLength)
	}
	return tariff.PickName(body)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func matchFirstGroup(patterns []*regexp.Regexp, text string) string {
	best := -1
	digits := ""
	for _, re := range patterns {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		if best == -1 || loc[0] < best {
			best = loc[0]
			digits = text[loc[2]:loc[3]]
		}
	}
	return digits
}

func firstGroupOf(re *regexp.Regexp, text string) string {
	if re == nil {
		return ""
	}
	groups := re.FindStringSubmatch(text)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}
