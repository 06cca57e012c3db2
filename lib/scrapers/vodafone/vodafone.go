// Package vodafone extracts postpaid tariffs from the Vodafone TR
// tariff listing. The page groups cards under named containers; the
// category comes from the container heading and the no-commitment
// price hides behind a per-card details overlay.
package vodafone

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"magenta-backend/lib/browser"
	"magenta-backend/lib/fetch"
	"magenta-backend/lib/htmlutil"
	"magenta-backend/lib/tariff"
	"magenta-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("magenta.scrapers.vodafone")

const providerKey = "vodafone"

type Config struct {
	// ContainerSelector matches the per-category card containers.
	ContainerSelector string
	// HeadingSelector finds the category heading inside a container.
	HeadingSelector string
	// ButtonSelector matches action buttons; only those whose text
	// contains SelectText mark a selectable tariff card.
	ButtonSelector string
	SelectText     string
	// CardClasses are the class names tried while walking up from a
	// select button to its enclosing card.
	CardClasses []string
	// CookieSelector dismisses the consent overlay; absence is fine.
	CookieSelector string
	Anchor         string
	AnchorTimeout  time.Duration
	ScrollCycles   int
	ScrollPx       int
	ScrollSettle   time.Duration

	Patterns             tariff.CardPatterns
	NoCommitmentPatterns []*regexp.Regexp
	Modal                browser.ModalConfig
}

func DefaultConfig() Config {
	return Config{
		ContainerSelector: ".css-1iqevk5",
		HeadingSelector:   "p",
		ButtonSelector:    ".chakra-button",
		SelectText:        "Tarifeyi seç",
		CardClasses:       []string{"css-1ir1t9b", "css-0"},
		CookieSelector:    `//button[contains(., "Reddet")]`,
		Anchor:            ".css-1iqevk5",
		AnchorTimeout:     time.Second * 20,
		ScrollCycles:      8,
		ScrollPx:          1000,
		ScrollSettle:      time.Millisecond * 500,
		Patterns:          tariff.DefaultCardPatterns(),
		NoCommitmentPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Taahhütsüz.*?ücreti\s*:?\s*(\d{2,4})\s*TL`),
			regexp.MustCompile(`(?i)Taahhütsüz.*?(\d{2,4})\s*TL`),
		},
		Modal: browser.ModalConfig{
			OpenText:        "Detayları gör",
			OverlaySelector: `[role="dialog"], .modal-content, [class*="Modal_content"]`,
			CloseSelector:   `button[aria-label="Close"]`,
			CloseTextHints:  []string{"✕", "X", "Kapat"},
			PopulateDelay:   time.Millisecond * 1800,
			CloseDelay:      time.Millisecond * 800,
		},
	}
}

type Strategy struct {
	cfg      Config
	fallback *fetch.Client
}

// New builds the strategy. fallback may be nil, in which case a
// failed navigation has nothing to degrade to and aborts.
func New(cfg Config, fallback *fetch.Client) *Strategy {
	return &Strategy{cfg: cfg, fallback: fallback}
}

func (s *Strategy) Provider() string { return providerKey }

func (s *Strategy) Match(url string) bool {
	return strings.Contains(strings.ToLower(url), "vodafone")
}

func (s *Strategy) Scrape(ctx context.Context, session *browser.Session, url string, diags *tariff.Diagnostics) ([]tariff.Record, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	page := session.Page()
	err := page.Navigate(url, s.cfg.Anchor, s.cfg.AnchorTimeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		slog.WarnContext(ctx, "browser navigation failed, trying static fetch", "url", url, "err", err)
		return s.scrapeStatic(ctx, url, diags, err)
	}

	if !page.DismissOverlay(s.cfg.CookieSelector, time.Second*3) {
		slog.DebugContext(ctx, "no cookie overlay to dismiss")
	}
	page.ScrollCycles(s.cfg.ScrollCycles, s.cfg.ScrollPx, s.cfg.ScrollSettle)

	var records []tariff.Record
	containers := page.Nodes(s.cfg.ContainerSelector, nil, time.Second*5)
	if len(containers) == 0 {
		diags.Add("containers", "no %q containers found", s.cfg.ContainerSelector)
	}
	for _, container := range containers {
		category := s.containerCategory(page, container)

		for _, btn := range page.Nodes(s.cfg.ButtonSelector, container, time.Second*2) {
			text, err := page.NodeText(btn)
			if err != nil || !strings.Contains(text, s.cfg.SelectText) {
				continue
			}
			card := s.cardForButton(btn)
			if card == nil {
				diags.Add("card", "select button without an enclosing card in %q", category)
				continue
			}

			cardText, err := page.NodeText(card)
			if err != nil {
				diags.Add("card", "failed to read card text: %s", err)
				continue
			}
			fields, ok := s.cfg.Patterns.Parse(cardText)
			if !ok {
				diags.Add("parse", "card in %q lacked price or data allowance", category)
				continue
			}

			noCommitment := ""
			if modalText, ok := page.OpenModal(card, s.cfg.Modal); ok {
				noCommitment = matchFirst(s.cfg.NoCommitmentPatterns, modalText)
			}

			records = append(records, tariff.Record{
				Category:          category,
				Name:              fields.Name,
				GB:                fields.GB,
				Minutes:           fields.Minutes,
				SMS:               fields.SMS,
				Price:             fields.Price,
				NoCommitmentPrice: noCommitment,
				Provider:          providerKey,
			})
		}
	}

	slog.InfoContext(ctx, "vodafone extraction finished", "records", len(records))
	return records, nil
}

func (s *Strategy) containerCategory(page *browser.Page, container *cdp.Node) string {
	doc, err := page.Doc(container)
	if err != nil {
		return tariff.DefaultCategory
	}
	heading := textutil.CleanLine(doc.Find(s.cfg.HeadingSelector).First().Text())
	if heading == "" {
		return tariff.DefaultCategory
	}
	return heading
}

// cardForButton walks up from a select button to the enclosing card,
// preferring the known card classes and falling back to the
// grandparent element.
func (s *Strategy) cardForButton(btn *cdp.Node) *cdp.Node {
	node := btn.Parent
	for node != nil {
		class := strings.ToLower(node.AttributeValue("class"))
		for _, c := range s.cfg.CardClasses {
			if strings.Contains(class, c) {
				return node
			}
		}
		node = node.Parent
	}
	if btn.Parent != nil && btn.Parent.Parent != nil {
		return btn.Parent.Parent
	}
	return btn.Parent
}

func matchFirst(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		groups := re.FindStringSubmatch(text)
		if len(groups) >= 2 {
			return groups[1]
		}
	}
	return ""
}

// scrapeStatic is the degraded path over server-rendered HTML: same
// selectors, no overlays, so no no-commitment prices.
func (s *Strategy) scrapeStatic(ctx context.Context, url string, diags *tariff.Diagnostics, navErr error) ([]tariff.Record, error) {
	if s.fallback == nil {
		return nil, navErr
	}
	doc, err := s.fallback.Document(ctx, url)
	if err != nil {
		diags.Add("fallback", "static fetch failed: %s", err)
		return nil, navErr
	}
	diags.Add("fallback", "extracted from static HTML, overlay fields unavailable")
	return s.ExtractDocument(doc, diags), nil
}

// ExtractDocument runs the container/card walk over a materialized
// document. The live path mirrors this logic on element handles so it
// can additionally drive the details overlay.
func (s *Strategy) ExtractDocument(doc *goquery.Document, diags *tariff.Diagnostics) []tariff.Record {
	var records []tariff.Record
	doc.Find(s.cfg.ContainerSelector).Each(func(_ int, container *goquery.Selection) {
		category := tariff.DefaultCategory
		heading := container.Find(s.cfg.HeadingSelector).First()
		if h := textutil.CleanLine(heading.Text()); h != "" {
			category = h
		}

		container.Find(s.cfg.ButtonSelector).Each(func(_ int, btn *goquery.Selection) {
			if !strings.Contains(btn.Text(), s.cfg.SelectText) {
				return
			}
			card := s.closestCard(btn)
			fields, ok := s.cfg.Patterns.Parse(htmlutil.Lines(card))
			if !ok {
				diags.Add("parse", "card in %q lacked price or data allowance", category)
				return
			}
			records = append(records, tariff.Record{
				Category: category,
				Name:     fields.Name,
				GB:       fields.GB,
				Minutes:  fields.Minutes,
				SMS:      fields.SMS,
				Price:    fields.Price,
				Provider: providerKey,
			})
		})
	})
	return records
}

func (s *Strategy) closestCard(btn *goquery.Selection) *goquery.Selection {
	for _, class := range s.cfg.CardClasses {
		card := btn.Closest("." + class)
		if card.Length() > 0 {
			return card
		}
	}
	return btn.Parent().Parent()
}
