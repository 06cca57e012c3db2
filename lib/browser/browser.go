// Package browser wraps a single headless-chrome session behind the
// handful of primitives the extraction strategies need: navigate with
// bounded waits, dismiss transient overlays, scroll lazy content into
// existence and hand back materialized DOM snapshots.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("magenta.lib.browser")

type Options struct {
	Headless  bool
	UserAgent string
}

// Session owns one browser process. One scrape run holds exclusive
// use of a session; there is no internal locking.
type Session struct {
	allocCancel context.CancelFunc
	page        *Page
}

func NewSession(ctx context.Context, opts Options) (*Session, error) {
	chromeOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
	)
	if opts.UserAgent != "" {
		chromeOpts = append(chromeOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chromeOpts...)
	pageCtx, pageCancel := chromedp.NewContext(allocCtx)

	// starts the browser process eagerly so a missing chrome binary
	// surfaces here instead of mid-extraction
	err := chromedp.Run(pageCtx)
	if err != nil {
		pageCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Session{
		allocCancel: allocCancel,
		page:        &Page{ctx: pageCtx, cancel: pageCancel},
	}, nil
}

func (s *Session) Close() {
	s.page.cancel()
	s.allocCancel()
}

// Page returns the session's primary tab.
func (s *Session) Page() *Page {
	return s.page
}

// NewPage opens a second tab in the same browser. The link-crawl
// strategy uses it to visit detail pages without losing the listing
// page's state. The returned cleanup closes the tab.
func (s *Session) NewPage() (*Page, func()) {
	ctx, cancel := chromedp.NewContext(s.page.ctx)
	return &Page{ctx: ctx, cancel: cancel}, func() { cancel() }
}

type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Navigate loads url and waits for the document body. When anchor is
// non-empty it additionally waits up to anchorTimeout for that
// selector to become visible; the anchor never appearing is reported
// but does not fail the navigation, extraction proceeds on whatever
// partial DOM exists.
func (p *Page) Navigate(url, anchor string, anchorTimeout time.Duration) error {
	_, span := tracer.Start(p.ctx, "Navigate")
	defer span.End()

	err := chromedp.Run(p.ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	if anchor == "" {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(p.ctx, anchorTimeout)
	defer cancel()
	err = chromedp.Run(waitCtx, chromedp.WaitVisible(anchor))
	if err != nil {
		// degraded but usable, the caller works with the partial DOM
		span.AddEvent("anchor never became visible")
		return nil
	}
	return nil
}

// DismissOverlay waits up to timeout for sel to become visible and
// clicks it. Returns false when the overlay never showed up, which is
// the normal case and not an error.
func (p *Page) DismissOverlay(sel string, timeout time.Duration) bool {
	waitCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	err := chromedp.Run(waitCtx,
		chromedp.WaitVisible(sel),
		chromedp.Click(sel),
		chromedp.Sleep(500*time.Millisecond),
	)
	return err == nil
}

// ScrollCycles performs n scroll-and-wait cycles to trigger lazy
// rendering of virtualized card lists.
func (p *Page) ScrollCycles(n, px int, settle time.Duration) {
	for i := 0; i < n; i++ {
		err := chromedp.Run(p.ctx,
			chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", px), nil),
			chromedp.Sleep(settle),
		)
		if err != nil {
			return
		}
	}
}

// Settle is the single bounded-wait primitive standing in for
// "content ready" signals the sites don't emit.
func (p *Page) Settle(d time.Duration) {
	_ = chromedp.Run(p.ctx, chromedp.Sleep(d))
}

// Snapshot materializes the current DOM into a goquery document.
func (p *Page) Snapshot() (*goquery.Document, error) {
	var outer string
	err := chromedp.Run(p.ctx, chromedp.OuterHTML("html", &outer))
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(outer))
}

// Nodes queries live element handles, optionally scoped to a parent
// node. A selector matching nothing yields an empty slice, not an
// error.
func (p *Page) Nodes(sel string, scope *cdp.Node, timeout time.Duration) []*cdp.Node {
	waitCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	var nodes []*cdp.Node
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if scope != nil {
		opts = append(opts, chromedp.FromNode(scope))
	}
	err := chromedp.Run(waitCtx, chromedp.Nodes(sel, &nodes, opts...))
	if err != nil {
		return nil
	}
	return nodes
}

// NodeHTML returns a node's outer HTML.
func (p *Page) NodeHTML(n *cdp.Node) (string, error) {
	var outer string
	err := chromedp.Run(p.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		outer, err = dom.GetOuterHTML().WithNodeID(n.NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("outer html of node %d: %w", n.NodeID, err)
	}
	return outer, nil
}

// NodeText returns a node's text content with lines cleaned up the
// same way the value parser expects them.
func (p *Page) NodeText(n *cdp.Node) (string, error) {
	outer, err := p.NodeHTML(n)
	if err != nil {
		return "", err
	}
	return renderText(outer)
}

func renderText(outer string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outer))
	if err != nil {
		return "", err
	}
	lines := []string{}
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			child := n.FirstChild
			for child != nil {
				if child.Type == html.TextNode {
					line := strings.TrimSpace(child.Data)
					if line != "" {
						lines = append(lines, line)
					}
				}
				child = child.NextSibling
			}
		}
	})
	return strings.Join(lines, "\n"), nil
}

// findButtonByText returns the first button inside scope whose text
// contains label, nil when there is none.
func (p *Page) findButtonByText(scope *cdp.Node, label string) *cdp.Node {
	for _, btn := range p.Nodes("button", scope, time.Second) {
		text, err := p.NodeText(btn)
		if err != nil {
			continue
		}
		if strings.Contains(text, label) {
			return btn
		}
	}
	return nil
}

func (p *Page) ClickNode(n *cdp.Node) error {
	return chromedp.Run(p.ctx, chromedp.MouseClickNode(n))
}

// Doc converts a node's subtree into a goquery selection for
// selector-based field extraction without further browser traffic.
func (p *Page) Doc(n *cdp.Node) (*goquery.Document, error) {
	outer, err := p.NodeHTML(n)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(outer))
}
