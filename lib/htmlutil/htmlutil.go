package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"magenta-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("magenta.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// Text returns the cleaned text contents of a selection, one line per
// element node, suitable for feeding to the tariff value parser.
func Text(sel *goquery.Selection) string {
	lines := make([]string, 0, len(sel.Nodes))
	for _, n := range sel.Nodes {
		lines = append(lines, textutil.CleanLine(GetText(n)))
	}
	return strings.Join(lines, "\n")
}

// Lines renders a selection the way the live page text renderer does:
// every text node in the subtree becomes one cleaned line. Use this
// when a single container's text feeds the value parser; Text mushes
// nested elements onto one line.
func Lines(sel *goquery.Selection) string {
	lines := []string{}
	for _, n := range sel.Nodes {
		collectLines(n, &lines)
	}
	return strings.Join(lines, "\n")
}

func collectLines(node *html.Node, lines *[]string) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		if line := textutil.CleanLine(node.Data); line != "" {
			*lines = append(*lines, line)
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectLines(child, lines)
	}
}

type Anchor struct {
	Name string
	Href string
}

func GetAnchors(ctx context.Context, base *url.URL, sel *goquery.Selection) []Anchor {
	ctx, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}

		link, err := url.Parse(href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			continue
		}
		if base != nil {
			link = base.ResolveReference(link)
		}

		name := textutil.CleanLine(GetText(n))
		linkStr := link.String()
		anchors = append(anchors, Anchor{
			Name: name,
			Href: linkStr,
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("url", linkStr),
		))
	}

	return anchors
}

// DedupAnchors keeps the first occurrence of each href, preserving order.
func DedupAnchors(anchors []Anchor) []Anchor {
	seen := map[string]bool{}
	out := make([]Anchor, 0, len(anchors))
	for _, a := range anchors {
		if seen[a.Href] {
			continue
		}
		seen[a.Href] = true
		out = append(out, a)
	}
	return out
}
