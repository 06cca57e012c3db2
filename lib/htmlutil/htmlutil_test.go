package htmlutil

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, src string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestText(t *testing.T) {
	doc := mustDoc(t, `<div class="card">
		<p>  Süper  Paket </p>
		<p>40 GB <b>500</b> DK</p>
	</div>`)
	require.Equal(t, "Süper Paket\n40 GB 500 DK", Text(doc.Find(".card p")))
}

func TestGetAnchors(t *testing.T) {
	base, err := url.Parse("https://www.turkcell.com.tr/paket-ve-tarifeler")
	require.NoError(t, err)

	doc := mustDoc(t, `<ul>
		<a href="/paket-ve-tarifeler/platinum-40">Platinum 40</a>
		<a href="https://other.example/x">  Harici </a>
		<a href="/paket-ve-tarifeler/gnc-20">GNÇ 20</a>
	</ul>`)

	anchors := GetAnchors(context.Background(), base, doc.Find("a"))
	expected := []Anchor{
		{Name: "Platinum 40", Href: "https://www.turkcell.com.tr/paket-ve-tarifeler/platinum-40"},
		{Name: "Harici", Href: "https://other.example/x"},
		{Name: "GNÇ 20", Href: "https://www.turkcell.com.tr/paket-ve-tarifeler/gnc-20"},
	}
	require.Empty(t, cmp.Diff(expected, anchors))
}

func TestDedupAnchors(t *testing.T) {
	in := []Anchor{
		{Name: "first", Href: "https://a.example/1"},
		{Name: "second", Href: "https://a.example/2"},
		{Name: "dup of first", Href: "https://a.example/1"},
	}
	out := DedupAnchors(in)
	expected := []Anchor{
		{Name: "first", Href: "https://a.example/1"},
		{Name: "second", Href: "https://a.example/2"},
	}
	require.Empty(t, cmp.Diff(expected, out))
}
