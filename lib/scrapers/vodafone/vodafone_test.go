package vodafone

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"magenta-backend/lib/browser"
	"magenta-backend/lib/tariff"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const listingFixture = `<html><body>
<div class="css-1iqevk5">
	<p>Uyumlu Tarifeler</p>
	<div class="css-1ir1t9b">
		<h3>Kolay Paket</h3>
		<span>25 GB</span>
		<span>750 DK</span>
		<span>500 SMS</span>
		<span>₺299</span>
		<button class="chakra-button">Tarifeyi seç</button>
	</div>
	<div class="css-1ir1t9b">
		<h3>Rahat Paket</h3>
		<span>40 GB</span>
		<span>1000 DK</span>
		<span>349 TL</span>
		<button class="chakra-button">Tarifeyi seç</button>
	</div>
	<div class="css-1ir1t9b">
		<h3>Eksik Paket</h3>
		<span>sınırsız konuşma</span>
		<button class="chakra-button">Tarifeyi seç</button>
	</div>
	<div class="css-1ir1t9b">
		<h3>Kampanya</h3>
		<span>10 GB 199 TL</span>
		<button class="chakra-button">Detayları gör</button>
	</div>
</div>
<div class="css-1iqevk5">
	<p>Red Tarifeler</p>
	<div class="css-1ir1t9b">
		<h3>Red Elite</h3>
		<span>80 GB</span>
		<span>599 TL</span>
		<button class="chakra-button">Tarifeyi seç</button>
	</div>
</div>
</body></html>`

func TestExtractDocument(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingFixture))
	require.NoError(t, err)

	s := New(DefaultConfig(), nil)
	diags := &tariff.Diagnostics{}
	records := s.ExtractDocument(doc, diags)

	expected := []tariff.Record{
		{Category: "Uyumlu Tarifeler", Name: "Kolay Paket", GB: "25", Minutes: "750", SMS: "500", Price: 299, Provider: "vodafone"},
		{Category: "Uyumlu Tarifeler", Name: "Rahat Paket", GB: "40", Minutes: "1000", Price: 349, Provider: "vodafone"},
		{Category: "Red Tarifeler", Name: "Red Elite", GB: "80", Price: 599, Provider: "vodafone"},
	}
	require.Empty(t, cmp.Diff(expected, records))

	// The GB-less card is dropped with a diagnostic, the details-only
	// card has no select button and is ignored silently.
	require.Len(t, diags.Entries(), 1)
	require.Equal(t, "parse", diags.Entries()[0].Stage)
}

func TestMatch(t *testing.T) {
	s := New(DefaultConfig(), nil)
	require.True(t, s.Match("https://www.vodafone.com.tr/numara-tasima/tarifeler"))
	require.True(t, s.Match("https://WWW.VODAFONE.COM.TR/tarifeler"))
	require.False(t, s.Match("https://www.turkcell.com.tr/paket-secimi"))
}

func TestScrapeLive(t *testing.T) {
	if os.Getenv("SCRAPE_LIVE") != "1" {
		t.Skip("set SCRAPE_LIVE=1 to run against the live site")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	session, err := browser.NewSession(ctx, browser.Options{Headless: true})
	require.NoError(t, err)
	defer session.Close()

	s := New(DefaultConfig(), nil)
	diags := &tariff.Diagnostics{}
	records, err := s.Scrape(ctx, session, "https://www.vodafone.com.tr/numara-tasima/tarifeler", diags)
	require.NoError(t, err)

	t.Logf("extracted %d records, %d diagnostics", len(records), len(diags.Entries()))
	for _, r := range records {
		require.NotEmpty(t, r.Name)
		require.NotEmpty(t, r.GB)
		require.Greater(t, r.Price, 0)
	}
}

func TestCardForButtonFallsBackToGrandparent(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><section><span><button class="chakra-button">Tarifeyi seç</button></span></section></div>`))
	require.NoError(t, err)

	s := New(DefaultConfig(), nil)
	card := s.closestCard(doc.Find("button"))
	require.Equal(t, "section", goquery.NodeName(card))
}
