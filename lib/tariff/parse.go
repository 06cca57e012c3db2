package tariff

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"magenta-backend/lib/textutil"
)

// Fields is the raw output of parsing one card's text. A Fields value
// is only produced when both a price and a data allowance resolved;
// cards missing either are skipped rather than emitted half-empty.
type Fields struct {
	Name    string
	GB      string
	Minutes string
	SMS     string
	Price   int
}

// CardPatterns is one provider's pattern family for pulling typed
// values out of combined card text. Each provider carries its own
// family; the price grammars are deliberately not unified across
// providers since the sites disagree on currency placement.
type CardPatterns struct {
	// Price patterns are tried over the whole text; among all matches
	// the one at the lowest offset wins. Group 1 must capture digits.
	Price   []*regexp.Regexp
	GB      *regexp.Regexp
	Minutes *regexp.Regexp
	SMS     *regexp.Regexp
}

// DefaultCardPatterns matches the flat "100 GB 500 DK 250 SMS 349 TL"
// shape with the currency either trailing (TL/₺) or leading (₺349).
func DefaultCardPatterns() CardPatterns {
	return CardPatterns{
		Price: []*regexp.Regexp{
			regexp.MustCompile(`(\d{2,4})\s*(?:₺|TL)`),
			regexp.MustCompile(`₺\s*(\d{2,4})`),
		},
		GB:      regexp.MustCompile(`(?i)(\d+)\s*GB`),
		Minutes: regexp.MustCompile(`(?i)(\d+)\s*DK`),
		SMS:     regexp.MustCompile(`(?i)(\d+)\s*SMS`),
	}
}

// Parse extracts typed fields from one card's combined text. The
// second return value reports whether the card yielded a usable
// record: both a price match and a data-allowance match are required.
func (p CardPatterns) Parse(text string) (Fields, bool) {
	price, priceOk := p.matchPrice(text)
	gb := firstGroup(p.GB, text)
	if !priceOk || gb == "" {
		return Fields{}, false
	}

	return Fields{
		Name:    PickName(text),
		GB:      gb,
		Minutes: firstGroup(p.Minutes, text),
		SMS:     firstGroup(p.SMS, text),
		Price:   price,
	}, true
}

func (p CardPatterns) matchPrice(text string) (int, bool) {
	best := -1
	digits := ""
	for _, re := range p.Price {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		if best == -1 || loc[0] < best {
			best = loc[0]
			digits = text[loc[2]:loc[3]]
		}
	}
	if best == -1 {
		return 0, false
	}
	price, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return price, true
}

func firstGroup(re *regexp.Regexp, text string) string {
	if re == nil {
		return ""
	}
	groups := re.FindStringSubmatch(text)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}

var allDigits = regexp.MustCompile(`^\d+$`)

// PickName chooses the display name from a card's text lines. The
// first line wins unless it is too short or purely numeric, in which
// case the first plausible line (5-50 chars, no currency symbol) is
// used instead. This guards against a stray badge or price string
// getting promoted to the name.
func PickName(text string) string {
	lines := []string{}
	for _, l := range strings.Split(text, "\n") {
		l = textutil.CleanLine(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return ""
	}

	name := lines[0]
	if utf8.RuneCountInString(name) < 5 || allDigits.MatchString(name) {
		for _, line := range lines {
			n := utf8.RuneCountInString(line)
			if n > 5 && n < 50 &&
				!strings.Contains(line, "₺") && !allDigits.MatchString(line) {
				name = line
				break
			}
		}
	}
	return textutil.Truncate(name, MaxNameLength)
}
