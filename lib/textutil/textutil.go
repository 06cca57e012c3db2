package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize lowercases and strips all whitespace so that rule
// matching doesn't trip over how a site happens to pad its labels.
func Normalize(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchAny(name string, matchers []string) bool {
	name = Normalize(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// CleanLine drops non-printable runes and collapses inner whitespace,
// keeping a single space between words.
func CleanLine(s string) string {
	out := strings.Builder{}
	for _, c := range s {
		switch {
		case unicode.IsSpace(c):
			out.WriteRune(' ')
		case unicode.IsPrint(c):
			out.WriteRune(c)
		}
	}
	cleaned := strings.Trim(out.String(), " \t\n")
	return whitespaceRegex.ReplaceAllString(cleaned, " ")
}

// Truncate bounds s to at most n runes. Tariff names are capped this way
// so a mis-scoped container can't leak a whole card's text into one cell.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
