package tariff

import "strings"

// DefaultCategory is the bucket for tariffs no rule matched.
const DefaultCategory = "Diğer Tarifeler"

// Rule maps a lowercase substring of a tariff's name or badge text to
// a category label. Rules are evaluated top to bottom, first match
// wins. Operators rename their segments every so often, so rule
// tables are plain data that site config can override without
// touching any extraction code.
type Rule struct {
	Contains string `json:"contains"`
	Category string `json:"category"`
}

type Classifier struct {
	Rules   []Rule `json:"rules"`
	Default string `json:"default"`
}

// Classify runs the rule table over the joined lowercase inputs.
func (c Classifier) Classify(texts ...string) string {
	category, _ := c.Match(texts...)
	return category
}

// Match is Classify but also reports whether any rule fired, for
// callers with their own fallback (the badge-to-category suffixing
// rule on the flat-card page).
func (c Classifier) Match(texts ...string) (string, bool) {
	joined := strings.ToLower(strings.Join(texts, " "))
	for _, r := range c.Rules {
		if strings.Contains(joined, r.Contains) {
			return r.Category, true
		}
	}
	if c.Default != "" {
		return c.Default, false
	}
	return DefaultCategory, false
}
