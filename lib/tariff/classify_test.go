package tariff

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifier(t *testing.T) {
	c := Classifier{
		Rules: []Rule{
			{Contains: "platinum", Category: "Platinum Tarifeleri"},
			{Contains: "gnç", Category: "GNÇ Tarifeleri"},
			{Contains: "star", Category: "Star Tarifeleri"},
		},
		Default: "Diğer Tarifeler",
	}

	testCases := []struct {
		texts    []string
		expected string
		matched  bool
	}{
		{[]string{"Platinum Büyük Paket"}, "Platinum Tarifeleri", true},
		{[]string{"GNÇ 20", "kampanya"}, "GNÇ Tarifeleri", true},
		{[]string{"Süper Star"}, "Star Tarifeleri", true},
		{[]string{"Ekonomik Paket"}, "Diğer Tarifeler", false},
		{nil, "Diğer Tarifeler", false},
	}

	for _, test := range testCases {
		category, matched := c.Match(test.texts...)
		require.Equal(t, test.expected, category)
		require.Equal(t, test.matched, matched)
		require.Equal(t, test.expected, c.Classify(test.texts...))
	}
}

func TestClassifierFirstRuleWins(t *testing.T) {
	c := Classifier{
		Rules: []Rule{
			{Contains: "paket", Category: "First"},
			{Contains: "paket", Category: "Second"},
		},
	}
	require.Equal(t, "First", c.Classify("Mega Paket"))
}

func TestClassifierDefaultFallback(t *testing.T) {
	require.Equal(t, DefaultCategory, Classifier{}.Classify("anything"))
}
