package tariff

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseCard(t *testing.T) {
	patterns := DefaultCardPatterns()

	testCases := []struct {
		name     string
		text     string
		expected Fields
		ok       bool
	}{
		{
			name: "flat card text",
			text: "SuperPaket\n100 GB 500 DK 250 SMS 349 TL",
			expected: Fields{
				Name:    "SuperPaket",
				GB:      "100",
				Minutes: "500",
				SMS:     "250",
				Price:   349,
			},
			ok: true,
		},
		{
			name: "currency symbol leading",
			text: "Kırmızı Tarife\n25 GB internet\n₺449",
			expected: Fields{
				Name:  "Kırmızı Tarife",
				GB:    "25",
				Price: 449,
			},
			ok: true,
		},
		{
			name: "no data allowance means no record",
			text: "Ses Paketi\n1000 DK 349 TL",
			ok:   false,
		},
		{
			name: "no price means no record",
			text: "Gizli Paket\n50 GB 750 DK",
			ok:   false,
		},
		{
			name: "lowest ordinal price wins",
			text: "Çift Fiyat\n20 GB\n299 TL\n₺999",
			expected: Fields{
				Name:  "Çift Fiyat",
				GB:    "20",
				Price: 299,
			},
			ok: true,
		},
		{
			name: "numeric first line falls through to plausible name",
			text: "349\nGenç Tarife Plus\n30 GB 500 DK 199 TL",
			expected: Fields{
				Name:    "Genç Tarife Plus",
				GB:      "30",
				Minutes: "500",
				Price:   199,
			},
			ok: true,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			fields, ok := patterns.Parse(test.text)
			require.Equal(t, test.ok, ok)
			if !test.ok {
				return
			}
			diff := cmp.Diff(test.expected, fields)
			require.Empty(t, diff)
		})
	}
}

func TestParseIsIdempotent(t *testing.T) {
	patterns := DefaultCardPatterns()
	text := "SuperPaket\n100 GB 500 DK 250 SMS 349 TL"

	first, ok1 := patterns.Parse(text)
	second, ok2 := patterns.Parse(text)
	require.True(t, ok1)
	require.True(t, ok2)
	require.Equal(t, first, second)
}

func TestPickNameTruncation(t *testing.T) {
	long := strings.Repeat("Platinum Mega Paket ", 10)
	name := PickName(long + "\n50 GB 349 TL")
	require.LessOrEqual(t, len([]rune(name)), MaxNameLength)
}

func TestPickNameSkipsPriceLines(t *testing.T) {
	name := PickName("₺349\nEsneyen Tarife\n40 GB")
	require.Equal(t, "Esneyen Tarife", name)
}
