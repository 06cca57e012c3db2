package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	require.Equal(t, "süperpaket", Normalize("  Süper Paket \n"))
	require.Equal(t, "40gb", Normalize("40\tGB"))
	require.Equal(t, "", Normalize(" \n\t"))
}

func TestMatchAny(t *testing.T) {
	require.True(t, MatchAny("Platinum Büyük Paket", []string{"büyükpaket"}))
	require.True(t, MatchAny("GNÇ 20", []string{"star", "gnç"}))
	require.False(t, MatchAny("Ekonomik", []string{"platinum"}))
	require.False(t, MatchAny("Ekonomik", nil))
}

func TestCleanLine(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{"  40 GB\t500 DK  ", "40 GB 500 DK"},
		{"a\x00b", "ab"},
		{"tek satır", "tek satır"},
		{"\n\n", ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, CleanLine(test.in))
	}
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "₺₺₺", Truncate("₺₺₺₺₺", 3))
	require.Equal(t, "kısa", Truncate("kısa", 10))
	require.Equal(t, "", Truncate("x", 0))
}
