package horoscope

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSignAcceptsEveryCase(t *testing.T) {
	require.Len(t, Signs(), 12)
	for _, s := range Signs() {
		for _, in := range []string{string(s), strings.ToUpper(string(s)), s.Title(), "  " + s.Title() + "\n"} {
			got, ok := ParseSign(in)
			require.True(t, ok, in)
			require.Equal(t, s, got)
		}
	}
}

func TestParseSignRejects(t *testing.T) {
	for _, in := range []string{"", "ophiuchus", "le o", "leos", "MENU", "CANCEL", "TODAY"} {
		_, ok := ParseSign(in)
		require.False(t, ok, in)
	}
}

func TestSignTitle(t *testing.T) {
	require.Equal(t, "Leo", Leo.Title())
	require.Equal(t, "Sagittarius", Sagittarius.Title())
	require.Empty(t, Sign("").Title())
}

func TestParseDay(t *testing.T) {
	cases := []struct {
		in   string
		want Day
		ok   bool
	}{
		{"TODAY", Today, true},
		{"today", Today, true},
		{" Tomorrow ", Tomorrow, true},
		{"yesterday", Yesterday, true},
		{"2024-01-15", "2024-01-15", true},
		{"9999-99-99", "9999-99-99", true},
		{"abcd-ef-gh", "ABCD-EF-GH", true},
		{"2024/01/15", "", false},
		{"2024-1-15", "", false},
		{"someday", "", false},
		{"", "", false},
		{"MENU", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseDay(tc.in)
		require.Equal(t, tc.ok, ok, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
	require.Equal(t, []Day{Today, Tomorrow, Yesterday}, Days())
}
