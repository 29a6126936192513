package presenter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/horoscopebot/core/telegram/keyboard"
	"github.com/m3rciful/horoscopebot/internal/horoscope"
	"github.com/m3rciful/horoscopebot/internal/stats"
)

func TestKeyboards(t *testing.T) {
	cases := []struct {
		name    string
		got     [][]string
		want    [][]string
		oneTime bool
	}{
		{
			name: "main menu",
			got:  keyboard.Labels(MainMenu()),
			want: [][]string{{"HOROSCOPE"}, {"HELP"}, {"INFO"}},
		},
		{
			name: "signs",
			got:  keyboard.Labels(SignKeyboard()),
			want: [][]string{
				{"Aries", "Taurus", "Gemini"},
				{"Cancer", "Leo", "Virgo"},
				{"Libra", "Scorpio", "Sagittarius"},
				{"Capricorn", "Aquarius", "Pisces"},
				{"MENU", "CANCEL"},
			},
		},
		{
			name: "days",
			got:  keyboard.Labels(DayKeyboard()),
			want: [][]string{{"TODAY", "TOMORROW", "YESTERDAY"}, {"MENU", "CANCEL"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, tc.got); diff != "" {
				t.Fatalf("layout mismatch (-want +got):\n%s", diff)
			}
		})
	}
	require.False(t, MainMenu().OneTimeKeyboard)
	require.True(t, SignKeyboard().OneTimeKeyboard)
	require.True(t, DayKeyboard().OneTimeKeyboard)
}

func TestSignButtonsParseBack(t *testing.T) {
	for _, row := range keyboard.Labels(SignKeyboard())[:4] {
		for _, label := range row {
			_, ok := horoscope.ParseSign(label)
			require.True(t, ok, label)
		}
	}
}

func TestFormatResult(t *testing.T) {
	got := FormatResult(horoscope.Result{Text: "Good day ahead", Date: "2024-01-15", Sign: horoscope.Leo})
	require.Equal(t, "*Horoscope:* Good day ahead\n*Sign:* Leo\n*Day:* 2024-01-15", got)

	got = FormatResult(horoscope.Result{Text: "be *bold* and_brave", Date: "TODAY", Sign: horoscope.Pisces})
	require.Equal(t, "*Horoscope:* be \\*bold\\* and\\_brave\n*Sign:* Pisces\n*Day:* TODAY", got)
}

func TestFormatStats(t *testing.T) {
	got := FormatStats(stats.Summary{
		Total:    5,
		OK:       4,
		Failed:   1,
		Chats:    2,
		TopSigns: []stats.SignCount{{Sign: "leo", Count: 3}, {Sign: "aries", Count: 1}},
	}, 1)
	want := "Horoscope requests: 5\nSucceeded: 4\nFailed: 1\nChats: 2\nFlows in progress: 1\n" +
		"Top signs:\nLeo: 3\nAries: 1"
	require.Equal(t, want, got)

	require.Equal(t, "Horoscope requests: 0\nSucceeded: 0\nFailed: 0\nChats: 0\nFlows in progress: 0",
		FormatStats(stats.Summary{}, 0))
}
