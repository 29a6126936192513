package horoscope

import "strings"

// Sign is a zodiac sign in its canonical lowercase form.
type Sign string

// Zodiac signs accepted by the provider.
const (
	Aries       Sign = "aries"
	Taurus      Sign = "taurus"
	Gemini      Sign = "gemini"
	Cancer      Sign = "cancer"
	Leo         Sign = "leo"
	Virgo       Sign = "virgo"
	Libra       Sign = "libra"
	Scorpio     Sign = "scorpio"
	Sagittarius Sign = "sagittarius"
	Capricorn   Sign = "capricorn"
	Aquarius    Sign = "aquarius"
	Pisces      Sign = "pisces"
)

var signs = []Sign{
	Aries, Taurus, Gemini,
	Cancer, Leo, Virgo,
	Libra, Scorpio, Sagittarius,
	Capricorn, Aquarius, Pisces,
}

var signSet = func() map[string]Sign {
	m := make(map[string]Sign, len(signs))
	for _, s := range signs {
		m[string(s)] = s
	}
	return m
}()

// Signs returns the twelve signs in zodiac order.
func Signs() []Sign {
	return append([]Sign(nil), signs...)
}

// ParseSign reports whether input names a zodiac sign, ignoring case and
// surrounding whitespace, and returns its canonical form.
func ParseSign(input string) (Sign, bool) {
	s, ok := signSet[strings.ToLower(strings.TrimSpace(input))]
	return s, ok
}

// Title returns the display form, e.g. "Leo".
func (s Sign) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

func (s Sign) String() string { return string(s) }
