package horoscope

import "strings"

// Day selects which daily horoscope to fetch: a relative keyword or a
// YYYY-MM-DD shaped date.
type Day string

// Relative day keywords understood by the provider.
const (
	Today     Day = "TODAY"
	Tomorrow  Day = "TOMORROW"
	Yesterday Day = "YESTERDAY"
)

// Days returns the relative keywords in keyboard order.
func Days() []Day {
	return []Day{Today, Tomorrow, Yesterday}
}

// ParseDay normalizes input (trim, upper-case) and reports whether it is a
// day keyword or has the shape of an ISO date. Only the length and the
// separator offsets are checked; the provider decides what a date means.
func ParseDay(input string) (Day, bool) {
	d := strings.ToUpper(strings.TrimSpace(input))
	switch Day(d) {
	case Today, Tomorrow, Yesterday:
		return Day(d), true
	}
	if IsDateShape(d) {
		return Day(d), true
	}
	return "", false
}

// IsDateShape reports whether s is 10 bytes long with '-' at offsets 4 and 7.
func IsDateShape(s string) bool {
	return len(s) == 10 && s[4] == '-' && s[7] == '-'
}

func (d Day) String() string { return string(d) }
