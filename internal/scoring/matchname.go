package scoring

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MatchName builds the display name of a new match: DDMM-INITIALS-NN, where
// INITIALS are the first letters of the nicknames in seat order and NN is the
// match's sequence number for the day (matchesToday + 1).
func MatchName(nicknames []string, now time.Time, matchesToday int) string {
	var initials strings.Builder
	for _, nick := range nicknames {
		r, _ := utf8.DecodeRuneInString(strings.TrimSpace(nick))
		if r == utf8.RuneError {
			continue
		}
		initials.WriteRune(unicode.ToUpper(r))
	}
	return fmt.Sprintf("%s-%s-%02d", now.Format("0201"), initials.String(), matchesToday+1)
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
