package resolver

import (
	"fmt"
	"strconv"
	"time"
)

// PeriodicalIgnoreRegex matches filenames that look like magazines or other
// periodicals: dates such as 2010-11 or 11.2010, month names, issue numbers
// and seasons next to a year. Years are accepted up to the decade of now.
func PeriodicalIgnoreRegex(now time.Time) string {
	decade := strconv.Itoa(now.Year())[2:3]
	year := fmt.Sprintf(`(19[0-9]|20[0-%s])[0-9]`, decade)

	return `(^|[^0-9])` + year + `[ _.-]*(0?[1-9]|10|11|12)([0-9][0-9])?($|[^0-9])` +
		`|(^|[^0-9])([0-9][0-9])?(0?[1-9]|10|11|12)[ _.-]*` + year + `($|[^0-9])` +
		`|((^|[^a-z])(jan(uary)?|feb(ruary)?|mar(ch)?|apr(il)?|may|june?|july?|aug(ust)?|sep(tember)?|` +
		`oct(ober)?|nov(ember)?|dec(ember)?|mag(azine)?|issue|#[ _.-]*[0-9]+)+($|[^a-z]))` +
		`|((spr(ing)?|sum(mer)?|aut(umn)?|win(ter)?|fall)[ _.-]*` + year + `)` +
		`|(` + year + `[ _.-]*(spr(ing)?|sum(mer)?|aut(umn)?|win(ter)?|fall))`
}
