package bot

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrBadDateFormat indicates the input does not match the locale layout.
	ErrBadDateFormat = errors.New("bot: date does not match expected format")

	// ErrDateOutOfRange indicates a well-formed date outside the archive range.
	ErrDateOutOfRange = errors.New("bot: date outside the archive range")
)

// minApodDate is the first day the picture-of-the-day archive covers.
var minApodDate = time.Date(1995, time.June, 16, 0, 0, 0, 0, time.UTC)

// ParseDate validates user-typed date input against the locale layout and the
// archive range [1995-06-16, now] and returns the ISO calendar date.
//
// Input is cleaned up before parsing: surrounding whitespace and the bidi
// isolate marks Telegram clients copy out of bot messages are stripped, and
// commas are accepted in place of dots.
func ParseDate(cat *Catalog, input string, now time.Time) (string, error) {
	s := strings.TrimSpace(input)
	s = strings.Trim(s, "⁨⁩")
	s = strings.ReplaceAll(s, ",", ".")

	t, err := time.Parse(cat.InputFormat, s)
	if err != nil {
		return "", ErrBadDateFormat
	}
	if t.Before(minApodDate) || t.After(now) {
		return "", ErrDateOutOfRange
	}
	return t.Format("2006-01-02"), nil
}
