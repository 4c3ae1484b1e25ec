package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseableDate is returned when no date pattern is found in the text
var ErrUnparseableDate = errors.New("unparseable date text")

const isoLayout = "2006-01-02"

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	// "Sun. Jun 29\n1:35 pm ET"
	weekdayDatePattern = regexp.MustCompile(`(\w{3})\.\s+(\w{3})\s+(\d{1,2})`)
	// "Jun. 29" or "Jun 29"
	monthDayPattern = regexp.MustCompile(`([A-Za-z]{3})[.\s]+(\d{1,2})\b`)
)

var months = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// ParseEventDateStrict converts scraped date text to YYYY-MM-DD. The text never
// carries a year, so the year of reference is used.
func ParseEventDateStrict(text string, reference time.Time) (string, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return "", ErrUnparseableDate
	}
	if iso := isoDatePattern.FindString(cleaned); iso != "" {
		if _, err := time.Parse(isoLayout, iso); err == nil {
			return iso, nil
		}
	}

	if m := weekdayDatePattern.FindStringSubmatch(cleaned); m != nil {
		if date, ok := buildDate(m[2], m[3], reference); ok {
			return date, nil
		}
	}
	for _, m := range monthDayPattern.FindAllStringSubmatch(cleaned, -1) {
		if date, ok := buildDate(m[1], m[2], reference); ok {
			return date, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnparseableDate, cleaned)
}

// ParseEventDate is the best-effort form of ParseEventDateStrict: malformed
// text yields the reference date.
func ParseEventDate(text string, reference time.Time) string {
	date, err := ParseEventDateStrict(text, reference)
	if err != nil {
		return reference.Format(isoLayout)
	}
	return date
}

func buildDate(monthText, dayText string, reference time.Time) (string, bool) {
	month, ok := months[strings.ToLower(monthText)]
	if !ok {
		return "", false
	}
	day, err := strconv.Atoi(dayText)
	if err != nil || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(reference.Year(), month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes Feb 30 into March
	if t.Month() != month {
		return "", false
	}
	return t.Format(isoLayout), true
}
