package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-orders/models"
)

// DisplayDateLayout renders dates the way a US-locale spreadsheet shows them.
const DisplayDateLayout = "1/2/2006"

// monthName matches English month names and their common abbreviations only,
// so words such as "Marketing" or "Decided" never start a date.
const monthName = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

const monthDayYear = monthName + `\b\.?\s+\d{1,2},?\s+\d{4}\b`

var (
	// qualifiedDatePattern requires the verb phrase eBay prints before the sale date.
	qualifiedDatePattern = regexp.MustCompile(`(?i)(?:paid on|sold on|date sold|date paid)[:\s]*(` + monthDayYear + `)`)

	// bareDatePattern is the fallback when no verb phrase precedes a date.
	bareDatePattern = regexp.MustCompile(`(?i)\b(` + monthDayYear + `)`)
)

// SaleDate is the outcome of date extraction.
type SaleDate struct {
	Display string
	// SortKey is epoch millis at midnight, nil when the date did not parse.
	SortKey *int64
}

// Time returns the parsed date in loc, if any.
func (d SaleDate) Time(loc *time.Location) (time.Time, bool) {
	if d.SortKey == nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(*d.SortKey).In(loc), true
}

// ExtractDate locates the sale date in the page text. Dates are interpreted at
// midnight in loc; a nil loc means UTC.
func ExtractDate(text string, loc *time.Location) SaleDate {
	raw := MatchDate(text)
	if raw == "" {
		return SaleDate{Display: models.UnknownDate}
	}

	t, ok := ParseDate(raw, loc)
	if !ok {
		return SaleDate{Display: raw}
	}
	key := t.UnixMilli()
	return SaleDate{Display: t.Format(DisplayDateLayout), SortKey: &key}
}

// MatchDate returns the verb-qualified date text, else the first bare date, else "".
func MatchDate(text string) string {
	if m := qualifiedDatePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := bareDatePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ParseDate parses "Oct 12, 2025" style text, tolerating full month names,
// periods and a missing comma.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	fields := strings.Fields(strings.NewReplacer(",", " ", ".", " ").Replace(raw))
	if len(fields) != 3 || len(fields[0]) < 3 {
		return time.Time{}, false
	}
	month := strings.ToUpper(fields[0][:1]) + strings.ToLower(fields[0][1:3])

	t, err := time.ParseInLocation("Jan 2 2006", month+" "+fields[1]+" "+fields[2], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
