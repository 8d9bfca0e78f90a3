package importer

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	dateOutputLayout     = "2006-01-02"
	dateTimeOutputLayout = "2006-01-02T15:04:05"
)

// Accepted input patterns, tried in order; the first full match wins.
// Parsing is strict: an impossible calendar date such as "Feb 30, 2025"
// matches no layout and is kept as raw text instead of rolling over into
// the next month.
var (
	dateLayouts = []string{
		"Jan 2, 2006",
		"Jan 02, 2006",
		"January 2, 2006",
		"2006-01-02",
	}
	dateTimeLayouts = []string{
		"Jan 2, 2006 3:04 PM",
		"Jan 02, 2006 03:04 PM",
		"January 2, 2006 3:04 PM",
		"2006-01-02 15:04:05",
		time.RFC3339,
		dateTimeOutputLayout,
	}
)

// Cast coerces cell into the type policy of field.
func Cast(field FieldName, cell Cell) Value {
	kind := KindOf(field)

	if cell.HasTime {
		switch kind {
		case KindDate:
			return Value{Outcome: OutcomeParsed, Kind: kind, Text: cell.Time.Format(dateOutputLayout)}
		case KindDateTime:
			return Value{Outcome: OutcomeParsed, Kind: kind, Text: cell.Time.Format(dateTimeOutputLayout)}
		}
	}

	raw := strings.TrimSpace(cell.Text)
	if raw == "" {
		return nullValue(kind)
	}

	switch kind {
	case KindInteger:
		return castInteger(raw)
	case KindDate:
		return castDateLike(raw, kind, dateLayouts, dateOutputLayout)
	case KindDateTime:
		return castDateLike(raw, kind, dateTimeLayouts, dateTimeOutputLayout)
	default:
		return Value{Outcome: OutcomeParsed, Kind: kind, Text: raw}
	}
}

// CastText is Cast for a plain string cell.
func CastText(field FieldName, raw string) Value {
	return Cast(field, TextCell(raw))
}

// castInteger keeps every digit in raw, so "1,234 KB" becomes 1234 and
// "KB5031356 (v2)" becomes 50313562.
func castInteger(raw string) Value {
	digits := extractDigits(raw)
	if digits == "" {
		return nullValue(KindInteger)
	}

	parsed, err := strconv.ParseInt(digits, 10, 64)
	if err != nil && errors.Is(err, strconv.ErrRange) {
		parsed = math.MaxInt64
	}
	return Value{Outcome: OutcomeParsed, Kind: KindInteger, Int: parsed}
}

func extractDigits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func castDateLike(raw string, kind Kind, layouts []string, outputLayout string) Value {
	if parsed, ok := parseFirstLayout(raw, layouts); ok {
		return Value{Outcome: OutcomeParsed, Kind: kind, Text: parsed.Format(outputLayout)}
	}
	return Value{Outcome: OutcomeRawFallback, Kind: kind, Text: raw}
}

func parseFirstLayout(value string, layouts []string) (time.Time, bool) {
	// Go only accepts an upper-case meridiem.
	candidate := upperMeridiem(value)
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, candidate, time.Local); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func upperMeridiem(value string) string {
	if len(value) < 2 {
		return value
	}
	suffix := value[len(value)-2:]
	switch suffix {
	case "am", "Am", "aM", "pm", "Pm", "pM":
		return value[:len(value)-2] + strings.ToUpper(suffix)
	}
	return value
}
