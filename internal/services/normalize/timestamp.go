package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/narro/internal/models"
)

// TimeParts is the calendar breakdown of an order timestamp
type TimeParts struct {
	Date   string
	Time   string
	Hour   string
	Period models.TimePeriod
}

var unknownTime = TimeParts{Period: models.PeriodUnknown}

// Layouts tried in order against the timestamp truncated at its first 'Z'.
// Fractional seconds are accepted after the seconds field by time.Parse.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"02-01-2006 15:04:05",
}

// ParseTimestamp splits a timestamp into date, time, hour and period.
// Known layouts are tried first, then the value is split on 'T' or a space.
// Anything that cannot produce a valid hour yields empty fields and PeriodUnknown.
func ParseTimestamp(raw string) TimeParts {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return unknownTime
	}

	trimmed := raw
	if idx := strings.Index(trimmed, "Z"); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return fromTime(t)
		}
	}

	// Offsets are kept as local wall-clock time of the store
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return fromTime(t)
	}

	return splitTimestamp(trimmed)
}

func fromTime(t time.Time) TimeParts {
	return TimeParts{
		Date:   t.Format("2006-01-02"),
		Time:   t.Format("15:04:05"),
		Hour:   strconv.Itoa(t.Hour()),
		Period: models.PeriodForHour(t.Hour()),
	}
}

func splitTimestamp(s string) TimeParts {
	var datePart, timePart string
	switch {
	case strings.Contains(s, "T"):
		datePart, timePart, _ = strings.Cut(s, "T")
	case strings.Contains(s, " "):
		datePart, timePart, _ = strings.Cut(s, " ")
	default:
		return unknownTime
	}

	timePart = strings.TrimSpace(timePart)
	hourText, _, found := strings.Cut(timePart, ":")
	if datePart == "" || !found {
		return unknownTime
	}

	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 0 || hour > 23 {
		return unknownTime
	}

	return TimeParts{
		Date:   datePart,
		Time:   timePart,
		Hour:   strconv.Itoa(hour),
		Period: models.PeriodForHour(hour),
	}
}
