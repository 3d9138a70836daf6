package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/vjeantet/jodaTime"
)

// DefaultDateTimePattern is used when FormatInTimeZone gets an empty pattern.
const DefaultDateTimePattern = "yyyy-MM-dd HH:mm"

const (
	localInputLayout = "2006-01-02T15:04"
	isoMillisLayout  = "2006-01-02T15:04:05.000Z07:00"
)

// FormatInTimeZone renders t in the IANA zone tz using a Joda/date-fns style
// pattern such as "yyyy-MM-dd HH:mm". Text in single quotes is literal.
func FormatInTimeZone(t time.Time, tz, pattern string) (string, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", fmt.Errorf("load time zone %q: %w", tz, err)
	}
	if pattern == "" {
		pattern = DefaultDateTimePattern
	}
	return jodaTime.Format(pattern, t.In(loc)), nil
}

// ToLocalInputValue renders t as a datetime-local input value in loc.
func ToLocalInputValue(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(localInputLayout)
}

// InputValueToISO reads a datetime-local value in loc and returns it as a UTC
// ISO-8601 timestamp with milliseconds.
func InputValueToISO(value string, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(localInputLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return "", fmt.Errorf("parse local input value %q: %w", value, err)
	}
	return t.UTC().Format(isoMillisLayout), nil
}
