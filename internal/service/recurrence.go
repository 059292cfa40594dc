package service

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/lesprivat/les-api/pkg/errors"
)

// timeOfDayLayout is the accepted clock format for lesson times.
const timeOfDayLayout = "15:04"

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday resolves a weekday name, case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	return day, nil
}

// GenerateOccurrences maps a weekly recurrence pattern to an ordered list of
// lesson timestamps. The walk starts at anchor (inclusive) and advances one
// calendar day at a time, emitting each date whose weekday belongs to the
// pattern until count occurrences are produced. Identical inputs always
// yield identical output.
func GenerateOccurrences(weekdays []string, anchor time.Time, count int, timeOfDay string) ([]time.Time, error) {
	if count <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "meeting count must be positive")
	}
	if len(weekdays) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "weekday pattern is empty")
	}

	pattern := make(map[time.Weekday]bool, len(weekdays))
	for _, name := range weekdays {
		day, err := ParseWeekday(name)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidConfiguration.Code, appErrors.ErrInvalidConfiguration.Status, "invalid weekday in pattern")
		}
		pattern[day] = true
	}

	clock, err := time.Parse(timeOfDayLayout, timeOfDay)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidConfiguration.Code, appErrors.ErrInvalidConfiguration.Status, "invalid time of day")
	}

	occurrences := make([]time.Time, 0, count)
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	for len(occurrences) < count {
		if pattern[day.Weekday()] {
			occurrences = append(occurrences, time.Date(
				day.Year(), day.Month(), day.Day(),
				clock.Hour(), clock.Minute(), 0, 0, day.Location()))
		}
		day = day.AddDate(0, 0, 1)
	}
	return occurrences, nil
}
