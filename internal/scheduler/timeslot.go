package scheduler

import (
	"fmt"
	"regexp"
	"time"
)

const (
	clockLayout    = "15:04"
	clockMaxLength = len(clockLayout)
)

var clockPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// TimeField names the input a ParseError refers to.
type TimeField string

const (
	// FieldStart identifies the start time input.
	FieldStart TimeField = "start"
	// FieldEnd identifies the end time input.
	FieldEnd TimeField = "end"
)

// ParseErrorKind classifies why a time range was rejected.
type ParseErrorKind string

const (
	// ParseErrorBadFormat means the input is not shaped like HH:MM.
	ParseErrorBadFormat ParseErrorKind = "bad_format"
	// ParseErrorUnparseable means the input is HH:MM shaped but not a valid clock time.
	ParseErrorUnparseable ParseErrorKind = "unparseable"
	// ParseErrorZeroOrNegativeDuration means start and end denote the same instant.
	ParseErrorZeroOrNegativeDuration ParseErrorKind = "zero_or_negative_duration"
)

// ParseError reports a rejected start/end pair.
type ParseError struct {
	Kind  ParseErrorKind
	Field TimeField
	Value string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ParseErrorBadFormat:
		return fmt.Sprintf("scheduler: %s time %q is not in HH:MM format", e.Field, e.Value)
	case ParseErrorUnparseable:
		return fmt.Sprintf("scheduler: %s time %q is not a valid clock time", e.Field, e.Value)
	case ParseErrorZeroOrNegativeDuration:
		return "scheduler: start time must be before end time"
	default:
		return "scheduler: invalid time range"
	}
}

// TimeRange is a canonical HH:MM pair where Start is strictly before End.
type TimeRange struct {
	Start string
	End   string
}

// DurationMinutes returns the whole minutes between Start and End.
func (r TimeRange) DurationMinutes() int {
	start, errStart := time.Parse(clockLayout, r.Start)
	end, errEnd := time.Parse(clockLayout, r.End)
	if errStart != nil || errEnd != nil {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

// Interval converts the range into an Interval carrying the given identifier.
func (r TimeRange) Interval(id string) Interval {
	return Interval{ID: id, Start: r.Start, End: r.End}
}

// NormalizeAndCorrect canonicalizes raw start and end inputs.
//
// Inputs longer than HH:MM are truncated (so "09:00:00" is accepted), an
// inverted pair is swapped, and a pair describing zero duration is rejected.
func NormalizeAndCorrect(rawStart, rawEnd string) (TimeRange, error) {
	start, err := parseClock(rawStart, FieldStart)
	if err != nil {
		return TimeRange{}, err
	}
	end, err := parseClock(rawEnd, FieldEnd)
	if err != nil {
		return TimeRange{}, err
	}

	if start.After(end) {
		start, end = end, start
	}
	if !start.Before(end) {
		return TimeRange{}, &ParseError{Kind: ParseErrorZeroOrNegativeDuration}
	}

	return TimeRange{Start: start.Format(clockLayout), End: end.Format(clockLayout)}, nil
}

func parseClock(raw string, field TimeField) (time.Time, error) {
	value := raw
	if len(value) > clockMaxLength {
		value = value[:clockMaxLength]
	}
	if !clockPattern.MatchString(value) {
		return time.Time{}, &ParseError{Kind: ParseErrorBadFormat, Field: field, Value: raw}
	}
	parsed, err := time.Parse(clockLayout, value)
	if err != nil {
		return time.Time{}, &ParseError{Kind: ParseErrorUnparseable, Field: field, Value: raw}
	}
	return parsed, nil
}
