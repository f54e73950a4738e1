package domain

import (
	"strings"
	"time"
)

const (
	MinSeverity = 1
	MaxSeverity = 5
)

// Entry is one journal record: a meal, the symptoms that followed it and
// how bad they were.
//
// ID and Timestamp are assigned once at creation and never change.
type Entry struct {
	// ID is an opaque identifier, unique within a journal.
	ID string `json:"id"`

	// Timestamp is the creation time in milliseconds since the Unix epoch.
	// It drives both ordering and day grouping.
	Timestamp int64 `json:"timestamp"`

	// Meal describes what was eaten. Several items are joined with ", ".
	Meal string `json:"meal"`

	// Symptoms is ordered and may be empty.
	Symptoms []string `json:"symptoms"`

	// Severity is in [MinSeverity, MaxSeverity].
	Severity int `json:"severity"`

	Notes string `json:"notes,omitempty"`
}

// Time returns the entry timestamp in loc.
func (e Entry) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(e.Timestamp).In(loc)
}

// Clone returns a copy that shares no backing arrays with e.
func (e Entry) Clone() Entry {
	if e.Symptoms != nil {
		e.Symptoms = append([]string(nil), e.Symptoms...)
	}
	return e
}

// Validate reports the first rule the entry breaks.
func (e Entry) Validate() error {
	switch {
	case strings.TrimSpace(e.ID) == "":
		return invalid("id", "must not be empty")
	case e.Timestamp <= 0:
		return invalid("timestamp", "must be a positive millisecond epoch")
	case strings.TrimSpace(e.Meal) == "":
		return invalid("meal", "must not be empty")
	case e.Severity < MinSeverity || e.Severity > MaxSeverity:
		return invalidf("severity", "must be between %d and %d, got %d", MinSeverity, MaxSeverity, e.Severity)
	}
	for i, s := range e.Symptoms {
		if strings.TrimSpace(s) == "" {
			return invalidf("symptoms", "item %d is blank", i)
		}
	}
	return nil
}

// normalized returns the canonical stored form of e: trimmed text and a
// non-nil symptom list.
func (e Entry) normalized() Entry {
	e = e.Clone()
	e.Meal = strings.TrimSpace(e.Meal)
	e.Notes = strings.TrimSpace(e.Notes)
	if e.Symptoms == nil {
		e.Symptoms = []string{}
	}
	for i, s := range e.Symptoms {
		e.Symptoms[i] = strings.TrimSpace(s)
	}
	return e
}
