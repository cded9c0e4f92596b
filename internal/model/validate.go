package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"campaigncal/internal/dates"
)

var (
	ErrNoTitle         = errors.New("title is required")
	ErrNoDates         = errors.New("event needs at least one date")
	ErrInvalidDate     = errors.New("invalid date")
	ErrSummaryTooLong  = fmt.Errorf("summary exceeds %d characters", MaxSummaryLen)
	ErrInvalidStatus   = errors.New("invalid post status")
	ErrMissingChannels = errors.New("post needs at least one channel")
)

// SortDates orders the date instances ascending by date, then start time.
func (e *Event) SortDates() {
	sort.SliceStable(e.Dates, func(i, j int) bool {
		a, b := e.Dates[i], e.Dates[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.StartTime < b.StartTime
	})
}

// Validate checks the fields a caller must supply before an event is stored.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrNoTitle
	}
	if len(e.Dates) == 0 {
		return ErrNoDates
	}
	for _, d := range e.Dates {
		if !dates.Valid(d.Date) {
			return fmt.Errorf("%w: %q", ErrInvalidDate, d.Date)
		}
	}
	if utf8.RuneCountInString(e.Summary) > MaxSummaryLen {
		return ErrSummaryTooLong
	}
	return nil
}

// Validate checks the content fields of a post. Recurrence rules are
// checked separately by the recurrence package.
func (p CampaignPost) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrNoTitle
	}
	if !dates.Valid(p.Date) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, p.Date)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, p.Status)
	}
	if len(p.Channels) == 0 {
		return ErrMissingChannels
	}
	return nil
}
