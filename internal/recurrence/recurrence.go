// Package recurrence materialises a recurring campaign post into the dated
// instances that are persisted as one series.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"campaigncal/internal/dates"
	appLog "campaigncal/internal/log"
	"campaigncal/internal/model"
)

const defaultMaxInstances = 1000

var (
	ErrEndDateRequired   = errors.New("recurrence end date is required")
	ErrEndBeforeStart    = errors.New("recurrence end date is before the first date")
	ErrInvalidDate       = errors.New("invalid post date")
	ErrUnknownRecurrence = errors.New("unknown recurrence rule")
)

// Config controls expansion.
type Config struct {
	// MaxInstances caps the series length. If zero, defaultMaxInstances is used.
	MaxInstances int
}

// Validate is the precondition check callers run before Expand. Expand
// itself trusts its input.
func Validate(p model.CampaignPost) error {
	if !dates.Valid(p.Date) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, p.Date)
	}
	switch p.Recurrence {
	case "", model.RecurNone:
		return nil
	case model.RecurWeekly, model.RecurMonthly:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRecurrence, p.Recurrence)
	}
	if p.RecurrenceEndDate == "" {
		return ErrEndDateRequired
	}
	if !dates.Valid(p.RecurrenceEndDate) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, p.RecurrenceEndDate)
	}
	if p.RecurrenceEndDate < p.Date {
		return ErrEndBeforeStart
	}
	return nil
}

// Expand is ExpandWith using the default Config.
func Expand(tmpl model.CampaignPost) []model.CampaignPost {
	return ExpandWith(tmpl, Config{})
}

// ExpandWith emits one post per cadence step from tmpl.Date while the step
// is on or before tmpl.RecurrenceEndDate. Weekly steps add 7 days; monthly
// steps add one calendar month with time.AddDate normalisation, so the 31st
// rolls into the following month (2026-01-31 is followed by 2026-03-03,
// then 2026-04-03). All instances share tmpl's content; only Date and Year
// differ, and every ParentPostID is empty until Link is applied.
//
// A non-recurring post yields itself. An end date before the start yields
// an empty series.
func ExpandWith(tmpl model.CampaignPost, cfg Config) []model.CampaignPost {
	if cfg.MaxInstances <= 0 {
		cfg.MaxInstances = defaultMaxInstances
	}

	start := civil(dates.ParseLocalDate(tmpl.Date))

	var days []time.Time
	switch tmpl.Recurrence {
	case model.RecurWeekly:
		days = weekly(start, civil(dates.ParseLocalDate(tmpl.RecurrenceEndDate)), cfg.MaxInstances+1)
	case model.RecurMonthly:
		days = monthly(start, civil(dates.ParseLocalDate(tmpl.RecurrenceEndDate)), cfg.MaxInstances+1)
	default:
		days = []time.Time{start}
	}

	if len(days) > cfg.MaxInstances {
		days = days[:cfg.MaxInstances]
		appLog.Error("recurrence: truncated series due to cap",
			errors.New("max instances reached"),
			"title", tmpl.Title,
			"recurrence", string(tmpl.Recurrence),
			"cap", cfg.MaxInstances,
		)
	}

	out := make([]model.CampaignPost, 0, len(days))
	for _, d := range days {
		p := tmpl
		p.ID = ""
		p.ParentPostID = ""
		p.Date = d.Format(dates.Layout)
		p.Year = d.Year()
		p.Channels = append([]string(nil), tmpl.Channels...)
		p.MediaLinks = append([]string(nil), tmpl.MediaLinks...)
		out = append(out, p)
	}
	return out
}

// Link points every instance after the first at headID, the identifier the
// store assigned to the first instance. The head keeps an empty parent.
func Link(series []model.CampaignPost, headID string) {
	for i := range series {
		if i == 0 {
			series[i].ParentPostID = ""
			continue
		}
		series[i].ParentPostID = headID
	}
}

// civil moves a local calendar date to UTC midnight of the same day so that
// cadence arithmetic is not affected by DST.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekly lets rrule walk the cadence; its UNTIL bound is inclusive.
func weekly(start, end time.Time, limit int) []time.Time {
	if end.Before(start) {
		return nil
	}
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Dtstart: start,
		Until:   end,
		Count:   limit,
	})
	if err != nil {
		appLog.Error("recurrence: failed to build weekly rule", err, "start", start.Format(dates.Layout))
		return nil
	}
	return r.All()
}

// monthly advances a cursor by AddDate(0, 1, 0). rrule's MONTHLY skips
// months that lack the start day, which is not the rollover we want.
func monthly(start, end time.Time, limit int) []time.Time {
	var out []time.Time
	for cur := start; !cur.After(end) && len(out) < limit; cur = cur.AddDate(0, 1, 0) {
		out = append(out, cur)
	}
	return out
}
