// Package ics converts between the venue calendar and iCalendar files:
// Import reads a VCALENDAR into events for bulk import, Export publishes
// events, open deadlines and posts as a subscribable feed.
package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"campaigncal/internal/dates"
	appLog "campaigncal/internal/log"
	"campaigncal/internal/model"
)

const (
	defaultMaxDates    = 52
	defaultHorizonDays = 365
)

// ImportOptions controls how VEVENTs become events.
type ImportOptions struct {
	// Location is the venue timezone used to derive local dates and times.
	// If nil, time.Local is used.
	Location *time.Location

	// From and Until bound the imported date instances by day, both
	// inclusive. A zero From means today; a zero Until means
	// defaultHorizonDays after From.
	From  time.Time
	Until time.Time

	// MaxDates caps the date instances produced by one RRULE. If zero,
	// defaultMaxDates is used.
	MaxDates int
}

// parsedEvent is one VEVENT reduced to what an event needs.
type parsedEvent struct {
	UID         string
	Summary     string
	Description string

	Start  time.Time
	End    time.Time
	AllDay bool

	// Day is the civil start date for all-day events.
	Day string

	RawRRule string
	ExDates  []time.Time

	// RecurrenceID is set on overrides: the start of the occurrence this
	// VEVENT replaces.
	RecurrenceID *time.Time
}

// uidGroup collects the VEVENTs sharing one UID.
type uidGroup struct {
	uid       string
	masters   []parsedEvent
	overrides []parsedEvent
}

// window is the inclusive day range an import keeps.
type window struct {
	from, until string
	// start and end widen the range by a day on each side for rrule
	// expansion; instances are then filtered on their local date.
	start, end time.Time
}

func newWindow(opts ImportOptions) window {
	from := opts.From
	if from.IsZero() {
		from = time.Now()
	}
	from = from.In(opts.Location)
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, opts.Location)

	until := opts.Until
	if until.IsZero() {
		until = fromDay.AddDate(0, 0, defaultHorizonDays)
	}
	until = until.In(opts.Location)
	untilDay := time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, opts.Location)

	return window{
		from:  fromDay.Format(dates.Layout),
		until: untilDay.Format(dates.Layout),
		start: fromDay.AddDate(0, 0, -1),
		end:   untilDay.AddDate(0, 0, 2),
	}
}

func (w window) contains(day string) bool {
	return day >= w.from && day <= w.until
}

// Import parses an iCalendar payload into events without ids or tasks.
// VEVENTs sharing a UID (split entries, RECURRENCE-ID overrides) are merged
// into one event with several date instances; an override replaces the
// occurrence it names. Recurring VEVENTs are expanded into date instances
// inside the From..Until window, at most MaxDates per rule. Events left
// without a date in the window are dropped.
func Import(r io.Reader, opts ImportOptions) ([]model.Event, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MaxDates <= 0 {
		opts.MaxDates = defaultMaxDates
	}
	win := newWindow(opts)

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	var groups []*uidGroup
	byKey := make(map[string]*uidGroup)

	for i, comp := range cal.Events() {
		pe, perr := parseVEvent(comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Warn("ics vevent skipped", "index", i, "reason", perr.Error())
			continue
		}
		key := pe.UID
		if key == "" {
			key = fmt.Sprintf("#%d", i)
		}
		g, ok := byKey[key]
		if !ok {
			g = &uidGroup{uid: pe.UID}
			byKey[key] = g
			groups = append(groups, g)
		}
		if pe.RecurrenceID != nil && pe.UID != "" {
			// Overrides describe one occurrence; a stray RRULE on them is ignored.
			pe.RawRRule = ""
			g.overrides = append(g.overrides, pe)
			continue
		}
		g.masters = append(g.masters, pe)
	}

	out := make([]model.Event, 0, len(groups))
	dropped := 0
	for _, g := range groups {
		ev, ok := g.event(win, opts)
		if !ok {
			dropped++
			continue
		}
		out = append(out, ev)
	}

	appLog.Info("ics import completed",
		"vevents", len(cal.Events()),
		"events", len(out),
		"outside_window", dropped,
		"from", win.from,
		"until", win.until,
	)
	return out, nil
}

// event merges a UID group into one event. ok is false when no instance
// falls inside the window.
func (g *uidGroup) event(win window, opts ImportOptions) (model.Event, bool) {
	first := g.overrides
	if len(g.masters) > 0 {
		first = g.masters
	}
	ev := model.Event{
		SourceUID: g.uid,
		Title:     first[0].Summary,
		Summary:   truncateRunes(first[0].Description, model.MaxSummaryLen),
		Tasks:     []model.Task{},
	}

	seen := make(map[model.DateInstance]bool)
	add := func(ds []model.DateInstance) {
		for _, d := range ds {
			if seen[d] {
				continue
			}
			seen[d] = true
			ev.Dates = append(ev.Dates, d)
		}
	}
	for _, m := range g.masters {
		add(instances(m, g.overrides, win, opts))
	}
	for _, o := range g.overrides {
		add(instances(o, nil, win, opts))
	}

	if len(ev.Dates) == 0 {
		appLog.Debug("ics event outside import window", "uid", g.uid, "title", ev.Title)
		return ev, false
	}
	ev.SortDates()
	return ev, true
}

func parseVEvent(ve *ical.VEvent) (parsedEvent, error) {
	var out parsedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = strings.TrimSpace(p.Value)
	}
	if out.Summary == "" {
		return out, errors.New("missing SUMMARY")
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = strings.TrimSpace(p.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}

	// VALUE=DATE or no 'T' in the value -> all-day
	if vs, ok := dtStart.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		out.AllDay = true
	}
	if !strings.Contains(dtStart.Value, "T") {
		out.AllDay = true
	}

	if out.AllDay {
		raw := strings.TrimSpace(dtStart.Value)
		if len(raw) < 8 {
			return out, fmt.Errorf("bad DTSTART %q", raw)
		}
		day := raw[0:4] + "-" + raw[4:6] + "-" + raw[6:8]
		if !dates.Valid(day) {
			return out, fmt.Errorf("bad DTSTART %q", raw)
		}
		out.Day = day
		out.Start = dates.ParseLocalDate(day)
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			start, err = propTime(dtStart)
			if err != nil {
				return out, fmt.Errorf("bad DTSTART %q: %w", dtStart.Value, err)
			}
		}
		out.Start = start
		if end, err := ve.GetEndAt(); err == nil {
			out.End = end
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTimeIn(part, propLocation(p)); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	// RECURRENCE-ID (overridden instance)
	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := propTime(p); err == nil {
			out.RecurrenceID = &t
		}
	}

	return out, nil
}

// instances turns a parsed VEVENT into local date instances inside win.
// Occurrences named by an override's RECURRENCE-ID are left out; the
// override contributes its own instance.
func instances(pe parsedEvent, overrides []parsedEvent, win window, opts ImportOptions) []model.DateInstance {
	var starts []time.Time
	switch {
	case pe.RawRRule != "":
		starts = expandRRule(pe, overrides, win)
	case overridden(pe.Start, overrides):
		return nil
	default:
		starts = []time.Time{pe.Start}
	}

	dur := time.Duration(0)
	if !pe.AllDay && !pe.End.IsZero() && pe.End.After(pe.Start) {
		dur = pe.End.Sub(pe.Start)
	}

	out := make([]model.DateInstance, 0, len(starts))
	for _, s := range starts {
		var d model.DateInstance
		if pe.AllDay {
			d = model.DateInstance{Date: dates.Format(s)}
		} else {
			local := s.In(opts.Location)
			d = model.DateInstance{Date: local.Format(dates.Layout), StartTime: local.Format("15:04")}
			if dur > 0 {
				end := local.Add(dur)
				if end.Format(dates.Layout) == d.Date {
					d.EndTime = end.Format("15:04")
				}
			}
		}
		if !win.contains(d.Date) {
			continue
		}
		if pe.RawRRule != "" && len(out) == opts.MaxDates {
			appLog.Warn("ics: recurring vevent truncated", "uid", pe.UID, "cap", opts.MaxDates)
			break
		}
		out = append(out, d)
	}
	return out
}

// overridden reports whether an override replaces the occurrence at start.
func overridden(start time.Time, overrides []parsedEvent) bool {
	for _, o := range overrides {
		if o.RecurrenceID != nil && o.RecurrenceID.Equal(start) {
			return true
		}
	}
	return false
}

func expandRRule(pe parsedEvent, overrides []parsedEvent, win window) []time.Time {
	r, err := rrule.StrToRRule(pe.RawRRule)
	if err != nil {
		appLog.Error("ics: failed to parse RRULE", err, "uid", pe.UID, "rrule", pe.RawRRule)
		return []time.Time{pe.Start}
	}
	r.DTStart(pe.Start)

	var set rrule.Set
	set.RRule(r)

	loc := pe.Start.Location()
	for _, ex := range pe.ExDates {
		set.ExDate(ex.In(loc))
	}
	for _, o := range overrides {
		if o.RecurrenceID != nil {
			set.ExDate(o.RecurrenceID.In(loc))
		}
	}

	return set.Between(win.start.In(loc), win.end.In(loc), true)
}

// propTime parses a date or date-time property, honouring its TZID.
func propTime(p *ical.IANAProperty) (time.Time, error) {
	return parseICSTimeIn(p.Value, propLocation(p))
}

// propLocation resolves a property's TZID parameter, falling back to
// time.Local.
func propLocation(p *ical.IANAProperty) *time.Location {
	if tz, ok := p.ICalParameters["TZID"]; ok && len(tz) > 0 {
		if loc, err := time.LoadLocation(tz[0]); err == nil {
			return loc
		}
	}
	return time.Local
}

// parseICSTimeIn parses a basic ICS date/date-time string. Floating and
// date-only values are read in loc; a trailing Z means UTC.
func parseICSTimeIn(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}

	// Date-only (all-day), e.g., 20250101
	return time.ParseInLocation("20060102", v, loc)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
