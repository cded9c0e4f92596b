package ics

import (
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"campaigncal/internal/dates"
	"campaigncal/internal/model"
)

const productID = "-//campaigncal//venue marketing calendar//EN"

// ExportOptions selects what goes into the feed.
type ExportOptions struct {
	// Name is published as X-WR-CALNAME when set.
	Name string

	// Location interprets the stored local dates and times. If nil,
	// time.Local is used.
	Location *time.Location

	// Tasks adds one entry per open (not completed) task.
	Tasks bool
	// Posts adds one entry per campaign post.
	Posts bool

	// Now stamps DTSTAMP; zero means time.Now.
	Now time.Time
}

// Export renders events (one VEVENT per date instance), open task
// deadlines and posts as an iCalendar document.
func Export(events []model.Event, posts []model.CampaignPost, opts ExportOptions) string {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, ev := range events {
		for i, d := range ev.Dates {
			ve := cal.AddEvent(uid("event", ev.ID, i))
			ve.SetDtStampTime(opts.Now)
			ve.SetSummary(ev.Title)
			if desc := eventDescription(ev); desc != "" {
				ve.SetDescription(desc)
			}
			setWhen(ve, d.Date, d.StartTime, d.EndTime, opts.Location)
		}

		if !opts.Tasks {
			continue
		}
		for _, t := range ev.Tasks {
			if t.Completed {
				continue
			}
			ve := cal.AddEvent(uid("task", t.ID, 0))
			ve.SetDtStampTime(opts.Now)
			ve.SetSummary(taskSummary(t, ev))
			if desc := taskDescription(t); desc != "" {
				ve.SetDescription(desc)
			}
			if t.Channel != "" {
				ve.SetProperty(ical.ComponentPropertyCategories, t.Channel)
			}
			setWhen(ve, t.DueDate, t.DueTime, "", opts.Location)
		}
	}

	if opts.Posts {
		for _, p := range posts {
			ve := cal.AddEvent(uid("post", p.ID, 0))
			ve.SetDtStampTime(opts.Now)
			ve.SetSummary(p.Title)
			if p.Caption != "" {
				ve.SetDescription(p.Caption)
			}
			if len(p.Channels) > 0 {
				ve.SetProperty(ical.ComponentPropertyCategories, strings.Join(p.Channels, ","))
			}
			setWhen(ve, p.Date, p.Time, "", opts.Location)
		}
	}

	return cal.Serialize()
}

func uid(kind, id string, n int) string {
	if n > 0 {
		return kind + "-" + id + "-" + strconv.Itoa(n) + "@campaigncal"
	}
	return kind + "-" + id + "@campaigncal"
}

// setWhen writes DTSTART/DTEND: timed when hh:mm is present, all-day
// otherwise.
func setWhen(ve *ical.VEvent, day, startHM, endHM string, loc *time.Location) {
	start, ok := clock(day, startHM, loc)
	if !ok {
		d := dates.ParseLocalDate(day)
		ve.SetAllDayStartAt(d)
		ve.SetAllDayEndAt(dates.AddDays(d, 1))
		return
	}
	ve.SetStartAt(start)
	if end, ok := clock(day, endHM, loc); ok && end.After(start) {
		ve.SetEndAt(end)
	}
}

// clock combines a YYYY-MM-DD date and an HH:MM time in loc.
func clock(day, hm string, loc *time.Location) (time.Time, bool) {
	d, ok := dates.Parse(day)
	if !ok || hm == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("15:04", hm, loc)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), true
}

func eventDescription(ev model.Event) string {
	return joinNonEmpty("\n", ev.Performer, ev.Summary)
}

func taskSummary(t model.Task, ev model.Event) string {
	if ev.Title == "" {
		return t.Title
	}
	return t.Title + " (" + ev.Title + ")"
}

func taskDescription(t model.Task) string {
	assignee := ""
	if t.Assignee != "" {
		assignee = "Assignee: " + t.Assignee
	}
	return joinNonEmpty("\n", assignee, t.Notes)
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
