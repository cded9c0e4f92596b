// Package agenda answers the calendar and dashboard queries over in-memory
// events and campaign posts: filtering, per-day buckets, upcoming deadlines
// and the weekly assignee board.
//
// Every function is a pure transformation of its arguments and always
// returns a non-nil slice.
package agenda

import (
	"strings"
	"time"

	"campaigncal/internal/dates"
	"campaigncal/internal/model"
)

// Unassigned is the assignee filter value that selects records with no
// assignee.
const Unassigned = "unassigned"

// EventFilter narrows the event list of a calendar view.
type EventFilter struct {
	// SearchQuery is matched case-insensitively against title and performer.
	SearchQuery string
	// ShowPast keeps events whose primary date is before today.
	ShowPast     bool
	ContentScope model.ContentScope
	// From / To bound the primary date, inclusive. Empty means open.
	From string
	To   string
}

// PostFilter narrows the campaign post list of a calendar view.
type PostFilter struct {
	ContentScope model.ContentScope
	ShowPast     bool
	// Assignee is empty for no filtering, Unassigned for posts without an
	// assignee, otherwise an exact name.
	Assignee string
	// Date limits the result to one "YYYY-MM-DD" day.
	Date string
	// SearchQuery is matched case-insensitively against title and caption.
	SearchQuery string
	// Channel keeps posts published to this channel id.
	Channel string
	From    string
	To      string
}

// FilterEvents applies f to events. A social-only scope shows no events at
// all. Past events are those whose primary date is strictly before today.
func FilterEvents(events []model.Event, f EventFilter, today time.Time) []model.Event {
	out := make([]model.Event, 0, len(events))
	if f.ContentScope == model.ScopeSocial {
		return out
	}

	todayStr := dates.Format(dates.StartOfDay(today))
	query := strings.ToLower(strings.TrimSpace(f.SearchQuery))

	for _, ev := range events {
		if query != "" &&
			!strings.Contains(strings.ToLower(ev.Title), query) &&
			!strings.Contains(strings.ToLower(ev.Performer), query) {
			continue
		}
		primary := normalizeDate(ev.PrimaryDate())
		if !f.ShowPast && primary < todayStr {
			continue
		}
		if !inRange(primary, f.From, f.To) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// FilterCampaignPosts applies f to posts. An events-only scope shows no
// posts at all. The Date filter compares the stored date string, never a
// parsed time, so zone offsets cannot move a post to a neighbouring day.
func FilterCampaignPosts(posts []model.CampaignPost, f PostFilter, today time.Time) []model.CampaignPost {
	out := make([]model.CampaignPost, 0, len(posts))
	if f.ContentScope == model.ScopeEvents {
		return out
	}

	todayStr := dates.Format(dates.StartOfDay(today))
	query := strings.ToLower(strings.TrimSpace(f.SearchQuery))

	for _, p := range posts {
		if !f.ShowPast && normalizeDate(p.Date) < todayStr {
			continue
		}
		if !matchAssignee(p.Assignee, f.Assignee) {
			continue
		}
		if f.Date != "" && p.Date != f.Date {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Title), query) &&
			!strings.Contains(strings.ToLower(p.Caption), query) {
			continue
		}
		if f.Channel != "" && !contains(p.Channels, f.Channel) {
			continue
		}
		if !inRange(p.Date, f.From, f.To) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterTasks keeps the tasks whose assignee matches, using the same rules
// as PostFilter.Assignee.
func FilterTasks(tasks []model.Task, assignee string) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if matchAssignee(t.Assignee, assignee) {
			out = append(out, t)
		}
	}
	return out
}

// EventsOnDate returns the events with a date instance on day.
func EventsOnDate(day time.Time, events []model.Event) []model.Event {
	key := dates.Format(day)
	out := make([]model.Event, 0)
	for _, ev := range events {
		for _, d := range ev.Dates {
			if d.Date == key {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}

// PostsOnDate returns the posts on day that also pass f.
func PostsOnDate(day time.Time, posts []model.CampaignPost, f PostFilter, today time.Time) []model.CampaignPost {
	f.Date = dates.Format(day)
	return FilterCampaignPosts(posts, f, today)
}

func matchAssignee(have, want string) bool {
	switch want {
	case "":
		return true
	case Unassigned:
		return strings.TrimSpace(have) == ""
	default:
		return have == want
	}
}

// normalizeDate reformats parseable dates so that string comparison is
// chronological; malformed values compare as today.
func normalizeDate(s string) string {
	return dates.Format(dates.ParseLocalDate(s))
}

func inRange(day, from, to string) bool {
	if from != "" && day < from {
		return false
	}
	if to != "" && day > to {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
