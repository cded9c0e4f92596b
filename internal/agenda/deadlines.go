package agenda

import (
	"sort"
	"strings"
	"time"

	"campaigncal/internal/dates"
	"campaigncal/internal/model"
	"campaigncal/internal/urgency"
)

// DeadlineEntry pairs an open task with its event and its urgency. It is
// derived for display and never persisted.
type DeadlineEntry struct {
	Task       model.Task   `json:"task"`
	EventID    string       `json:"event_id"`
	EventTitle string       `json:"event_title"`
	EventDate  string       `json:"event_date"`
	DiffDays   int          `json:"diff_days"`
	Tier       urgency.Tier `json:"tier"`
}

// UpcomingDeadlines flattens every incomplete task of events into deadline
// entries classified with p, sorted by due date. Tasks due the same day
// keep the order in which their events were given.
func UpcomingDeadlines(events []model.Event, today time.Time, p urgency.Profile) []DeadlineEntry {
	out := make([]DeadlineEntry, 0)
	for _, ev := range events {
		for _, t := range ev.Tasks {
			if t.Completed {
				continue
			}
			out = append(out, newEntry(ev, t, today, p))
		}
	}
	sortByDue(out)
	return out
}

func newEntry(ev model.Event, t model.Task, today time.Time, p urgency.Profile) DeadlineEntry {
	r := urgency.ClassifyDate(t.DueDate, today, p)
	if t.EventID == "" {
		t.EventID = ev.ID
	}
	return DeadlineEntry{
		Task:       t,
		EventID:    ev.ID,
		EventTitle: ev.Title,
		EventDate:  ev.PrimaryDate(),
		DiffDays:   r.DiffDays,
		Tier:       r.Tier,
	}
}

func sortByDue(entries []DeadlineEntry) {
	keys := make(map[string]string, len(entries))
	key := func(e DeadlineEntry) string {
		k, ok := keys[e.Task.DueDate]
		if !ok {
			k = normalizeDate(e.Task.DueDate)
			keys[e.Task.DueDate] = k
		}
		return k
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return key(entries[i]) < key(entries[j])
	})
}

// Counts tallies deadline entries per tier, for alert badges.
type Counts struct {
	Overdue int `json:"overdue"`
	Urgent  int `json:"urgent"`
	Soon    int `json:"soon"`
	Normal  int `json:"normal"`
}

// TierCounts counts entries per tier.
func TierCounts(entries []DeadlineEntry) Counts {
	var c Counts
	for _, e := range entries {
		switch e.Tier {
		case urgency.Overdue:
			c.Overdue++
		case urgency.Urgent:
			c.Urgent++
		case urgency.Soon:
			c.Soon++
		default:
			c.Normal++
		}
	}
	return c
}

// Group is one assignee column of the weekly board.
type Group struct {
	// Assignee is the trimmed assignee name, or Unassigned.
	Assignee   string          `json:"assignee"`
	Unassigned bool            `json:"unassigned"`
	Entries    []DeadlineEntry `json:"entries"`
}

// Board is the weekly task board.
type Board struct {
	WeekStart string  `json:"week_start"`
	WeekEnd   string  `json:"week_end"`
	Groups    []Group `json:"groups"`
}

// WeeklyBoard collects the incomplete tasks due between Monday and Sunday
// of today's week (both inclusive), classifies them with p and groups them
// by assignee. Named groups come first in name order, followed by the
// unassigned group; groups without tasks are left out. Entries within a
// group are sorted by due date.
func WeeklyBoard(events []model.Event, today time.Time, p urgency.Profile) Board {
	monday, sunday := dates.WeekBounds(today)
	board := Board{
		WeekStart: dates.Format(monday),
		WeekEnd:   dates.Format(sunday),
		Groups:    make([]Group, 0),
	}

	byName := make(map[string][]DeadlineEntry)
	var unassigned []DeadlineEntry
	for _, ev := range events {
		for _, t := range ev.Tasks {
			if t.Completed {
				continue
			}
			due := normalizeDate(t.DueDate)
			if due < board.WeekStart || due > board.WeekEnd {
				continue
			}
			e := newEntry(ev, t, today, p)
			name := strings.TrimSpace(t.Assignee)
			if name == "" {
				unassigned = append(unassigned, e)
				continue
			}
			byName[name] = append(byName[name], e)
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entries := byName[name]
		sortByDue(entries)
		board.Groups = append(board.Groups, Group{Assignee: name, Entries: entries})
	}
	if len(unassigned) > 0 {
		sortByDue(unassigned)
		board.Groups = append(board.Groups, Group{Assignee: Unassigned, Unassigned: true, Entries: unassigned})
	}
	return board
}

// Entries returns every entry on the board in group order.
func (b Board) Entries() []DeadlineEntry {
	out := make([]DeadlineEntry, 0)
	for _, g := range b.Groups {
		out = append(out, g.Entries...)
	}
	return out
}
