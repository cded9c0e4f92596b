// Package digest builds the daily marketing digest (weekly board, deadline
// alerts, today's posts) and runs it on a cron schedule.
package digest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"campaigncal/internal/agenda"
	"campaigncal/internal/dates"
	appLog "campaigncal/internal/log"
	"campaigncal/internal/model"
	"campaigncal/internal/urgency"
)

// Profiles names the urgency profile used by each part of the digest.
type Profiles struct {
	// Board classifies the weekly board.
	Board urgency.Profile
	// Alerts classifies the upcoming deadline list.
	Alerts urgency.Profile
}

// DefaultProfiles matches the dashboard and deadline views.
var DefaultProfiles = Profiles{Board: urgency.Dashboard, Alerts: urgency.Deadlines}

// Report is one digest run.
type Report struct {
	Date  string       `json:"date"`
	Board agenda.Board `json:"board"`
	// Alerts lists open tasks that are overdue, urgent or soon.
	Alerts     []agenda.DeadlineEntry `json:"alerts"`
	Counts     agenda.Counts          `json:"counts"`
	PostsToday []model.CampaignPost   `json:"posts_today"`
}

// Build computes the digest for today.
func Build(events []model.Event, posts []model.CampaignPost, today time.Time, p Profiles) Report {
	upcoming := agenda.UpcomingDeadlines(events, today, p.Alerts)

	alerts := make([]agenda.DeadlineEntry, 0)
	for _, e := range upcoming {
		if e.Tier != urgency.Normal {
			alerts = append(alerts, e)
		}
	}

	return Report{
		Date:       dates.Format(dates.StartOfDay(today)),
		Board:      agenda.WeeklyBoard(events, today, p.Board),
		Alerts:     alerts,
		Counts:     agenda.TierCounts(upcoming),
		PostsToday: agenda.PostsOnDate(today, posts, agenda.PostFilter{ContentScope: model.ScopeAll}, today),
	}
}

// Log writes a summary of r to the application log.
func (r Report) Log() {
	appLog.Info("digest",
		"date", r.Date,
		"week", r.Board.WeekStart+".."+r.Board.WeekEnd,
		"board_tasks", len(r.Board.Entries()),
		"overdue", r.Counts.Overdue,
		"urgent", r.Counts.Urgent,
		"soon", r.Counts.Soon,
		"posts_today", len(r.PostsToday),
	)
	for _, e := range r.Alerts {
		if e.Tier == urgency.Overdue {
			appLog.Warn("task overdue",
				"task", e.Task.Title,
				"event", e.EventTitle,
				"due", e.Task.DueDate,
				"days", -e.DiffDays,
				"assignee", e.Task.Assignee,
			)
		}
	}
}

// WriteText prints r as plain text.
func (r Report) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Digest for %s\n", r.Date)
	fmt.Fprintf(&b, "Overdue %d, urgent %d, soon %d, later %d\n",
		r.Counts.Overdue, r.Counts.Urgent, r.Counts.Soon, r.Counts.Normal)

	fmt.Fprintf(&b, "\nWeek %s to %s\n", r.Board.WeekStart, r.Board.WeekEnd)
	if len(r.Board.Groups) == 0 {
		b.WriteString("  nothing due this week\n")
	}
	for _, g := range r.Board.Groups {
		fmt.Fprintf(&b, "  %s\n", g.Assignee)
		for _, e := range g.Entries {
			fmt.Fprintf(&b, "    %s %-7s %s (%s)\n", e.Task.DueDate, e.Tier, e.Task.Title, e.EventTitle)
		}
	}

	if len(r.Alerts) > 0 {
		b.WriteString("\nDeadlines\n")
		for _, e := range r.Alerts {
			fmt.Fprintf(&b, "  %s %-7s %s (%s)\n", e.Task.DueDate, e.Tier, e.Task.Title, e.EventTitle)
		}
	}

	if len(r.PostsToday) > 0 {
		b.WriteString("\nPosts today\n")
		for _, p := range r.PostsToday {
			fmt.Fprintf(&b, "  %s %s [%s] %s\n", p.Time, p.Title, strings.Join(p.Channels, ","), p.Status)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Source supplies the records a digest is built from.
type Source interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListPosts(ctx context.Context) ([]model.CampaignPost, error)
}

// RunOnce loads everything from src and builds the digest for today.
func RunOnce(ctx context.Context, src Source, today time.Time, p Profiles) (Report, error) {
	events, err := src.ListEvents(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load events: %w", err)
	}
	posts, err := src.ListPosts(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load posts: %w", err)
	}
	return Build(events, posts, today, p), nil
}
