package agenda

import (
	"testing"
	"time"

	"campaigncal/internal/dates"
	"campaigncal/internal/model"
	"campaigncal/internal/urgency"
)

// 2026-10-14 is a Wednesday; its week runs 10-12..10-18.
var today = dates.ParseLocalDate("2026-10-14")

func event(id, title, performer string, days ...string) model.Event {
	ev := model.Event{ID: id, Title: title, Performer: performer}
	for _, d := range days {
		ev.Dates = append(ev.Dates, model.DateInstance{Date: d})
	}
	return ev
}

func task(id, due, assignee string, done bool) model.Task {
	return model.Task{ID: id, Title: "task " + id, Channel: "instagram", DueDate: due, Assignee: assignee, Completed: done}
}

func campaignPost(id, date, assignee string, channels ...string) model.CampaignPost {
	return model.CampaignPost{ID: id, Title: "post " + id, Date: date, Assignee: assignee, Channels: channels, Status: model.PostPlanned}
}

func eventIDs(events []model.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func postIDs(posts []model.CampaignPost) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func sameIDs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// ============================================================
// Event filters
// ============================================================

func TestFilterEventsSocialScopeIsEmpty(t *testing.T) {
	events := []model.Event{event("a", "Jazz", "", "2026-10-20")}
	got := FilterEvents(events, EventFilter{ContentScope: model.ScopeSocial, ShowPast: true}, today)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestFilterEventsPastBoundary(t *testing.T) {
	events := []model.Event{
		event("yesterday", "A", "", "2026-10-13"),
		event("today", "B", "", "2026-10-14"),
		event("tomorrow", "C", "", "2026-10-15"),
		// Primary date is past even though a later date is not.
		event("multi", "D", "", "2026-10-01", "2026-10-30"),
	}
	sameIDs(t, eventIDs(FilterEvents(events, EventFilter{}, today)), []string{"today", "tomorrow"})
	sameIDs(t, eventIDs(FilterEvents(events, EventFilter{ShowPast: true}, today)), []string{"yesterday", "today", "tomorrow", "multi"})
}

func TestFilterEventsSearch(t *testing.T) {
	events := []model.Event{
		event("a", "Jazz Night", "Trio Helmi", "2026-10-20"),
		event("b", "Market Day", "", "2026-10-21"),
		event("c", "Poetry", "JAZZ poets", "2026-10-22"),
	}
	got := FilterEvents(events, EventFilter{SearchQuery: "  jazz "}, today)
	sameIDs(t, eventIDs(got), []string{"a", "c"})

	got = FilterEvents(events, EventFilter{SearchQuery: "helmi", ContentScope: model.ScopeAll}, today)
	sameIDs(t, eventIDs(got), []string{"a"})
}

func TestFilterEventsRange(t *testing.T) {
	events := []model.Event{
		event("a", "A", "", "2026-10-20"),
		event("b", "B", "", "2026-11-02"),
		event("c", "C", "", "2026-12-01"),
	}
	got := FilterEvents(events, EventFilter{From: "2026-11-01", To: "2026-11-30"}, today)
	sameIDs(t, eventIDs(got), []string{"b"})
}

// ============================================================
// Post filters
// ============================================================

func TestFilterPostsEventsScopeIsEmpty(t *testing.T) {
	posts := []model.CampaignPost{campaignPost("p", "2026-10-20", "")}
	got := FilterCampaignPosts(posts, PostFilter{ContentScope: model.ScopeEvents, ShowPast: true}, today)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestFilterPostsAssignee(t *testing.T) {
	posts := []model.CampaignPost{
		campaignPost("maija", "2026-10-20", "Maija"),
		campaignPost("blank", "2026-10-20", "  "),
		campaignPost("none", "2026-10-20", ""),
		campaignPost("maijaLower", "2026-10-20", "maija"),
	}
	sameIDs(t, postIDs(FilterCampaignPosts(posts, PostFilter{Assignee: Unassigned}, today)), []string{"blank", "none"})
	sameIDs(t, postIDs(FilterCampaignPosts(posts, PostFilter{Assignee: "Maija"}, today)), []string{"maija"})
	sameIDs(t, postIDs(FilterCampaignPosts(posts, PostFilter{}, today)), []string{"maija", "blank", "none", "maijaLower"})
}

func TestFilterPostsDateAndPast(t *testing.T) {
	posts := []model.CampaignPost{
		campaignPost("old", "2026-10-01", ""),
		campaignPost("a", "2026-10-20", ""),
		campaignPost("b", "2026-10-21", ""),
	}
	sameIDs(t, postIDs(FilterCampaignPosts(posts, PostFilter{}, today)), []string{"a", "b"})
	sameIDs(t, postIDs(FilterCampaignPosts(posts, PostFilter{Date: "2026-10-21"}, today)), []string{"b"})
	sameIDs(t, postIDs(FilterCampaignPosts(posts, PostFilter{Date: "2026-10-01"}, today)), []string{})
	sameIDs(t, postIDs(FilterCampaignPosts(posts, PostFilter{Date: "2026-10-01", ShowPast: true}, today)), []string{"old"})
}

func TestFilterPostsSearchAndChannel(t *testing.T) {
	posts := []model.CampaignPost{
		campaignPost("ig", "2026-10-20", "", "instagram"),
		campaignPost("fb", "2026-10-20", "", "facebook", "tiktok"),
	}
	posts[1].Caption = "Quiz night is back"
	sameIDs(t, postIDs(FilterCampaignPosts(posts, PostFilter{Channel: "tiktok"}, today)), []string{"fb"})
	sameIDs(t, postIDs(FilterCampaignPosts(posts, PostFilter{SearchQuery: "QUIZ"}, today)), []string{"fb"})
	sameIDs(t, postIDs(FilterCampaignPosts(posts, PostFilter{SearchQuery: "post ig"}, today)), []string{"ig"})
}

func TestFilterTasks(t *testing.T) {
	tasks := []model.Task{task("1", "2026-10-20", "Maija", false), task("2", "2026-10-20", "", false)}
	if got := FilterTasks(tasks, Unassigned); len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("unexpected %+v", got)
	}
	if got := FilterTasks(tasks, "Maija"); len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("unexpected %+v", got)
	}
}

// ============================================================
// Day buckets
// ============================================================

func TestOnDate(t *testing.T) {
	events := []model.Event{
		event("a", "A", "", "2026-10-20"),
		event("b", "B", "", "2026-10-19", "2026-10-20"),
		event("c", "C", "", "2026-10-21"),
	}
	day := time.Date(2026, 10, 20, 22, 30, 0, 0, time.Local)
	sameIDs(t, eventIDs(EventsOnDate(day, events)), []string{"a", "b"})

	posts := []model.CampaignPost{
		campaignPost("p1", "2026-10-20", "Maija"),
		campaignPost("p2", "2026-10-20", ""),
		campaignPost("p3", "2026-10-21", ""),
	}
	sameIDs(t, postIDs(PostsOnDate(day, posts, PostFilter{}, today)), []string{"p1", "p2"})
	sameIDs(t, postIDs(PostsOnDate(day, posts, PostFilter{Assignee: "Maija"}, today)), []string{"p1"})
	sameIDs(t, postIDs(PostsOnDate(day, posts, PostFilter{ContentScope: model.ScopeEvents}, today)), []string{})
}

func TestMonthView(t *testing.T) {
	v := View{
		Events: []model.Event{event("a", "A", "", "2026-10-20")},
		Posts:  []model.CampaignPost{campaignPost("p", "2026-10-31", "")},
		Today:  today,
	}
	days := v.MonthView(2026, time.October)
	// October 2026 starts on a Thursday.
	if len(days) != 3+31 {
		t.Fatalf("expected 34 cells, got %d", len(days))
	}
	if !days[0].Empty || days[0].Date != "" {
		t.Fatalf("first cell should be padding: %+v", days[0])
	}
	if days[3].Date != "2026-10-01" {
		t.Fatalf("cell 3 should be Oct 1, got %s", days[3].Date)
	}
	if !days[3+13].Today {
		t.Fatalf("Oct 14 should be marked today")
	}
	if len(days[3+19].Events) != 1 {
		t.Fatalf("Oct 20 should carry one event")
	}
	if len(days[3+30].Posts) != 1 {
		t.Fatalf("Oct 31 should carry one post")
	}
}

func TestWeekViewScope(t *testing.T) {
	v := View{
		Events:      []model.Event{event("a", "A", "", "2026-10-15")},
		Posts:       []model.CampaignPost{campaignPost("p", "2026-10-15", "")},
		EventFilter: EventFilter{ContentScope: model.ScopeSocial},
		PostFilter:  PostFilter{ContentScope: model.ScopeSocial},
		Today:       today,
	}
	days := v.WeekView(today)
	if len(days) != 7 || days[0].Date != "2026-10-12" || days[6].Date != "2026-10-18" {
		t.Fatalf("unexpected week %+v", days)
	}
	if len(days[3].Events) != 0 || len(days[3].Posts) != 1 {
		t.Fatalf("social scope should show the post only: %+v", days[3])
	}
}

// ============================================================
// Deadlines
// ============================================================

func TestUpcomingDeadlinesSortedAndStable(t *testing.T) {
	e1 := event("e1", "First", "", "2026-11-01")
	e1.Tasks = []model.Task{
		task("e1-late", "2026-10-30", "", false),
		task("e1-tie", "2026-10-16", "", false),
		task("e1-done", "2026-10-10", "", true),
	}
	e2 := event("e2", "Second", "", "2026-10-20")
	e2.Tasks = []model.Task{
		task("e2-tie", "2026-10-16", "", false),
		task("e2-overdue", "2026-10-10", "", false),
	}

	got := UpcomingDeadlines([]model.Event{e1, e2}, today, urgency.Deadlines)
	var ids []string
	for i, e := range got {
		ids = append(ids, e.Task.ID)
		if i > 0 && got[i-1].Task.DueDate > e.Task.DueDate {
			t.Fatalf("not sorted at %d", i)
		}
	}
	sameIDs(t, ids, []string{"e2-overdue", "e1-tie", "e2-tie", "e1-late"})

	if got[0].Tier != urgency.Overdue || got[0].DiffDays != -4 {
		t.Fatalf("unexpected overdue entry %+v", got[0])
	}
	if got[1].Tier != urgency.Urgent || got[1].EventTitle != "First" || got[1].Task.EventID != "e1" {
		t.Fatalf("unexpected tie entry %+v", got[1])
	}
	if got[3].Tier != urgency.Normal {
		t.Fatalf("16 days out should be normal, got %s", got[3].Tier)
	}
}

func TestUpcomingDeadlinesEmpty(t *testing.T) {
	got := UpcomingDeadlines(nil, today, urgency.Deadlines)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestTierCounts(t *testing.T) {
	entries := []DeadlineEntry{{Tier: urgency.Overdue}, {Tier: urgency.Urgent}, {Tier: urgency.Urgent}, {Tier: urgency.Normal}}
	c := TierCounts(entries)
	if c.Overdue != 1 || c.Urgent != 2 || c.Soon != 0 || c.Normal != 1 {
		t.Fatalf("unexpected counts %+v", c)
	}
}

// ============================================================
// Weekly board
// ============================================================

func TestWeeklyBoardGrouping(t *testing.T) {
	ev := event("e", "Gig", "", "2026-10-24")
	ev.Tasks = []model.Task{
		task("m-late", "2026-10-17", "Maija", false),
		task("u", "2026-10-15", "", false),
		task("m-early", "2026-10-13", "Maija", false),
		task("done", "2026-10-14", "Maija", true),
		task("next-week", "2026-10-19", "Maija", false),
		task("last-week", "2026-10-11", "", false),
	}

	b := WeeklyBoard([]model.Event{ev}, today, urgency.Dashboard)
	if b.WeekStart != "2026-10-12" || b.WeekEnd != "2026-10-18" {
		t.Fatalf("unexpected window %s..%s", b.WeekStart, b.WeekEnd)
	}
	if len(b.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %+v", b.Groups)
	}

	maija := b.Groups[0]
	if maija.Assignee != "Maija" || maija.Unassigned || len(maija.Entries) != 2 {
		t.Fatalf("unexpected Maija group %+v", maija)
	}
	if maija.Entries[0].Task.ID != "m-early" || maija.Entries[1].Task.ID != "m-late" {
		t.Fatalf("Maija group not sorted by date: %+v", maija.Entries)
	}
	if maija.Entries[0].Tier != urgency.Overdue {
		t.Fatalf("Monday task should be overdue on Wednesday, got %s", maija.Entries[0].Tier)
	}
	if maija.Entries[1].Tier != urgency.Soon {
		t.Fatalf("task 3 days out should be soon, got %s", maija.Entries[1].Tier)
	}

	un := b.Groups[1]
	if !un.Unassigned || un.Assignee != Unassigned || len(un.Entries) != 1 || un.Entries[0].Task.ID != "u" {
		t.Fatalf("unexpected unassigned group %+v", un)
	}
	if un.Entries[0].Tier != urgency.Urgent {
		t.Fatalf("tomorrow should be urgent, got %s", un.Entries[0].Tier)
	}

	if len(b.Entries()) != 3 {
		t.Fatalf("expected 3 entries overall, got %d", len(b.Entries()))
	}
}

func TestWeeklyBoardOrderAndEmpty(t *testing.T) {
	ev := event("e", "Gig", "", "2026-10-24")
	ev.Tasks = []model.Task{
		task("z", "2026-10-15", "Zoe", false),
		task("a", "2026-10-15", " Aino ", false),
	}
	b := WeeklyBoard([]model.Event{ev}, today, urgency.Dashboard)
	if len(b.Groups) != 2 || b.Groups[0].Assignee != "Aino" || b.Groups[1].Assignee != "Zoe" {
		t.Fatalf("unexpected groups %+v", b.Groups)
	}

	empty := WeeklyBoard(nil, today, urgency.Dashboard)
	if empty.Groups == nil || len(empty.Groups) != 0 {
		t.Fatalf("expected empty non-nil groups, got %#v", empty.Groups)
	}
}
