package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campaigncal/internal/agenda"
	"campaigncal/internal/catalog"
	"campaigncal/internal/config"
	"campaigncal/internal/dates"
	"campaigncal/internal/model"
	"campaigncal/internal/store"
)

// Wednesday.
var today = dates.ParseLocalDate("2026-10-14")

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.DefaultConfig()
	cfg.DefaultAssignee = "Maija"
	s := NewServer(cfg, st, catalog.Default())
	s.now = func() time.Time { return today }
	return s
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func createEvent(t *testing.T, h http.Handler, body string) model.Event {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/events", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event: status %d, body %s", rec.Code, rec.Body.String())
	}
	return decode[model.Event](t, rec)
}

// ============================================================
// Basics
// ============================================================

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health: %d %q", rec.Code, rec.Body.String())
	}
}

func TestBasicAuth(t *testing.T) {
	s := newTestServer(t)
	s.cfg.BasicAuth = &config.BasicAuthConfig{Username: "venue", Password: "secret"}
	h := s.Handler()

	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health must stay open, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/events", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.SetBasicAuth("venue", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with credentials, got %d", rec.Code)
	}
}

func TestSecureCompare(t *testing.T) {
	if !secureCompare("abc", "abc") || secureCompare("abc", "abd") || secureCompare("abc", "ab") {
		t.Fatal("secureCompare mismatch")
	}
}

// ============================================================
// Events and tasks
// ============================================================

func TestCreateEventSizeTier(t *testing.T) {
	s := newTestServer(t)
	ev := createEvent(t, s.Handler(), `{"title":"Autumn Gig","dates":[{"date":"2026-11-20","start_time":"20:00"}],"size":"medium"}`)

	if ev.ID == "" || len(ev.Tasks) != 5 {
		t.Fatalf("expected stored event with 5 tasks, got %+v", ev)
	}
	for _, task := range ev.Tasks {
		if task.EventID != ev.ID || task.Assignee != "Maija" {
			t.Fatalf("task not bound or missing default assignee: %+v", task)
		}
	}
	// Medium tier starts 28 days out.
	if ev.Tasks[0].DueDate != "2026-10-23" {
		t.Fatalf("first due date = %s", ev.Tasks[0].DueDate)
	}
}

func TestCreateEventStrategies(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	fixed := createEvent(t, h, `{"title":"Imported","dates":[{"date":"2026-11-20"},{"date":"2026-11-21"}],"fixed_import":true}`)
	if len(fixed.Tasks) != 7 {
		t.Fatalf("fixed import should give 7 tasks on the first date, got %d", len(fixed.Tasks))
	}

	explicit := createEvent(t, h, `{"title":"Picked","dates":[{"date":"2026-11-20"}],"templates":["fb-event","ig-story"],"assignee":"Joonas"}`)
	if len(explicit.Tasks) != 2 || explicit.Tasks[0].Assignee != "Joonas" {
		t.Fatalf("explicit templates: %+v", explicit.Tasks)
	}

	defaulted := createEvent(t, h, `{"title":"Default","dates":[{"date":"2026-11-20"}]}`)
	if len(defaulted.Tasks) != 5 {
		t.Fatalf("default size should be medium, got %d tasks", len(defaulted.Tasks))
	}
}

func TestCreateEventRejects(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	for name, body := range map[string]string{
		"no dates":         `{"title":"x","dates":[]}`,
		"bad date":         `{"title":"x","dates":[{"date":"20.11.2026"}]}`,
		"unknown template": `{"title":"x","dates":[{"date":"2026-11-20"}],"templates":["carrier-pigeon"]}`,
		"unknown size":     `{"title":"x","dates":[{"date":"2026-11-20"}],"size":"huge"}`,
		"unknown field":    `{"title":"x","dates":[{"date":"2026-11-20"}],"colour":"red"}`,
		"not json":         `{`,
	} {
		if rec := do(t, h, http.MethodPost, "/api/events", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestDeadlinesAndCompletion(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	ev := createEvent(t, h, `{"title":"Soon Gig","dates":[{"date":"2026-10-20"}],"size":"small"}`)

	// Small tier: 14, 3 and 1 days before 10-20, i.e. diffs -8, 3 and 5.
	rec := do(t, h, http.MethodGet, "/api/deadlines", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	resp := decode[deadlinesResponse](t, rec)
	if resp.Today != "2026-10-14" || resp.Profile != "deadlines" || len(resp.Entries) != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Counts.Overdue != 1 || resp.Counts.Urgent != 1 || resp.Counts.Soon != 1 {
		t.Fatalf("counts = %+v", resp.Counts)
	}

	rec = do(t, h, http.MethodGet, "/api/deadlines?tier=overdue", "")
	if got := decode[deadlinesResponse](t, rec); len(got.Entries) != 1 || got.Counts.Soon != 1 {
		t.Fatalf("tier filter: %+v", got)
	}

	overdue := ev.Tasks[0].ID
	if rec := do(t, h, http.MethodPost, "/api/tasks/"+overdue+"/complete", ""); rec.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/api/deadlines", "")
	if got := decode[deadlinesResponse](t, rec); got.Counts.Overdue != 0 || len(got.Entries) != 2 {
		t.Fatalf("completed task still listed: %+v", got)
	}

	if rec := do(t, h, http.MethodPost, "/api/tasks/missing/complete", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/deadlines?profile=weird", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeadlinesAssigneeFilter(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	ev := createEvent(t, h, `{"title":"Gig","dates":[{"date":"2026-10-20"}],"size":"small"}`)

	if rec := do(t, h, http.MethodPost, "/api/tasks/"+ev.Tasks[1].ID+"/assign", `{"assignee":""}`); rec.Code != http.StatusOK {
		t.Fatalf("assign: %d", rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/api/deadlines?assignee=unassigned", "")
	got := decode[deadlinesResponse](t, rec)
	if len(got.Entries) != 1 || got.Entries[0].Task.ID != ev.Tasks[1].ID {
		t.Fatalf("unassigned filter: %+v", got.Entries)
	}
}

func TestBoard(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	createEvent(t, h, `{"title":"Gig","dates":[{"date":"2026-10-17"}],"templates":["ig-story"]}`)

	rec := do(t, h, http.MethodGet, "/api/board", "")
	board := decode[agenda.Board](t, rec)
	if board.WeekStart != "2026-10-12" || len(board.Groups) != 1 || board.Groups[0].Assignee != "Maija" {
		t.Fatalf("board = %+v", board)
	}

	rec = do(t, h, http.MethodGet, "/api/board?date=2026-10-21", "")
	if next := decode[agenda.Board](t, rec); len(next.Groups) != 0 {
		t.Fatalf("next week should be empty: %+v", next)
	}
	if rec := do(t, h, http.MethodGet, "/api/board?date=tomorrow", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListEventsFilters(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	createEvent(t, h, `{"title":"Past Gig","dates":[{"date":"2026-10-01"}],"templates":["ig-story"]}`)
	createEvent(t, h, `{"title":"Jazz Night","performer":"Trio","dates":[{"date":"2026-11-01"}],"templates":["ig-story"]}`)

	got := decode[[]model.Event](t, do(t, h, http.MethodGet, "/api/events", ""))
	if len(got) != 1 || got[0].Title != "Jazz Night" {
		t.Fatalf("past events should be hidden: %+v", got)
	}
	got = decode[[]model.Event](t, do(t, h, http.MethodGet, "/api/events?past=1&q=trio", ""))
	if len(got) != 1 {
		t.Fatalf("search by performer: %+v", got)
	}
	got = decode[[]model.Event](t, do(t, h, http.MethodGet, "/api/events?scope=social", ""))
	if len(got) != 0 {
		t.Fatalf("social scope must hide events: %+v", got)
	}
	if rec := do(t, h, http.MethodGet, "/api/events?scope=everything", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// ============================================================
// Posts
// ============================================================

func TestCreateRecurringPost(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/posts",
		`{"title":"Weekly promo","date":"2026-10-19","channels":["instagram"],"recurrence":"weekly","recurrence_end_date":"2026-11-09"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[createPostResponse](t, rec)
	if len(resp.Posts) != 4 {
		t.Fatalf("expected 4 instances, got %d", len(resp.Posts))
	}
	head := resp.Posts[0]
	if head.ParentPostID != "" || head.Status != model.PostPlanned {
		t.Fatalf("bad head %+v", head)
	}
	for _, p := range resp.Posts[1:] {
		if p.ParentPostID != head.ID {
			t.Fatalf("instance %s not linked", p.Date)
		}
	}

	posts := decode[[]model.CampaignPost](t, do(t, h, http.MethodGet, "/api/posts?date=2026-10-26", ""))
	if len(posts) != 1 {
		t.Fatalf("date filter: %+v", posts)
	}
	posts = decode[[]model.CampaignPost](t, do(t, h, http.MethodGet, "/api/posts?scope=events", ""))
	if len(posts) != 0 {
		t.Fatalf("events scope must hide posts: %+v", posts)
	}
}

func TestCreatePostRejects(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	for name, body := range map[string]string{
		"no end date":    `{"title":"x","date":"2026-10-19","channels":["instagram"],"recurrence":"weekly"}`,
		"end before":     `{"title":"x","date":"2026-10-19","channels":["instagram"],"recurrence":"weekly","recurrence_end_date":"2026-10-01"}`,
		"bad recurrence": `{"title":"x","date":"2026-10-19","channels":["instagram"],"recurrence":"daily","recurrence_end_date":"2026-11-01"}`,
		"no channels":    `{"title":"x","date":"2026-10-19","channels":[]}`,
		"bad status":     `{"title":"x","date":"2026-10-19","channels":["instagram"],"status":"archived"}`,
	} {
		if rec := do(t, h, http.MethodPost, "/api/posts", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestCreatePostUnknownEvent(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodPost, "/api/posts",
		`{"title":"Teaser","date":"2026-10-20","channels":["instagram"],"event_id":"missing"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "linked event does not exist") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestPostStatus(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	rec := do(t, h, http.MethodPost, "/api/posts", `{"title":"One-off","date":"2026-10-20","channels":["facebook"]}`)
	id := decode[createPostResponse](t, rec).Posts[0].ID

	if rec := do(t, h, http.MethodPost, "/api/posts/"+id+"/status", `{"status":"published"}`); rec.Code != http.StatusOK {
		t.Fatalf("status update: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/posts/"+id+"/status", `{"status":"archived"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/posts/missing/status", `{"status":"done"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

// ============================================================
// Calendar views and feed
// ============================================================

func TestMonthAndWeek(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	createEvent(t, h, `{"title":"Gig","dates":[{"date":"2026-10-24"}],"templates":["ig-story"]}`)
	do(t, h, http.MethodPost, "/api/posts", `{"title":"Teaser","date":"2026-10-22","channels":["instagram"]}`)

	month := decode[calendarResponse](t, do(t, h, http.MethodGet, "/api/calendar/month?year=2026&month=10", ""))
	// October 2026 starts on a Thursday: three padding cells.
	if len(month.Days) != 34 || !month.Days[0].Empty || month.Days[3].Date != "2026-10-01" {
		t.Fatalf("unexpected grid: %d cells, first real %q", len(month.Days), month.Days[3].Date)
	}
	cell := month.Days[3+23]
	if cell.Date != "2026-10-24" || len(cell.Events) != 1 {
		t.Fatalf("event not bucketed: %+v", cell)
	}
	if !month.Days[3+13].Today {
		t.Fatal("today not flagged")
	}

	week := decode[calendarResponse](t, do(t, h, http.MethodGet, "/api/calendar/week?date=2026-10-24", ""))
	if len(week.Days) != 7 || week.Days[0].Date != "2026-10-19" {
		t.Fatalf("week = %+v", week.Days)
	}
	if len(week.Days[3].Posts) != 1 || len(week.Days[5].Events) != 1 {
		t.Fatalf("week buckets wrong: %+v", week.Days)
	}

	week = decode[calendarResponse](t, do(t, h, http.MethodGet, "/api/calendar/week?date=2026-10-24&scope=events", ""))
	if len(week.Days[3].Posts) != 0 {
		t.Fatal("events scope must drop posts")
	}

	if rec := do(t, h, http.MethodGet, "/api/calendar/month?month=13", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFeed(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	createEvent(t, h, `{"title":"Gig","dates":[{"date":"2026-10-24"}],"templates":["ig-story"]}`)

	rec := do(t, h, http.MethodGet, "/calendar.ics", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar") {
		t.Fatalf("feed: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "SUMMARY:Gig") {
		t.Fatalf("unexpected feed:\n%s", body)
	}

	// A write drops the cached body.
	createEvent(t, h, `{"title":"Second","dates":[{"date":"2026-10-30"}],"templates":["ig-story"]}`)
	if body := do(t, h, http.MethodGet, "/calendar.ics", "").Body.String(); !strings.Contains(body, "SUMMARY:Second") {
		t.Fatal("feed cache not invalidated after create")
	}
}

// writeDuringRender runs during while the feed handler is loading posts.
type writeDuringRender struct {
	*store.Store
	during func()
}

func (w *writeDuringRender) ListPosts(ctx context.Context) ([]model.CampaignPost, error) {
	if w.during != nil {
		w.during()
	}
	return w.Store.ListPosts(ctx)
}

func TestFeedNotCachedAcrossWrite(t *testing.T) {
	st, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ws := &writeDuringRender{Store: st}
	s := NewServer(config.DefaultConfig(), ws, catalog.Default())
	s.now = func() time.Time { return today }
	h := s.Handler()

	ws.during = s.invalidateFeed
	if rec := do(t, h, http.MethodGet, "/calendar.ics", ""); rec.Code != http.StatusOK {
		t.Fatalf("feed: %d", rec.Code)
	}
	s.feedMu.RLock()
	cached := s.feedCache
	s.feedMu.RUnlock()
	if cached != nil {
		t.Fatal("a render that overlapped a write must not be cached")
	}

	ws.during = nil
	do(t, h, http.MethodGet, "/calendar.ics", "")
	s.feedMu.RLock()
	cached = s.feedCache
	s.feedMu.RUnlock()
	if cached == nil {
		t.Fatal("an undisturbed render should be cached")
	}
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t)
	resp := decode[catalogResponse](t, do(t, s.Handler(), http.MethodGet, "/api/catalog", ""))
	if len(resp.Tiers) != 3 || len(resp.FixedImport) != 7 || len(resp.Operations) == 0 {
		t.Fatalf("catalog = %+v", resp)
	}
}
