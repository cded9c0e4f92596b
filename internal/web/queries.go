package web

import (
	"net/http"
	"net/url"
	"time"

	"campaigncal/internal/agenda"
	"campaigncal/internal/catalog"
	"campaigncal/internal/dates"
	appLog "campaigncal/internal/log"
	"campaigncal/internal/model"
	"campaigncal/internal/urgency"
)

// deadlinesResponse is the JSON response shape for /api/deadlines.
type deadlinesResponse struct {
	Today   string                 `json:"today"`
	Profile string                 `json:"profile"`
	Counts  agenda.Counts          `json:"counts"`
	Entries []agenda.DeadlineEntry `json:"entries"`
}

// handleDeadlines lists open tasks by due date.
//
// GET /api/deadlines?profile=deadlines&assignee=&tier=
//   - profile:  deadlines (default) or dashboard
//   - assignee: exact name, or "unassigned"
//   - tier:     keep only one tier; counts still cover every entry
func (s *Server) handleDeadlines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	p := s.cfg.Urgency.Deadlines
	switch q.Get("profile") {
	case "", urgency.Deadlines.Name:
	case urgency.Dashboard.Name:
		p = s.cfg.Urgency.Dashboard
	default:
		writeError(w, http.StatusBadRequest, "unknown profile")
		return
	}

	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		writeStoreError(w, "list events", err)
		return
	}
	events = withAssignee(events, q.Get("assignee"))

	today := s.today()
	entries := agenda.UpcomingDeadlines(events, today, p)
	resp := deadlinesResponse{
		Today:   dates.Format(today),
		Profile: p.Name,
		Counts:  agenda.TierCounts(entries),
		Entries: entries,
	}
	if tier := urgency.Tier(q.Get("tier")); tier != "" {
		kept := make([]agenda.DeadlineEntry, 0)
		for _, e := range entries {
			if e.Tier == tier {
				kept = append(kept, e)
			}
		}
		resp.Entries = kept
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBoard returns the weekly assignee board.
//
// GET /api/board?date=YYYY-MM-DD (any day of the wanted week; default today)
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	day := s.today()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, ok := dates.Parse(d)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		day = parsed
	}

	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		writeStoreError(w, "list events", err)
		return
	}
	writeJSON(w, http.StatusOK, agenda.WeeklyBoard(events, day, s.cfg.Urgency.Dashboard))
}

// handleListEvents returns filtered events.
//
// GET /api/events?q=&past=0&scope=all&from=&to=
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	f, ok := eventFilter(w, r.URL.Query(), false)
	if !ok {
		return
	}
	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		writeStoreError(w, "list events", err)
		return
	}
	writeJSON(w, http.StatusOK, agenda.FilterEvents(events, f, s.today()))
}

// handleListPosts returns filtered campaign posts.
//
// GET /api/posts?q=&past=0&scope=all&assignee=&date=&channel=&from=&to=
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	f, ok := postFilter(w, r.URL.Query(), false)
	if !ok {
		return
	}
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		writeStoreError(w, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, agenda.FilterCampaignPosts(posts, f, s.today()))
}

// calendarResponse is the JSON response shape for the month and week views.
type calendarResponse struct {
	Today string       `json:"today"`
	Days  []agenda.Day `json:"days"`
}

// handleMonth returns a Monday-first month grid.
//
// GET /api/calendar/month?year=2026&month=10 plus the event and post
// filters. Past records are shown unless past=0.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today := s.today()
	year := parseIntDefault(q.Get("year"), today.Year())
	month := parseIntDefault(q.Get("month"), int(today.Month()))
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be 1..12")
		return
	}

	v, ok := s.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, calendarResponse{
		Today: dates.Format(today),
		Days:  v.MonthView(year, time.Month(month)),
	})
}

// handleWeek returns Monday..Sunday of the week containing date.
//
// GET /api/calendar/week?date=YYYY-MM-DD plus the event and post filters.
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	day := s.today()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, ok := dates.Parse(d)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		day = parsed
	}

	v, ok := s.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, calendarResponse{
		Today: dates.Format(v.Today),
		Days:  v.WeekView(day),
	})
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) (agenda.View, bool) {
	q := r.URL.Query()
	ef, ok := eventFilter(w, q, true)
	if !ok {
		return agenda.View{}, false
	}
	pf, ok := postFilter(w, q, true)
	if !ok {
		return agenda.View{}, false
	}
	// date picks the week here, each cell applies its own day.
	pf.Date = ""

	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		writeStoreError(w, "list events", err)
		return agenda.View{}, false
	}
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		writeStoreError(w, "list posts", err)
		return agenda.View{}, false
	}

	appLog.Debug("calendar view", "path", r.URL.Path, "events", len(events), "posts", len(posts))
	return agenda.View{
		Events:      events,
		Posts:       posts,
		EventFilter: ef,
		PostFilter:  pf,
		Today:       s.today(),
	}, true
}

// catalogResponse is the JSON response shape for /api/catalog.
type catalogResponse struct {
	Channels    []catalog.Channel               `json:"channels"`
	Operations  []catalog.Operation             `json:"operations"`
	Tiers       map[catalog.Size][]catalog.Step `json:"tiers"`
	FixedImport []catalog.Step                  `json:"fixed_import"`
}

// handleCatalog lists the templates tasks can be generated from.
func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	c := s.gen.Catalog
	resp := catalogResponse{
		Channels:    c.Channels(),
		Operations:  c.Operations(),
		Tiers:       make(map[catalog.Size][]catalog.Step),
		FixedImport: c.FixedImport(),
	}
	for _, size := range []catalog.Size{catalog.SizeSmall, catalog.SizeMedium, catalog.SizeLarge} {
		if steps, ok := c.Tier(size); ok {
			resp.Tiers[size] = steps
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseScope(w http.ResponseWriter, q url.Values) (model.ContentScope, bool) {
	switch sc := model.ContentScope(q.Get("scope")); sc {
	case "":
		return model.ScopeAll, true
	case model.ScopeAll, model.ScopeEvents, model.ScopeSocial:
		return sc, true
	default:
		writeError(w, http.StatusBadRequest, "scope must be all, events or social")
		return "", false
	}
}

func eventFilter(w http.ResponseWriter, q url.Values, pastDefault bool) (agenda.EventFilter, bool) {
	scope, ok := parseScope(w, q)
	if !ok {
		return agenda.EventFilter{}, false
	}
	return agenda.EventFilter{
		SearchQuery:  q.Get("q"),
		ShowPast:     boolParam(q, "past", pastDefault),
		ContentScope: scope,
		From:         q.Get("from"),
		To:           q.Get("to"),
	}, true
}

func postFilter(w http.ResponseWriter, q url.Values, pastDefault bool) (agenda.PostFilter, bool) {
	scope, ok := parseScope(w, q)
	if !ok {
		return agenda.PostFilter{}, false
	}
	return agenda.PostFilter{
		ContentScope: scope,
		ShowPast:     boolParam(q, "past", pastDefault),
		Assignee:     q.Get("assignee"),
		Date:         q.Get("date"),
		SearchQuery:  q.Get("q"),
		Channel:      q.Get("channel"),
		From:         q.Get("from"),
		To:           q.Get("to"),
	}, true
}

func boolParam(q url.Values, key string, def bool) bool {
	if !q.Has(key) {
		return def
	}
	return parseBool(q.Get(key))
}

// withAssignee narrows every event's tasks to one assignee.
func withAssignee(events []model.Event, assignee string) []model.Event {
	if assignee == "" {
		return events
	}
	out := make([]model.Event, len(events))
	for i, ev := range events {
		ev.Tasks = agenda.FilterTasks(ev.Tasks, assignee)
		out[i] = ev
	}
	return out
}
