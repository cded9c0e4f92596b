package web

import (
	"net/http"
	"time"

	"campaigncal/internal/ics"
	appLog "campaigncal/internal/log"
)

const feedCacheTTL = 30 * time.Second

// feedCache holds a rendered /calendar.ics body and its timestamp.
type feedCache struct {
	key       string
	body      string
	updatedAt time.Time
}

// handleFeed publishes events, open deadlines and posts as iCalendar.
//
// GET /calendar.ics?tasks=1&posts=1 (both default on)
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := ics.ExportOptions{
		Name:     "campaigncal",
		Location: s.cfg.Location(),
		Tasks:    boolParam(q, "tasks", true),
		Posts:    boolParam(q, "posts", true),
	}
	key := r.URL.RawQuery
	now := time.Now()

	s.feedMu.RLock()
	fc := s.feedCache
	gen := s.feedGen
	s.feedMu.RUnlock()
	if fc != nil && fc.key == key && now.Sub(fc.updatedAt) < feedCacheTTL {
		writeCalendar(w, fc.body)
		return
	}

	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		writeStoreError(w, "list events", err)
		return
	}
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		writeStoreError(w, "list posts", err)
		return
	}

	body := ics.Export(events, posts, opts)

	s.feedMu.Lock()
	if s.feedGen == gen {
		s.feedCache = &feedCache{key: key, body: body, updatedAt: now}
	}
	s.feedMu.Unlock()

	appLog.Debug("calendar feed rendered", "events", len(events), "posts", len(posts), "bytes", len(body))
	writeCalendar(w, body)
}

// invalidateFeed drops the cached feed after a write.
func (s *Server) invalidateFeed() {
	s.feedMu.Lock()
	s.feedCache = nil
	s.feedGen++
	s.feedMu.Unlock()
}

func writeCalendar(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
