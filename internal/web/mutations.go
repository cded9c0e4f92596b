package web

import (
	"errors"
	"net/http"

	"campaigncal/internal/catalog"
	appLog "campaigncal/internal/log"
	"campaigncal/internal/model"
	"campaigncal/internal/recurrence"
	"campaigncal/internal/store"
	"campaigncal/internal/taskgen"
)

// createEventRequest is the body of POST /api/events. The task strategy is
// chosen in this order: fixed_import, templates, size, then the configured
// default size.
type createEventRequest struct {
	Title        string               `json:"title"`
	Performer    string               `json:"performer,omitempty"`
	Summary      string               `json:"summary,omitempty"`
	Dates        []model.DateInstance `json:"dates"`
	ImageFormats map[string]bool      `json:"image_formats,omitempty"`

	FixedImport bool     `json:"fixed_import,omitempty"`
	Templates   []string `json:"templates,omitempty"`
	Size        string   `json:"size,omitempty"`
	Assignee    string   `json:"assignee,omitempty"`
}

func (req createEventRequest) strategy(defaultSize string) (taskgen.Strategy, error) {
	switch {
	case req.FixedImport:
		return taskgen.FixedImport(), nil
	case len(req.Templates) > 0:
		return taskgen.ExplicitTemplates(req.Templates...), nil
	}
	name := req.Size
	if name == "" {
		name = defaultSize
	}
	size, err := catalog.ParseSize(name)
	if err != nil {
		return taskgen.Strategy{}, err
	}
	return taskgen.SizeTier(size), nil
}

// handleCreateEvent stores a new event together with its generated tasks.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ev := model.Event{
		Title:        req.Title,
		Performer:    req.Performer,
		Summary:      req.Summary,
		Dates:        req.Dates,
		ImageFormats: req.ImageFormats,
	}
	if err := ev.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev.SortDates()

	strategy, err := req.strategy(s.cfg.DefaultSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	assignee := req.Assignee
	if assignee == "" {
		assignee = s.cfg.DefaultAssignee
	}
	tasks, err := s.gen.Generate(taskgen.Request{
		Anchors:         taskgen.Anchors(ev),
		Strategy:        strategy,
		DefaultAssignee: assignee,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev.Tasks = tasks

	if err := s.store.CreateEvent(r.Context(), &ev); err != nil {
		writeStoreError(w, "create event", err)
		return
	}
	s.invalidateFeed()

	appLog.Info("api event created", "event_id", ev.ID, "strategy", strategy.String(), "tasks", len(ev.Tasks))
	writeJSON(w, http.StatusCreated, ev)
}

// createPostResponse is the JSON response shape for POST /api/posts.
type createPostResponse struct {
	Posts []model.CampaignPost `json:"posts"`
}

// handleCreatePost validates a post, expands its recurrence and stores the
// whole series.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var p model.CampaignPost
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if p.Status == "" {
		p.Status = model.PostPlanned
	}
	if p.Recurrence == "" {
		p.Recurrence = model.RecurNone
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := recurrence.Validate(p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	series := recurrence.Expand(p)
	err := s.store.CreatePostSeries(r.Context(), series)
	if errors.Is(err, store.ErrUnknownEvent) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeStoreError(w, "create posts", err)
		return
	}
	s.invalidateFeed()
	writeJSON(w, http.StatusCreated, createPostResponse{Posts: series})
}

type completeRequest struct {
	Completed *bool `json:"completed,omitempty"`
}

// handleCompleteTask marks a task done; {"completed": false} reopens it.
// An empty body counts as completed.
func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	done := true
	if req.Completed != nil {
		done = *req.Completed
	}

	id := r.PathValue("id")
	if err := s.store.SetTaskCompleted(r.Context(), id, done); err != nil {
		writeStoreError(w, "complete task", err)
		return
	}
	s.invalidateFeed()
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "completed": done})
}

type assignRequest struct {
	Assignee string `json:"assignee"`
}

// handleAssignTask sets or clears a task's assignee.
func (s *Server) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id := r.PathValue("id")
	if err := s.store.AssignTask(r.Context(), id, req.Assignee); err != nil {
		writeStoreError(w, "assign task", err)
		return
	}
	s.invalidateFeed()
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "assignee": req.Assignee})
}

type statusRequest struct {
	Status model.PostStatus `json:"status"`
}

// handlePostStatus moves a post to another workflow state.
func (s *Server) handlePostStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id := r.PathValue("id")
	err := s.store.SetPostStatus(r.Context(), id, req.Status)
	if errors.Is(err, model.ErrInvalidStatus) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeStoreError(w, "set post status", err)
		return
	}
	s.invalidateFeed()
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": req.Status})
}
