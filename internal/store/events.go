package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	appLog "campaigncal/internal/log"
	"campaigncal/internal/model"
)

// CreateEvent stores ev with its date instances and tasks in one
// transaction. An empty ID is filled with a new UUID; tasks are bound to
// the event.
func (s *Store) CreateEvent(ctx context.Context, ev *model.Event) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.SortDates()
	if ev.ImageFormats == nil {
		ev.ImageFormats = map[string]bool{}
	}
	if ev.Tasks == nil {
		ev.Tasks = []model.Task{}
	}
	formats, err := encodeJSON(ev.ImageFormats)
	if err != nil {
		return fmt.Errorf("encode image formats: %w", err)
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		now := nowString()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (id, title, performer, summary, image_formats, source_uid, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.Title, ev.Performer, ev.Summary, formats, ev.SourceUID, now, now,
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		if err := insertDates(ctx, tx, ev.ID, ev.Dates); err != nil {
			return err
		}
		for i := range ev.Tasks {
			ev.Tasks[i].EventID = ev.ID
		}
		return insertTasks(ctx, tx, ev.ID, 0, ev.Tasks)
	})
	if err != nil {
		return err
	}

	appLog.Info("event created", "event_id", ev.ID, "title", ev.Title, "dates", len(ev.Dates), "tasks", len(ev.Tasks))
	return nil
}

func insertDates(ctx context.Context, tx *sql.Tx, eventID string, ds []model.DateInstance) error {
	for i, d := range ds {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_dates (event_id, position, date, start_time, end_time) VALUES (?, ?, ?, ?, ?)`,
			eventID, i, d.Date, d.StartTime, d.EndTime,
		); err != nil {
			return fmt.Errorf("insert event date: %w", err)
		}
	}
	return nil
}

func insertTasks(ctx context.Context, tx *sql.Tx, eventID string, offset int, tasks []model.Task) error {
	for i := range tasks {
		t := &tasks[i]
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.EventID = eventID
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (id, event_id, position, title, channel, due_date, due_time, completed, content, assignee, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, eventID, offset+i, t.Title, t.Channel, t.DueDate, t.DueTime, boolInt(t.Completed), t.Content, t.Assignee, t.Notes,
		); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
	}
	return nil
}

// GetEvent loads one event with its dates and tasks.
func (s *Store) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	ev := &model.Event{}
	var formats string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, performer, summary, image_formats, source_uid FROM events WHERE id = ?`, id,
	).Scan(&ev.ID, &ev.Title, &ev.Performer, &ev.Summary, &formats, &ev.SourceUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(formats), &ev.ImageFormats); err != nil {
		return nil, fmt.Errorf("decode image formats: %w", err)
	}

	byID := map[string]*model.Event{ev.ID: ev}
	if err := s.attachDates(ctx, byID, `WHERE event_id = ?`, id); err != nil {
		return nil, err
	}
	if err := s.attachTasks(ctx, byID, `WHERE event_id = ?`, id); err != nil {
		return nil, err
	}
	return ev, nil
}

// ListEvents loads every event, ordered by primary date, with dates and
// tasks attached.
func (s *Store) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.title, e.performer, e.summary, e.image_formats, e.source_uid
		FROM events e
		LEFT JOIN event_dates d ON d.event_id = e.id AND d.position = 0
		ORDER BY d.date, e.created_at, e.id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	var ptrs []*model.Event
	byID := make(map[string]*model.Event)
	for rows.Next() {
		ev := &model.Event{}
		var formats string
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Performer, &ev.Summary, &formats, &ev.SourceUID); err != nil {
			rows.Close()
			return nil, err
		}
		if err := json.Unmarshal([]byte(formats), &ev.ImageFormats); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decode image formats: %w", err)
		}
		ptrs = append(ptrs, ev)
		byID[ev.ID] = ev
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := s.attachDates(ctx, byID, ``); err != nil {
		return nil, err
	}
	if err := s.attachTasks(ctx, byID, ``); err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(ptrs))
	for _, ev := range ptrs {
		events = append(events, *ev)
	}
	return events, nil
}

func (s *Store) attachDates(ctx context.Context, byID map[string]*model.Event, where string, args ...any) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, date, start_time, end_time FROM event_dates `+where+` ORDER BY event_id, position`, args...)
	if err != nil {
		return fmt.Errorf("list event dates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID string
		var d model.DateInstance
		if err := rows.Scan(&eventID, &d.Date, &d.StartTime, &d.EndTime); err != nil {
			return err
		}
		if ev, ok := byID[eventID]; ok {
			ev.Dates = append(ev.Dates, d)
		}
	}
	return rows.Err()
}

func (s *Store) attachTasks(ctx context.Context, byID map[string]*model.Event, where string, args ...any) error {
	for _, ev := range byID {
		ev.Tasks = []model.Task{}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, title, channel, due_date, due_time, completed, content, assignee, notes
		 FROM tasks `+where+` ORDER BY event_id, position`, args...)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t model.Task
		var completed int
		if err := rows.Scan(&t.ID, &t.EventID, &t.Title, &t.Channel, &t.DueDate, &t.DueTime, &completed, &t.Content, &t.Assignee, &t.Notes); err != nil {
			return err
		}
		t.Completed = completed == 1
		if ev, ok := byID[t.EventID]; ok {
			ev.Tasks = append(ev.Tasks, t)
		}
	}
	return rows.Err()
}

// UpdateEventDetails changes the descriptive fields of an event.
func (s *Store) UpdateEventDetails(ctx context.Context, id, title, performer, summary string) error {
	probe := model.Event{Title: title, Summary: summary, Dates: []model.DateInstance{{Date: "2000-01-01"}}}
	if err := probe.Validate(); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET title = ?, performer = ?, summary = ?, updated_at = ? WHERE id = ?`,
		title, performer, summary, nowString(), id,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return checkAffected(res, "event", id)
}

// UpdateEventDates replaces an event's date instances. Task due dates are
// left as they are: tasks may already be scheduled or completed, so moving
// them is the caller's decision. A warning is logged when open tasks exist.
func (s *Store) UpdateEventDates(ctx context.Context, id string, ds []model.DateInstance) error {
	ev := model.Event{Title: "-", Dates: append([]model.DateInstance(nil), ds...)}
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("update event dates: %w", err)
	}
	ev.SortDates()

	var open int
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE events SET updated_at = ? WHERE id = ?`, nowString(), id)
		if err != nil {
			return fmt.Errorf("update event dates: %w", err)
		}
		if err := checkAffected(res, "event", id); err != nil {
			return err
		}
		open, err = replaceDates(ctx, tx, id, ev.Dates)
		return err
	})
	if err != nil {
		return err
	}
	warnOpenTasks(id, ev.PrimaryDate(), open)
	return nil
}

// replaceDates swaps an event's date instances and returns how many of its
// tasks are still open.
func replaceDates(ctx context.Context, tx *sql.Tx, id string, ds []model.DateInstance) (int, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_dates WHERE event_id = ?`, id); err != nil {
		return 0, fmt.Errorf("clear event dates: %w", err)
	}
	if err := insertDates(ctx, tx, id, ds); err != nil {
		return 0, err
	}
	var open int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE event_id = ? AND completed = 0`, id,
	).Scan(&open)
	return open, err
}

func warnOpenTasks(id, primary string, open int) {
	if open > 0 {
		appLog.Warn("event dates changed; task due dates were not recomputed",
			"event_id", id, "primary_date", primary, "open_tasks", open)
	}
}

// ImportEvent stores an event read from a calendar feed. When an event with
// the same SourceUID exists, its title, summary and dates are refreshed and
// its tasks are kept; ev.Tasks is ignored in that case. created reports
// whether a new event was inserted. Events without a SourceUID are always
// created.
func (s *Store) ImportEvent(ctx context.Context, ev *model.Event) (created bool, err error) {
	if ev.SourceUID == "" {
		return true, s.CreateEvent(ctx, ev)
	}
	if err := ev.Validate(); err != nil {
		return false, fmt.Errorf("import event: %w", err)
	}
	ev.SortDates()

	var id string
	var open int
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT id FROM events WHERE source_uid = ?`, ev.SourceUID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lookup source uid: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE events SET title = ?, summary = ?, updated_at = ? WHERE id = ?`,
			ev.Title, ev.Summary, nowString(), id,
		); err != nil {
			return fmt.Errorf("refresh event: %w", err)
		}
		open, err = replaceDates(ctx, tx, id, ev.Dates)
		return err
	})
	if err != nil {
		return false, err
	}
	if id == "" {
		return true, s.CreateEvent(ctx, ev)
	}

	ev.ID = id
	appLog.Info("imported event refreshed", "event_id", id, "source_uid", ev.SourceUID, "dates", len(ev.Dates))
	warnOpenTasks(id, ev.PrimaryDate(), open)
	return false, nil
}

// SetImageFormat marks an image format as delivered (or not) for an event.
func (s *Store) SetImageFormat(ctx context.Context, eventID, format string, done bool) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT image_formats FROM events WHERE id = ?`, eventID).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		formats := map[string]bool{}
		if err := json.Unmarshal([]byte(raw), &formats); err != nil {
			return fmt.Errorf("decode image formats: %w", err)
		}
		formats[format] = done
		enc, err := encodeJSON(formats)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE events SET image_formats = ?, updated_at = ? WHERE id = ?`, enc, nowString(), eventID)
		return err
	})
}

// DeleteEvent removes an event; its dates and tasks go with it.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if err := checkAffected(res, "event", id); err != nil {
		return err
	}
	appLog.Info("event deleted", "event_id", id)
	return nil
}
