package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campaigncal/internal/model"
)

// AddTasks appends tasks to an existing event.
func (s *Store) AddTasks(ctx context.Context, eventID string, tasks []model.Task) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var next int
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position) + 1, 0) FROM tasks WHERE event_id = ?`, eventID,
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("next task position: %w", err)
		}
		var exists int
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, eventID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return insertTasks(ctx, tx, eventID, next, tasks)
	})
}

// GetTask loads a single task.
func (s *Store) GetTask(ctx context.Context, id string) (*model.Task, error) {
	t := &model.Task{}
	var completed int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, event_id, title, channel, due_date, due_time, completed, content, assignee, notes FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.EventID, &t.Title, &t.Channel, &t.DueDate, &t.DueTime, &completed, &t.Content, &t.Assignee, &t.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	t.Completed = completed == 1
	return t, nil
}

// SetTaskCompleted toggles completion. Only explicit calls change it.
func (s *Store) SetTaskCompleted(ctx context.Context, id string, done bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET completed = ? WHERE id = ?`, boolInt(done), id)
	if err != nil {
		return fmt.Errorf("set task completed: %w", err)
	}
	return checkAffected(res, "task", id)
}

// AssignTask sets (or clears, with "") the assignee.
func (s *Store) AssignTask(ctx context.Context, id, assignee string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET assignee = ? WHERE id = ?`, assignee, id)
	if err != nil {
		return fmt.Errorf("assign task: %w", err)
	}
	return checkAffected(res, "task", id)
}

// UpdateTaskContent replaces the free-text content and notes.
func (s *Store) UpdateTaskContent(ctx context.Context, id, content, notes string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET content = ?, notes = ? WHERE id = ?`, content, notes, id)
	if err != nil {
		return fmt.Errorf("update task content: %w", err)
	}
	return checkAffected(res, "task", id)
}

// DeleteTask removes a single task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return checkAffected(res, "task", id)
}
