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
	"campaigncal/internal/recurrence"
)

const postColumns = `id, title, date, year, time, type, channels, assignee, COALESCE(event_id, ''),
	status, caption, notes, media_links, recurrence, recurrence_end_date, COALESCE(parent_post_id, '')`

// CreatePostSeries persists an expanded series in one transaction. The
// first instance is stored first so that its identifier exists before the
// remaining instances are linked to it. The slice is updated in place with
// the assigned ids and parent links.
func (s *Store) CreatePostSeries(ctx context.Context, series []model.CampaignPost) error {
	if len(series) == 0 {
		return nil
	}
	for i := range series {
		if series[i].Status == "" {
			series[i].Status = model.PostPlanned
		}
		if series[i].Recurrence == "" {
			series[i].Recurrence = model.RecurNone
		}
		if err := series[i].Validate(); err != nil {
			return fmt.Errorf("create post %d: %w", i, err)
		}
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := checkLinkedEvents(ctx, tx, series); err != nil {
			return err
		}

		head := &series[0]
		head.ID = uuid.NewString()
		head.ParentPostID = ""
		if err := insertPost(ctx, tx, head); err != nil {
			return err
		}

		recurrence.Link(series, head.ID)
		for i := 1; i < len(series); i++ {
			series[i].ID = uuid.NewString()
			if err := insertPost(ctx, tx, &series[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		for i := range series {
			series[i].ID = ""
			series[i].ParentPostID = ""
		}
		return err
	}

	appLog.Info("post series created", "head_id", series[0].ID, "title", series[0].Title,
		"recurrence", string(series[0].Recurrence), "instances", len(series))
	return nil
}

// checkLinkedEvents verifies that every event a post links to exists.
func checkLinkedEvents(ctx context.Context, tx *sql.Tx, series []model.CampaignPost) error {
	checked := make(map[string]bool)
	for _, p := range series {
		if p.EventID == "" || checked[p.EventID] {
			continue
		}
		checked[p.EventID] = true
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, p.EventID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrUnknownEvent, p.EventID)
		}
		if err != nil {
			return fmt.Errorf("check linked event: %w", err)
		}
	}
	return nil
}

func insertPost(ctx context.Context, tx *sql.Tx, p *model.CampaignPost) error {
	channels, err := encodeJSON(nonNil(p.Channels))
	if err != nil {
		return fmt.Errorf("encode channels: %w", err)
	}
	links, err := encodeJSON(nonNil(p.MediaLinks))
	if err != nil {
		return fmt.Errorf("encode media links: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO posts (id, title, date, year, time, type, channels, assignee, event_id, status,
			caption, notes, media_links, recurrence, recurrence_end_date, parent_post_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Date, p.Year, p.Time, p.Type, channels, p.Assignee, nullable(p.EventID), string(p.Status),
		p.Caption, p.Notes, links, string(p.Recurrence), p.RecurrenceEndDate, nullable(p.ParentPostID), nowString(),
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (model.CampaignPost, error) {
	var p model.CampaignPost
	var status, rec, channels, links string
	if err := r.Scan(&p.ID, &p.Title, &p.Date, &p.Year, &p.Time, &p.Type, &channels, &p.Assignee, &p.EventID,
		&status, &p.Caption, &p.Notes, &links, &rec, &p.RecurrenceEndDate, &p.ParentPostID); err != nil {
		return p, err
	}
	p.Status = model.PostStatus(status)
	p.Recurrence = model.Recurrence(rec)
	if err := json.Unmarshal([]byte(channels), &p.Channels); err != nil {
		return p, fmt.Errorf("decode channels: %w", err)
	}
	if err := json.Unmarshal([]byte(links), &p.MediaLinks); err != nil {
		return p, fmt.Errorf("decode media links: %w", err)
	}
	return p, nil
}

// GetPost loads a single post.
func (s *Store) GetPost(ctx context.Context, id string) (*model.CampaignPost, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	return &p, nil
}

// ListPosts returns every post ordered by date and time.
func (s *Store) ListPosts(ctx context.Context) ([]model.CampaignPost, error) {
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts ORDER BY date, time, created_at, id`)
}

// ListSeries returns the head post and every instance linked to it.
func (s *Store) ListSeries(ctx context.Context, headID string) ([]model.CampaignPost, error) {
	return s.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ? OR parent_post_id = ? ORDER BY date, id`, headID, headID)
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]model.CampaignPost, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []model.CampaignPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// SetPostStatus moves a post through its workflow.
func (s *Store) SetPostStatus(ctx context.Context, id string, status model.PostStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE posts SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("set post status: %w", err)
	}
	return checkAffected(res, "post", id)
}

// DeletePost removes one post. Deleting a series head leaves the other
// instances in place, still pointing at the removed id.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return checkAffected(res, "post", id)
}

// DeleteSeries removes a head post together with all linked instances and
// returns how many rows were deleted.
func (s *Store) DeleteSeries(ctx context.Context, headID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ? OR parent_post_id = ?`, headID, headID)
	if err != nil {
		return 0, fmt.Errorf("delete series: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("series %s: %w", headID, ErrNotFound)
	}
	appLog.Info("post series deleted", "head_id", headID, "deleted", n)
	return n, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
