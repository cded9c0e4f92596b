// Package taskgen turns an event's anchor date(s) and a chosen strategy into
// concrete marketing tasks with due dates.
package taskgen

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campaigncal/internal/catalog"
	"campaigncal/internal/dates"
	"campaigncal/internal/model"
)

var (
	ErrNoAnchors        = errors.New("taskgen: event has no anchor dates")
	ErrUnknownSize      = errors.New("taskgen: unknown size tier")
	ErrUnknownOperation = errors.New("taskgen: unknown marketing operation")
	ErrNoStrategy       = errors.New("taskgen: no generation strategy")
)

// Kind tags the variant held by a Strategy.
type Kind int

const (
	KindFixedImport Kind = iota + 1
	KindSizeTier
	KindExplicit
)

func (k Kind) String() string {
	switch k {
	case KindFixedImport:
		return "fixed-import"
	case KindSizeTier:
		return "size-tier"
	case KindExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// Strategy selects how tasks are derived. Build one with FixedImport,
// SizeTier or ExplicitTemplates.
type Strategy struct {
	kind Kind
	size catalog.Size
	ids  []string
}

// FixedImport is used for bulk-imported events: the catalog's fixed
// sequence with hardcoded offsets, anchored on the first date only.
func FixedImport() Strategy {
	return Strategy{kind: KindFixedImport}
}

// SizeTier applies a size tier's own offset table.
func SizeTier(size catalog.Size) Strategy {
	return Strategy{kind: KindSizeTier, size: size}
}

// ExplicitTemplates applies the chosen operations; each is due
// DaysBeforeEvent days before the anchor at its DefaultTime.
func ExplicitTemplates(ids ...string) Strategy {
	return Strategy{kind: KindExplicit, ids: append([]string(nil), ids...)}
}

func (s Strategy) Kind() Kind { return s.kind }

func (s Strategy) String() string {
	switch s.kind {
	case KindSizeTier:
		return fmt.Sprintf("%s(%s)", s.kind, s.size)
	case KindExplicit:
		return fmt.Sprintf("%s(%d)", s.kind, len(s.ids))
	default:
		return s.kind.String()
	}
}

// Request is one generation call for a single event.
type Request struct {
	// Anchors are the event's dates, in date-instance order.
	Anchors []time.Time
	// EventID is copied onto every task when set.
	EventID         string
	Strategy        Strategy
	DefaultAssignee string
}

// Generator produces tasks from a catalog.
type Generator struct {
	Catalog catalog.Catalog
	// NewID returns a fresh task identifier.
	NewID func() string
}

// New returns a Generator with time-ordered UUID task ids.
func New(c catalog.Catalog) *Generator {
	return &Generator{Catalog: c, NewID: newTaskID}
}

// newTaskID returns a UUIDv7: a millisecond timestamp followed by random
// bits, so two ids minted in the same millisecond still differ.
func newTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Generate builds the task set for req. Due dates are not clamped: large
// offsets may land in the past or in a previous year.
//
// With several anchors, size-tier and explicit strategies produce one set
// per anchor, titled with the anchor date; the fixed import sequence is
// always anchored on the first date.
func (g *Generator) Generate(req Request) ([]model.Task, error) {
	if len(req.Anchors) == 0 {
		return nil, ErrNoAnchors
	}

	var steps []catalog.Step
	switch req.Strategy.kind {
	case KindFixedImport:
		return g.build(req, req.Anchors[:1], g.Catalog.FixedImport()), nil
	case KindSizeTier:
		tier, ok := g.Catalog.Tier(req.Strategy.size)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSize, req.Strategy.size)
		}
		steps = tier
	case KindExplicit:
		for _, id := range req.Strategy.ids {
			op, ok := g.Catalog.Operation(id)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, id)
			}
			steps = append(steps, catalog.Step{
				ChannelID:  op.ChannelID,
				Label:      op.Label,
				OffsetDays: op.DaysBeforeEvent,
				Time:       op.DefaultTime,
			})
		}
	default:
		return nil, ErrNoStrategy
	}

	return g.build(req, req.Anchors, steps), nil
}

func (g *Generator) build(req Request, anchors []time.Time, steps []catalog.Step) []model.Task {
	newID := g.NewID
	if newID == nil {
		newID = newTaskID
	}

	tasks := make([]model.Task, 0, len(anchors)*len(steps))
	for _, anchor := range anchors {
		for _, step := range steps {
			title := step.Label
			if len(anchors) > 1 {
				title = fmt.Sprintf("%s (%s)", step.Label, dates.Format(anchor))
			}
			tasks = append(tasks, model.Task{
				ID:       newID(),
				EventID:  req.EventID,
				Title:    title,
				Channel:  step.ChannelID,
				DueDate:  dates.Format(dates.AddDays(anchor, -step.OffsetDays)),
				DueTime:  step.Time,
				Assignee: req.DefaultAssignee,
			})
		}
	}
	return tasks
}

// Anchors parses an event's date instances into anchor dates.
func Anchors(ev model.Event) []time.Time {
	out := make([]time.Time, 0, len(ev.Dates))
	for _, d := range ev.Dates {
		out = append(out, dates.ParseLocalDate(d.Date))
	}
	return out
}
