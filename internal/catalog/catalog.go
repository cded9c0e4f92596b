// Package catalog describes the marketing channels and the task templates
// that the generator turns into dated tasks.
//
// A Catalog is plain configuration. Callers build one (or take Default) and
// pass it to the generator; nothing in this package is mutable global state.
package catalog

import "fmt"

// Channel is a marketing outlet tasks are produced for.
type Channel struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Operation is a marketing operation a user can pick explicitly. Its due
// date is DaysBeforeEvent days before the event's anchor date.
type Operation struct {
	ID              string `yaml:"id" json:"id"`
	ChannelID       string `yaml:"channel" json:"channel"`
	DaysBeforeEvent int    `yaml:"days_before_event" json:"days_before_event"`
	DefaultTime     string `yaml:"default_time" json:"default_time"`
	Label           string `yaml:"label" json:"label"`
}

// Step is one entry of a size tier or of the fixed import sequence. Its
// OffsetDays is independent of any Operation.DaysBeforeEvent.
type Step struct {
	ChannelID  string `yaml:"channel" json:"channel"`
	Label      string `yaml:"label" json:"label"`
	OffsetDays int    `yaml:"offset_days" json:"offset_days"`
	Time       string `yaml:"time" json:"time"`
}

// Size names a campaign size tier.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// ParseSize validates a size name.
func ParseSize(s string) (Size, error) {
	switch Size(s) {
	case SizeSmall, SizeMedium, SizeLarge:
		return Size(s), nil
	}
	return "", fmt.Errorf("unknown campaign size %q", s)
}

// Catalog bundles the channels, explicit operations, size tiers and the
// fixed import sequence.
type Catalog struct {
	channels   []Channel
	operations []Operation
	tiers      map[Size][]Step
	fixed      []Step
}

// New builds a catalog. The slices are copied, so later changes by the
// caller do not leak in.
func New(channels []Channel, operations []Operation, tiers map[Size][]Step, fixed []Step) Catalog {
	c := Catalog{
		channels:   append([]Channel(nil), channels...),
		operations: append([]Operation(nil), operations...),
		tiers:      make(map[Size][]Step, len(tiers)),
		fixed:      append([]Step(nil), fixed...),
	}
	for size, steps := range tiers {
		c.tiers[size] = append([]Step(nil), steps...)
	}
	return c
}

// Channels returns a copy of the channel list.
func (c Catalog) Channels() []Channel {
	return append([]Channel(nil), c.channels...)
}

// Channel looks up a channel by id.
func (c Catalog) Channel(id string) (Channel, bool) {
	for _, ch := range c.channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return Channel{}, false
}

// Operations returns a copy of the explicit operation list.
func (c Catalog) Operations() []Operation {
	return append([]Operation(nil), c.operations...)
}

// Operation looks up an explicit operation by id.
func (c Catalog) Operation(id string) (Operation, bool) {
	for _, op := range c.operations {
		if op.ID == id {
			return op, true
		}
	}
	return Operation{}, false
}

// Tier returns the ordered steps of a size tier.
func (c Catalog) Tier(size Size) ([]Step, bool) {
	steps, ok := c.tiers[size]
	if !ok {
		return nil, false
	}
	return append([]Step(nil), steps...), true
}

// FixedImport returns the step sequence applied to every bulk-imported event.
func (c Catalog) FixedImport() []Step {
	return append([]Step(nil), c.fixed...)
}
