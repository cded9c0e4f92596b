// Package urgency classifies a due date relative to today.
package urgency

import (
	"time"

	"campaigncal/internal/dates"
)

// Tier is the urgency bucket a deadline falls into.
type Tier string

const (
	Overdue Tier = "overdue"
	Urgent  Tier = "urgent"
	Soon    Tier = "soon"
	Normal  Tier = "normal"
)

// Rank orders tiers from most to least pressing.
func (t Tier) Rank() int {
	switch t {
	case Overdue:
		return 0
	case Urgent:
		return 1
	case Soon:
		return 2
	default:
		return 3
	}
}

// Profile holds the day thresholds of one classification scheme. A
// deadline is urgent when it is at most UrgentDays away and soon when at
// most SoonDays away.
type Profile struct {
	Name       string `yaml:"-" json:"name"`
	UrgentDays int    `yaml:"urgent_days" json:"urgent_days"`
	SoonDays   int    `yaml:"soon_days" json:"soon_days"`
}

// Dashboard is used by the weekly board and dashboard widgets.
var Dashboard = Profile{Name: "dashboard", UrgentDays: 1, SoonDays: 3}

// Deadlines is used by the upcoming-deadlines list.
var Deadlines = Profile{Name: "deadlines", UrgentDays: 3, SoonDays: 7}

// Result is the outcome of a classification.
type Result struct {
	DiffDays int  `json:"diff_days"`
	Tier     Tier `json:"tier"`
}

// Classify compares due against today on whole calendar days. A negative
// difference is overdue regardless of the profile. Completion is not
// considered here; callers skip completed tasks.
func Classify(due, today time.Time, p Profile) Result {
	diff := dates.DaysBetween(today, due)
	return Result{DiffDays: diff, Tier: p.tier(diff)}
}

// ClassifyDate is Classify for a stored "YYYY-MM-DD" due date.
func ClassifyDate(due string, today time.Time, p Profile) Result {
	return Classify(dates.ParseLocalDate(due), today, p)
}

func (p Profile) tier(diff int) Tier {
	switch {
	case diff < 0:
		return Overdue
	case diff <= p.UrgentDays:
		return Urgent
	case diff <= p.SoonDays:
		return Soon
	default:
		return Normal
	}
}
