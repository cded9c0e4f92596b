package agenda

import (
	"time"

	"campaigncal/internal/dates"
	"campaigncal/internal/model"
)

// Day is one cell of a month or week view.
type Day struct {
	// Date is "" for the padding cells in front of day 1 of a month.
	Date   string               `json:"date"`
	Empty  bool                 `json:"empty"`
	Today  bool                 `json:"today"`
	Events []model.Event        `json:"events"`
	Posts  []model.CampaignPost `json:"posts"`
}

// View holds the inputs shared by MonthView and WeekView.
type View struct {
	Events      []model.Event
	Posts       []model.CampaignPost
	EventFilter EventFilter
	PostFilter  PostFilter
	Today       time.Time
}

// MonthView fills a Monday-first month grid with the filtered events and
// posts of each day.
func (v View) MonthView(year int, month time.Month) []Day {
	return v.fill(dates.MonthGrid(year, month))
}

// WeekView fills Monday..Sunday of the week containing day.
func (v View) WeekView(day time.Time) []Day {
	return v.fill(dates.WeekDays(day))
}

func (v View) fill(cells []time.Time) []Day {
	events := FilterEvents(v.Events, v.EventFilter, v.Today)
	todayStr := dates.Format(dates.StartOfDay(v.Today))

	out := make([]Day, 0, len(cells))
	for _, c := range cells {
		if c.IsZero() {
			out = append(out, Day{Empty: true, Events: []model.Event{}, Posts: []model.CampaignPost{}})
			continue
		}
		key := dates.Format(c)
		out = append(out, Day{
			Date:   key,
			Today:  key == todayStr,
			Events: EventsOnDate(c, events),
			Posts:  PostsOnDate(c, v.Posts, v.PostFilter, v.Today),
		})
	}
	return out
}
