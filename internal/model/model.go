package model

// Dates are carried as local calendar strings ("YYYY-MM-DD") and times as
// "HH:MM". Records cross the storage boundary in this form, and comparing
// the strings directly keeps time zones out of day matching.

// DateInstance is one calendar day on which an event takes place.
type DateInstance struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// Event is a venue occurrence (performance, market day, ...) that owns its
// marketing tasks.
//
// Dates is kept non-empty and sorted ascending; Dates[0] is the primary date.
type Event struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Performer string `json:"performer,omitempty"`
	Summary   string `json:"summary,omitempty"`

	Dates []DateInstance `json:"dates"`

	// ImageFormats maps an image format id to whether it has been delivered.
	ImageFormats map[string]bool `json:"image_formats,omitempty"`

	Tasks []Task `json:"tasks"`

	// SourceUID is the iCalendar UID of an imported event; empty for events
	// created by hand.
	SourceUID string `json:"source_uid,omitempty"`
}

// PrimaryDate returns the first date instance, or "" when the event has none.
func (e Event) PrimaryDate() string {
	if len(e.Dates) == 0 {
		return ""
	}
	return e.Dates[0].Date
}

// MaxSummaryLen is the upper bound on Event.Summary, counted in runes.
const MaxSummaryLen = 300

// Task is a single channel-specific deliverable owned by exactly one Event.
type Task struct {
	ID        string `json:"id"`
	EventID   string `json:"event_id,omitempty"`
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	DueDate   string `json:"due_date"`
	DueTime   string `json:"due_time,omitempty"`
	Completed bool   `json:"completed"`
	Content   string `json:"content,omitempty"`
	Assignee  string `json:"assignee,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// PostStatus is the workflow state of a campaign post.
type PostStatus string

const (
	PostPlanned    PostStatus = "planned"
	PostInProgress PostStatus = "in-progress"
	PostDone       PostStatus = "done"
	PostPublished  PostStatus = "published"
)

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	switch s {
	case PostPlanned, PostInProgress, PostDone, PostPublished:
		return true
	}
	return false
}

// Recurrence is the repeat rule of a campaign post.
type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

// CampaignPost is a scheduled social-media post. It is independent of any
// event unless EventID is set.
type CampaignPost struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Date       string     `json:"date"`
	Year       int        `json:"year"`
	Time       string     `json:"time,omitempty"`
	Type       string     `json:"type,omitempty"`
	Channels   []string   `json:"channels"`
	Assignee   string     `json:"assignee,omitempty"`
	EventID    string     `json:"event_id,omitempty"`
	Status     PostStatus `json:"status"`
	Caption    string     `json:"caption,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	MediaLinks []string   `json:"media_links,omitempty"`

	Recurrence        Recurrence `json:"recurrence"`
	RecurrenceEndDate string     `json:"recurrence_end_date,omitempty"`

	// ParentPostID is empty for standalone posts and for the first instance
	// of a recurring series; every later instance points at the first.
	ParentPostID string `json:"parent_post_id,omitempty"`
}

// ContentScope selects which record kinds a calendar view shows.
type ContentScope string

const (
	ScopeAll    ContentScope = "all"
	ScopeEvents ContentScope = "events"
	ScopeSocial ContentScope = "social"
)
