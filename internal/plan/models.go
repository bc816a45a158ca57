package plan

import (
	"time"

	"backend-tripday/internal/planner"
)

// DayEntry is one day of a saved plan: the ordered spot list plus the
// generated text, which is empty when the day was never generated.
type DayEntry struct {
	Day      int            `json:"day"`
	Spots    []planner.Spot `json:"spots"`
	PlanText string         `json:"plan_text"`
}

// Document is the persisted itinerary, written wholesale on save.
type Document struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Days      int        `json:"days"`
	Schedule  []DayEntry `json:"schedule"`
	CreatedAt time.Time  `json:"created_at"`
}

// View is the read-only shape served to the plan detail page. Saved
// plans are an export for viewing, not a way back into the editor.
type View struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Days      int        `json:"days"`
	Schedule  []DayEntry `json:"schedule"`
	CreatedAt time.Time  `json:"created_at"`
}

// Summary is the list-page row: no schedule payload.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Days      int       `json:"days"`
	CreatedAt time.Time `json:"created_at"`
}
