package planner

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	TransportWalk   = "walk"
	TransportPublic = "public"

	StatusIdle       = "idle"
	StatusGenerating = "generating"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"

	DefaultStartTime = "09:00"
	DefaultEndTime   = "17:00"
)

var timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// Spot is a bookmark assigned to a day. Order is 1-based and dense
// within the day it belongs to.
type Spot struct {
	BookmarkID string  `json:"bookmark_id"`
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Order      int     `json:"order"`
}

type DayPlan struct {
	Day   int    `json:"day"`
	Spots []Spot `json:"spots"`
}

type TimeWindow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// State is the full planner state for one user. All mutations go through
// the reducer functions below, which return a modified copy; the stored
// value is only replaced after the reducer succeeds.
type State struct {
	Days      int                `json:"days"`
	ActiveDay int                `json:"active_day"`
	Transport string             `json:"transport"`
	Schedule  map[int]DayPlan    `json:"schedule"`
	Times     map[int]TimeWindow `json:"times"`
	Generated map[int]string     `json:"generated"`
	Status    map[int]string     `json:"status"`
}

var (
	ErrDayOutOfRange   = errors.New("day out of range")
	ErrIndexOutOfRange = errors.New("spot index out of range")
	ErrBadTransport    = errors.New("transport must be walk or public")
	ErrBadTimeFormat   = errors.New("times must match HH:MM")
	ErrTimeOrder       = errors.New("start time must be before end time")
	ErrDaysTooSmall    = errors.New("days must be at least 1")
)

// New returns a fresh state with empty day slots for 1..days.
func New(days int) State {
	if days < 1 {
		days = 1
	}
	s := State{
		Days:      days,
		ActiveDay: 1,
		Transport: TransportPublic,
		Schedule:  map[int]DayPlan{},
		Times:     map[int]TimeWindow{},
		Generated: map[int]string{},
		Status:    map[int]string{},
	}
	for d := 1; d <= days; d++ {
		s.Schedule[d] = DayPlan{Day: d, Spots: []Spot{}}
		s.Times[d] = TimeWindow{StartTime: DefaultStartTime, EndTime: DefaultEndTime}
		s.Status[d] = StatusIdle
	}
	return s
}

func (s State) clone() State {
	next := s
	next.Schedule = make(map[int]DayPlan, len(s.Schedule))
	for d, plan := range s.Schedule {
		spots := make([]Spot, len(plan.Spots))
		copy(spots, plan.Spots)
		next.Schedule[d] = DayPlan{Day: plan.Day, Spots: spots}
	}
	next.Times = make(map[int]TimeWindow, len(s.Times))
	for d, tw := range s.Times {
		next.Times[d] = tw
	}
	next.Generated = make(map[int]string, len(s.Generated))
	for d, text := range s.Generated {
		next.Generated[d] = text
	}
	next.Status = make(map[int]string, len(s.Status))
	for d, st := range s.Status {
		next.Status[d] = st
	}
	return next
}

// Reconcile grows or shrinks the per-day maps to match a new day count.
// Shrinking is destructive: assignments, windows and generated text for
// removed days are dropped, and the active day falls back to 1 if it no
// longer exists.
func Reconcile(s State, days int) (State, error) {
	if days < 1 {
		return State{}, ErrDaysTooSmall
	}
	next := s.clone()
	next.Days = days
	for d := 1; d <= days; d++ {
		if _, ok := next.Schedule[d]; !ok {
			next.Schedule[d] = DayPlan{Day: d, Spots: []Spot{}}
		}
		if _, ok := next.Times[d]; !ok {
			next.Times[d] = TimeWindow{StartTime: DefaultStartTime, EndTime: DefaultEndTime}
		}
		if _, ok := next.Status[d]; !ok {
			next.Status[d] = StatusIdle
		}
	}
	for d := range next.Schedule {
		if d > days {
			delete(next.Schedule, d)
			delete(next.Times, d)
			delete(next.Generated, d)
			delete(next.Status, d)
		}
	}
	if next.ActiveDay > days {
		next.ActiveDay = 1
	}
	return next, nil
}

// AddToDay appends a spot to the day's sequence. Adding a bookmark that
// is already assigned to that day is a no-op.
func AddToDay(s State, day int, spot Spot) (State, error) {
	plan, ok := s.Schedule[day]
	if !ok {
		return State{}, ErrDayOutOfRange
	}
	for _, existing := range plan.Spots {
		if existing.BookmarkID == spot.BookmarkID {
			return s, nil
		}
	}
	next := s.clone()
	spot.Order = len(plan.Spots) + 1
	target := next.Schedule[day]
	target.Spots = append(target.Spots, spot)
	next.Schedule[day] = target
	return next, nil
}

// RemoveFromDay drops the matching spot and renumbers the remainder.
func RemoveFromDay(s State, day int, bookmarkID string) (State, error) {
	plan, ok := s.Schedule[day]
	if !ok {
		return State{}, ErrDayOutOfRange
	}
	next := s.clone()
	filtered := make([]Spot, 0, len(plan.Spots))
	for _, spot := range plan.Spots {
		if spot.BookmarkID != bookmarkID {
			filtered = append(filtered, spot)
		}
	}
	next.Schedule[day] = DayPlan{Day: day, Spots: renumber(filtered)}
	return next, nil
}

// MoveUp swaps the spot at idx with its predecessor. idx 0 is a no-op.
func MoveUp(s State, day, idx int) (State, error) {
	return swapAdjacent(s, day, idx, idx-1)
}

// MoveDown swaps the spot at idx with its successor. The last index is
// a no-op.
func MoveDown(s State, day, idx int) (State, error) {
	return swapAdjacent(s, day, idx, idx+1)
}

func swapAdjacent(s State, day, idx, neighbor int) (State, error) {
	plan, ok := s.Schedule[day]
	if !ok {
		return State{}, ErrDayOutOfRange
	}
	if idx < 0 || idx >= len(plan.Spots) {
		return State{}, ErrIndexOutOfRange
	}
	if neighbor < 0 || neighbor >= len(plan.Spots) {
		return s, nil
	}
	next := s.clone()
	spots := next.Schedule[day].Spots
	spots[idx], spots[neighbor] = spots[neighbor], spots[idx]
	next.Schedule[day] = DayPlan{Day: day, Spots: renumber(spots)}
	return next, nil
}

// SetTimeWindow replaces a day's window after format and ordering checks.
func SetTimeWindow(s State, day int, tw TimeWindow) (State, error) {
	if _, ok := s.Times[day]; !ok {
		return State{}, ErrDayOutOfRange
	}
	if err := validateWindow(tw); err != nil {
		return State{}, err
	}
	next := s.clone()
	next.Times[day] = tw
	return next, nil
}

func SetTransport(s State, transport string) (State, error) {
	if transport != TransportWalk && transport != TransportPublic {
		return State{}, ErrBadTransport
	}
	next := s.clone()
	next.Transport = transport
	return next, nil
}

// AckStatus returns a day's generation status to idle once a terminal
// state has been shown to the user.
func AckStatus(s State, day int) (State, error) {
	if _, ok := s.Status[day]; !ok {
		return State{}, ErrDayOutOfRange
	}
	next := s.clone()
	next.Status[day] = StatusIdle
	return next, nil
}

func SelectDay(s State, day int) (State, error) {
	if day < 1 || day > s.Days {
		return State{}, ErrDayOutOfRange
	}
	next := s.clone()
	next.ActiveDay = day
	return next, nil
}

func renumber(spots []Spot) []Spot {
	for i := range spots {
		spots[i].Order = i + 1
	}
	return spots
}

func validateWindow(tw TimeWindow) error {
	if !timePattern.MatchString(tw.StartTime) || !timePattern.MatchString(tw.EndTime) {
		return ErrBadTimeFormat
	}
	// Zero-padded 24h strings compare correctly as text.
	if tw.StartTime >= tw.EndTime {
		return ErrTimeOrder
	}
	return nil
}

// Validate rejects states whose day-key sets diverge from {1..Days} or
// whose order ranks are not dense and 1-based. Reducers keep these
// invariants; Validate guards states deserialized from storage.
func Validate(s State) error {
	if s.Days < 1 {
		return ErrDaysTooSmall
	}
	if s.ActiveDay < 1 || s.ActiveDay > s.Days {
		return fmt.Errorf("active day %d outside 1..%d", s.ActiveDay, s.Days)
	}
	if s.Transport != TransportWalk && s.Transport != TransportPublic {
		return ErrBadTransport
	}
	if len(s.Schedule) != s.Days || len(s.Times) != s.Days {
		return fmt.Errorf("day maps hold %d/%d entries, want %d", len(s.Schedule), len(s.Times), s.Days)
	}
	for d := 1; d <= s.Days; d++ {
		plan, ok := s.Schedule[d]
		if !ok {
			return fmt.Errorf("day %d missing from schedule", d)
		}
		if _, ok := s.Times[d]; !ok {
			return fmt.Errorf("day %d missing time window", d)
		}
		seen := map[string]bool{}
		for i, spot := range plan.Spots {
			if spot.Order != i+1 {
				return fmt.Errorf("day %d spot %d has order %d, want %d", d, i, spot.Order, i+1)
			}
			if seen[spot.BookmarkID] {
				return fmt.Errorf("day %d has duplicate bookmark %s", d, spot.BookmarkID)
			}
			seen[spot.BookmarkID] = true
		}
	}
	for d := range s.Generated {
		if d < 1 || d > s.Days {
			return fmt.Errorf("generated text present for day %d outside 1..%d", d, s.Days)
		}
	}
	for d := range s.Status {
		if d < 1 || d > s.Days {
			return fmt.Errorf("status present for day %d outside 1..%d", d, s.Days)
		}
	}
	return nil
}
