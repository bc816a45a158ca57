package planner

import (
	"context"
	"errors"

	"backend-tripday/internal/llm"
)

var ErrNoSpots = errors.New("no spots assigned to this day")

// Generator produces plan text for one day. *llm.Client satisfies it.
type Generator interface {
	GenerateDay(ctx context.Context, req llm.DayRequest) (string, error)
}

// Notifier pushes generation events to connected clients.
type Notifier interface {
	PlanReady(userID string, day int)
}

type Service struct {
	sessions *SessionStore
	gen      Generator
	notifier Notifier
}

func NewService(sessions *SessionStore, gen Generator, notifier Notifier) *Service {
	return &Service{sessions: sessions, gen: gen, notifier: notifier}
}

func (s *Service) Sessions() *SessionStore {
	return s.sessions
}

// GenerateResult reports one finished generation attempt. Stored is false
// when a newer request for the same day was issued while this one was in
// flight; the response is then discarded instead of overwriting the
// newer result.
type GenerateResult struct {
	Day      int    `json:"day"`
	PlanText string `json:"plan_text"`
	Stored   bool   `json:"stored"`
}

// GenerateDay validates the day's assignment, calls the generation
// collaborator once and records the text under the day. Validation
// failures never reach the network. Failures of any kind leave the
// day's previous text intact.
func (s *Service) GenerateDay(ctx context.Context, userID string, day int) (GenerateResult, error) {
	state, err := s.sessions.Load(ctx, userID)
	if err != nil {
		return GenerateResult{}, err
	}

	plan, ok := state.Schedule[day]
	if !ok {
		return GenerateResult{}, ErrDayOutOfRange
	}
	if len(plan.Spots) == 0 {
		return GenerateResult{}, ErrNoSpots
	}
	if err := validateWindow(state.Times[day]); err != nil {
		return GenerateResult{}, err
	}

	if err := s.setStatus(ctx, userID, day, StatusGenerating); err != nil {
		return GenerateResult{}, err
	}

	epoch, err := s.sessions.NextEpoch(ctx, userID, day)
	if err != nil {
		return GenerateResult{}, err
	}

	req := llm.DayRequest{
		Transport: state.Transport,
		StartTime: state.Times[day].StartTime,
		EndTime:   state.Times[day].EndTime,
		Spots:     make([]llm.Spot, 0, len(plan.Spots)),
	}
	for _, spot := range plan.Spots {
		req.Spots = append(req.Spots, llm.Spot{Name: spot.Name, Lat: spot.Lat, Lng: spot.Lng})
	}

	text, genErr := s.gen.GenerateDay(ctx, req)

	current, err := s.sessions.CurrentEpoch(ctx, userID, day)
	if err != nil {
		return GenerateResult{}, err
	}
	if current != epoch {
		// A newer request owns the day now; this response is stale.
		return GenerateResult{Day: day, PlanText: text, Stored: false}, genErr
	}

	if genErr != nil {
		if err := s.setStatus(ctx, userID, day, StatusFailed); err != nil {
			return GenerateResult{}, err
		}
		return GenerateResult{Day: day}, genErr
	}

	// Reload: other days may have changed while the call was pending.
	state, err = s.sessions.Load(ctx, userID)
	if err != nil {
		return GenerateResult{}, err
	}
	if _, ok := state.Schedule[day]; !ok {
		// The day was reconciled away mid-flight; nothing to store.
		return GenerateResult{Day: day, PlanText: text, Stored: false}, nil
	}
	next := state.clone()
	next.Generated[day] = text
	next.Status[day] = StatusSucceeded
	if err := s.sessions.Save(ctx, userID, next); err != nil {
		return GenerateResult{}, err
	}

	if s.notifier != nil {
		s.notifier.PlanReady(userID, day)
	}
	return GenerateResult{Day: day, PlanText: text, Stored: true}, nil
}

func (s *Service) setStatus(ctx context.Context, userID string, day int, status string) error {
	state, err := s.sessions.Load(ctx, userID)
	if err != nil {
		return err
	}
	if _, ok := state.Schedule[day]; !ok {
		return nil
	}
	next := state.clone()
	next.Status[day] = status
	return s.sessions.Save(ctx, userID, next)
}
