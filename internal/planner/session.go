package planner

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const defaultDays = 2

// SessionStore keeps each user's live planner state as a JSON blob in
// redis. One logical actor per user: handlers load, reduce and save
// within a single request.
type SessionStore struct {
	redis *redis.Client
}

func NewSessionStore(redisClient *redis.Client) *SessionStore {
	return &SessionStore{redis: redisClient}
}

func stateKey(userID string) string {
	return "planner:" + userID
}

func epochKey(userID string, day int) string {
	return "planner:" + userID + ":epoch:" + strconv.Itoa(day)
}

// Load returns the stored state, or a fresh two-day state when the user
// has none yet. States that fail validation (corrupt or hand-edited
// blobs) are replaced rather than propagated.
func (s *SessionStore) Load(ctx context.Context, userID string) (State, error) {
	raw, err := s.redis.Get(ctx, stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(defaultDays), nil
	}
	if err != nil {
		return State{}, err
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return New(defaultDays), nil
	}
	if err := Validate(state); err != nil {
		return New(defaultDays), nil
	}
	return state, nil
}

func (s *SessionStore) Save(ctx context.Context, userID string, state State) error {
	if err := Validate(state); err != nil {
		return err
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, stateKey(userID), raw, 0).Err()
}

// NextEpoch issues a new generation token for the day. Epochs only grow,
// so the latest issued request for a day always holds the highest value.
func (s *SessionStore) NextEpoch(ctx context.Context, userID string, day int) (int64, error) {
	return s.redis.Incr(ctx, epochKey(userID, day)).Result()
}

// CurrentEpoch reports the most recently issued token for the day.
func (s *SessionStore) CurrentEpoch(ctx context.Context, userID string, day int) (int64, error) {
	val, err := s.redis.Get(ctx, epochKey(userID, day)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}
