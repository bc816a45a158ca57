package bookmark

import (
	"context"

	"backend-tripday/internal/db"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, input Bookmark) (Bookmark, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO bookmarks (id, user_id, name, location)
		VALUES ($1,$2,$3, ST_SetSRID(ST_MakePoint($4,$5), 4326)::geography)
		RETURNING created_at
	`, input.ID, input.UserID, input.Name, input.Lng, input.Lat)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Bookmark{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Bookmark, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, ST_Y(location::geometry), ST_X(location::geometry), created_at
		FROM bookmarks WHERE id=$1 AND user_id=$2
	`, id, userID)
	var b Bookmark
	if err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Lat, &b.Lng, &b.CreatedAt); err != nil {
		return Bookmark{}, err
	}
	return b, nil
}

// List returns the user's bookmarks ordered by name, the order the
// planner sidebar shows them in.
func (s *Service) List(ctx context.Context, userID string) ([]Bookmark, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, ST_Y(location::geometry), ST_X(location::geometry), created_at
		FROM bookmarks WHERE user_id=$1
		ORDER BY name ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []Bookmark
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Lat, &b.Lng, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM bookmarks WHERE id=$1 AND user_id=$2`, id, userID)
	return err
}
