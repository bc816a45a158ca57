package plan

import (
	"context"
	"encoding/json"

	"backend-tripday/internal/db"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Save writes the document wholesale. There are no partial updates;
// saving again creates a new plan.
func (s *Service) Save(ctx context.Context, doc Document) (Document, error) {
	doc.ID = uuid.NewString()
	schedule, err := json.Marshal(doc.Schedule)
	if err != nil {
		return Document{}, err
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO plans (id, user_id, title, days, schedule)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, doc.ID, doc.UserID, doc.Title, doc.Days, schedule)
	if err := row.Scan(&doc.CreatedAt); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Document, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, title, days, schedule, created_at
		FROM plans WHERE id=$1 AND user_id=$2
	`, id, userID)

	var doc Document
	var schedule []byte
	if err := row.Scan(&doc.ID, &doc.UserID, &doc.Title, &doc.Days, &schedule, &doc.CreatedAt); err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal(schedule, &doc.Schedule); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Summary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, days, created_at
		FROM plans WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Summary
	for rows.Next() {
		var p Summary
		if err := rows.Scan(&p.ID, &p.Title, &p.Days, &p.CreatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM plans WHERE id=$1 AND user_id=$2`, id, userID)
	return err
}
