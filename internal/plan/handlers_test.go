package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-tripday/internal/planner"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
)

func planApp(t *testing.T, svc *Service) (*fiber.App, *planner.SessionStore) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := planner.NewSessionStore(client)

	app := fiber.New()
	auth := func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	}
	RegisterRoutes(app.Group("/plans"), svc, sessions, auth)
	return app, sessions
}

func TestPlanHandlersSaveAndRead(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	app, sessions := planApp(t, NewService(mock))

	state := planner.New(2)
	state, _ = planner.AddToDay(state, 1, planner.Spot{BookmarkID: "a", Name: "A"})
	state.Generated[1] = "the plan"
	if err := sessions.Save(context.Background(), "user-1", state); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	createdAt := time.Now()
	mock.ExpectQuery(`INSERT INTO plans`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Tokyo weekend", 2, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	body, _ := json.Marshal(map[string]string{"title": "Tokyo weekend"})
	req := httptest.NewRequest(http.MethodPost, "/plans/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("save status: %v", err)
	}
	var saved Document
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		t.Fatalf("decode saved: %v", err)
	}
	if saved.ID == "" || len(saved.Schedule) != 2 || saved.Schedule[0].PlanText != "the plan" {
		t.Fatalf("unexpected saved document: %+v", saved)
	}

	schedule, _ := json.Marshal(saved.Schedule)
	mock.ExpectQuery(`SELECT id, user_id, title, days, schedule, created_at`).
		WithArgs(saved.ID, "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "days", "schedule", "created_at"}).
			AddRow(saved.ID, "user-1", saved.Title, saved.Days, schedule, createdAt))

	req = httptest.NewRequest(http.MethodGet, "/plans/"+saved.ID, nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("get status: %v", err)
	}
	var view View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Title != "Tokyo weekend" || view.Schedule[0].Spots[0].Name != "A" {
		t.Fatalf("unexpected view: %+v", view)
	}

	mock.ExpectQuery(`SELECT id, title, days, created_at`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "days", "created_at"}).
			AddRow(saved.ID, saved.Title, saved.Days, createdAt))

	req = httptest.NewRequest(http.MethodGet, "/plans/", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}

	mock.ExpectExec(`DELETE FROM plans`).
		WithArgs(saved.ID, "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	req = httptest.NewRequest(http.MethodDelete, "/plans/"+saved.ID, nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: %v", err)
	}
}

func TestPlanHandlersMissingTitle(t *testing.T) {
	app, _ := planApp(t, NewService(nil))

	req := httptest.NewRequest(http.MethodPost, "/plans/", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestPlanHandlersNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, user_id, title, days, schedule, created_at`).
		WithArgs("missing", "user-1").
		WillReturnError(errPlan)

	app, _ := planApp(t, NewService(mock))

	req := httptest.NewRequest(http.MethodGet, "/plans/missing", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found")
	}
}

func TestPlanHandlersSaveError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO plans`).
		WithArgs(pgxmock.AnyArg(), "user-1", "trip", 2, pgxmock.AnyArg()).
		WillReturnError(errPlan)

	app, _ := planApp(t, NewService(mock))

	body, _ := json.Marshal(map[string]string{"title": "trip"})
	req := httptest.NewRequest(http.MethodPost, "/plans/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected save error")
	}
}

func TestPlanHandlersEmptyList(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, title, days, created_at`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "days", "created_at"}))

	app, _ := planApp(t, NewService(mock))

	req := httptest.NewRequest(http.MethodGet, "/plans/", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}
	var list []Summary
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil || list == nil {
		t.Fatalf("expected empty array: %v", err)
	}
}

func TestPlanHandlersDeleteError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM plans`).
		WithArgs("plan-err", "user-1").
		WillReturnError(errPlan)

	app, _ := planApp(t, NewService(mock))

	req := httptest.NewRequest(http.MethodDelete, "/plans/plan-err", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected delete error")
	}
}
