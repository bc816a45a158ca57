package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrNoAPIKey  = errors.New("generation api key not configured")
	ErrEmptyPlan = errors.New("generation returned an empty plan")
)

// UpstreamError is a non-2xx answer from the completion endpoint.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Detail)
}

type Spot struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// DayRequest asks for a plan covering one day's assigned spots in their
// final visit order.
type DayRequest struct {
	Transport string `json:"transport"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Spots     []Spot `json:"spots"`
}

// TripRequest asks for a whole-trip plan for a free-text destination,
// leaving spot selection to the model.
type TripRequest struct {
	Destination string `json:"destination"`
	Days        int    `json:"days"`
	Transport   string `json:"transport"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

const systemPrompt = "You are a travel planner. Build a feasible single-day or multi-day " +
	"route using only the information you are given. Skip details you cannot know " +
	"instead of guessing. Answer in concise Markdown."

// GenerateDay returns plan text for one day. The spot slice is already
// in visit order; the prompt asks the model to respect it.
func (c *Client) GenerateDay(ctx context.Context, req DayRequest) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan one day of a trip.\n")
	fmt.Fprintf(&b, "Time window: %s-%s\n", req.StartTime, req.EndTime)
	fmt.Fprintf(&b, "Transport: %s\n", transportLabel(req.Transport))
	b.WriteString("Spots to visit, in this order:\n")
	for i, s := range req.Spots {
		fmt.Fprintf(&b, "  %d. %s (%f, %f)\n", i+1, s.Name, s.Lat, s.Lng)
	}
	b.WriteString("\nUse only the listed spots. Keep the given order. " +
		"Include a route line, rough timing per spot, and short practical notes " +
		"(food nearby, typical dwell time, weather fallback) where you can.\n")

	return c.complete(ctx, b.String())
}

// GenerateTrip is the destination-mode variant: the model picks spots.
func (c *Client) GenerateTrip(ctx context.Context, req TripRequest) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan a %d-day trip to %s.\n", req.Days, req.Destination)
	fmt.Fprintf(&b, "Daily time window: %s-%s\n", req.StartTime, req.EndTime)
	fmt.Fprintf(&b, "Transport: %s\n", transportLabel(req.Transport))
	b.WriteString("\nPick spots worth visiting, grouped so each day has an efficient " +
		"route. One '## Day N' section per day with a route line and short notes.\n")

	return c.complete(ctx, b.String())
}

func transportLabel(transport string) string {
	if transport == "walk" {
		return "mostly on foot"
	}
	return "public transit or car"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Temperature: 0.4,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamError{Status: resp.StatusCode, Detail: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode upstream response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrEmptyPlan
	}
	return parsed.Choices[0].Message.Content, nil
}
