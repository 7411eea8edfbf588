// Package availability fetches open appointment slots from the external
// scheduling provider.
package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotConfigured is returned when the provider base URL or API key is missing.
var ErrNotConfigured = errors.New("availability: provider not configured")

// Fetcher is implemented by anything that can return a staff member's open days.
type Fetcher interface {
	Fetch(ctx context.Context, staffID string) ([]Day, error)
}

// Config configures the provider client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls GET {base}/disponibilidad-doctor-{staffId}?api_key={key}.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	tracer     trace.Tracer
}

var _ Fetcher = (*Client)(nil)

// NewClient builds a provider client. A client with missing credentials is
// still usable; every Fetch returns ErrNotConfigured.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: httpClient,
		tracer:     otel.Tracer("citas.internal.availability"),
	}
}

// Configured reports whether the client has a base URL and key.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

type providerDay struct {
	Date           string         `json:"date"`
	AvailableSlots []providerSlot `json:"available_slots"`
}

type providerSlot struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type providerEnvelope struct {
	Data []providerDay `json:"data"`
}

// Fetch returns the provider's open days for staffID in provider order. The
// caller owns logging; the error never carries user-facing text.
func (c *Client) Fetch(ctx context.Context, staffID string) ([]Day, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	ctx, span := c.tracer.Start(ctx, "availability.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("citas.staff_id", staffID))

	endpoint := fmt.Sprintf("%s/disponibilidad-doctor-%s?api_key=%s",
		c.baseURL, url.PathEscape(staffID), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("availability: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("availability: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("availability: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("availability: upstream error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
		span.RecordError(err)
		return nil, err
	}

	days, err := decodeDays(body)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("citas.availability.days", len(days)))
	return days, nil
}

func decodeDays(body []byte) ([]Day, error) {
	trimmed := bytes.TrimSpace(body)
	var raw []providerDay
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return []Day{}, nil
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("availability: decode response: %w", err)
		}
	case trimmed[0] == '{':
		var env providerEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("availability: decode response: %w", err)
		}
		raw = env.Data
	default:
		return nil, errors.New("availability: unexpected response shape")
	}

	days := make([]Day, 0, len(raw))
	for _, d := range raw {
		date := strings.TrimSpace(d.Date)
		if date == "" {
			continue
		}
		day := Day{Date: date, Slots: make([]Slot, 0, len(d.AvailableSlots))}
		for _, s := range d.AvailableSlots {
			start, end := strings.TrimSpace(s.StartDate), strings.TrimSpace(s.EndDate)
			if start == "" || end == "" {
				continue
			}
			day.Slots = append(day.Slots, Slot{Start: start, End: end})
		}
		days = append(days, day)
	}
	return days, nil
}
