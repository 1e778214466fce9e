// Package grist implements port.RemoteTable over the Grist REST API.
package grist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"invwatch/internal/domain"
	"invwatch/internal/port"
)

// Config holds connection settings for one Grist document.
type Config struct {
	BaseURL           string
	DocID             string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client talks to the tables of a single Grist document.
type Client struct {
	base    string
	docID   string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

var _ port.RemoteTable = (*Client)(nil)

// NewClient creates a Client. A non-positive RequestsPerSecond disables pacing.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		docID:   cfg.DocID,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
		log:     log.With().Str("component", "grist").Logger(),
	}
}

type columnsResponse struct {
	Columns []struct {
		ID     string `json:"id"`
		Fields struct {
			Label string `json:"label"`
		} `json:"fields"`
	} `json:"columns"`
}

type record struct {
	ID     int64       `json:"id,omitempty"`
	Fields port.Record `json:"fields"`
}

type recordsBody struct {
	Records []record `json:"records"`
}

// Ping checks that the server answers and the document is accessible.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, c.docURL(), nil)
	return err
}

func (c *Client) Columns(ctx context.Context, table string) ([]port.Column, error) {
	body, err := c.do(ctx, http.MethodGet, c.tableURL(table, "columns"), nil)
	if err != nil {
		return nil, err
	}
	var resp columnsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding columns of %s: %v", domain.ErrRemoteRequest, table, err)
	}
	cols := make([]port.Column, 0, len(resp.Columns))
	for _, col := range resp.Columns {
		cols = append(cols, port.Column{ID: col.ID, Label: col.Fields.Label})
	}
	return cols, nil
}

func (c *Client) Records(ctx context.Context, table string) ([]port.Record, error) {
	body, err := c.do(ctx, http.MethodGet, c.tableURL(table, "records"), nil)
	if err != nil {
		return nil, err
	}
	var resp recordsBody
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding records of %s: %v", domain.ErrRemoteRequest, table, err)
	}
	out := make([]port.Record, 0, len(resp.Records))
	for _, r := range resp.Records {
		out = append(out, r.Fields)
	}
	return out, nil
}

// AddRecords posts records in a single request; callers batch.
func (c *Client) AddRecords(ctx context.Context, table string, records []port.Record) error {
	if len(records) == 0 {
		return nil
	}
	payload := recordsBody{Records: make([]record, 0, len(records))}
	for _, r := range records {
		payload.Records = append(payload.Records, record{Fields: r})
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPost, c.tableURL(table, "records"), bodyBytes); err != nil {
		return err
	}
	c.log.Debug().Str("table", table).Int("records", len(records)).Msg("records added")
	return nil
}

func (c *Client) docURL() string {
	return c.base + "/api/docs/" + url.PathEscape(c.docID)
}

func (c *Client) tableURL(table, resource string) string {
	return c.docURL() + "/tables/" + url.PathEscape(table) + "/" + resource
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrRemoteUnavailable, method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrRemoteUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s %s returned status %d: %s",
			domain.ErrRemoteRequest, method, endpoint, resp.StatusCode, truncate(respBody, 512))
	}
	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
