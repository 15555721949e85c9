package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Janier1992/Negocio-SaaS-sub001/models"
)

// RESTConfig configures the PostgREST-style backend exposed by the hosted
// database platform.
type RESTConfig struct {
	BaseURL        string
	Table          string
	APIKey         string
	Columns        models.ColumnMap
	IDColumn       string
	BusinessColumn string
	Timeout        time.Duration
}

// RESTStore talks to a PostgREST endpoint: batch POST for inserts, PATCH
// by id for updates, filtered GET for the key snapshot.
type RESTStore struct {
	cfg    RESTConfig
	client *http.Client
}

// NewRESTStore validates cfg and builds the HTTP client.
func NewRESTStore(cfg RESTConfig) (*RESTStore, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("table is required")
	}
	if cfg.IDColumn == "" {
		cfg.IDColumn = "id"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	return &RESTStore{cfg: cfg, client: client}, nil
}

// FetchByKeys implements RecordStore.
func (s *RESTStore) FetchByKeys(ctx context.Context, codes []string) ([]ExistingRecord, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	quoted := make([]string, len(codes))
	for i, code := range codes {
		quoted[i] = `"` + strings.ReplaceAll(code, `"`, `\"`) + `"`
	}

	query := url.Values{}
	query.Set("select", s.cfg.IDColumn+","+s.cfg.Columns.Code)
	query.Set(s.cfg.Columns.Code, "in.("+strings.Join(quoted, ",")+")")

	endpoint := s.tableURL() + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode fetch response: %w", err)
	}

	records := make([]ExistingRecord, 0, len(raw))
	for _, item := range raw {
		record := ExistingRecord{
			ID:   stringify(item[s.cfg.IDColumn]),
			Code: stringify(item[s.cfg.Columns.Code]),
		}
		if record.ID == "" || record.Code == "" {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// InsertBatch implements RecordStore with a single POST of all rows.
func (s *RESTStore) InsertBatch(ctx context.Context, businessID string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	payload := make([]map[string]any, len(records))
	for i, record := range records {
		payload[i] = s.payload(record, businessID, true)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode insert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tableURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build insert request: %w", err)
	}
	req.Header.Set("Prefer", "return=minimal")

	_, err = s.do(req)
	return err
}

// UpdateByID implements RecordStore with a PATCH filtered on the id column.
func (s *RESTStore) UpdateByID(ctx context.Context, id string, record models.Record) error {
	body, err := json.Marshal(s.payload(record, "", false))
	if err != nil {
		return fmt.Errorf("encode update payload: %w", err)
	}

	endpoint := s.tableURL() + "?" + url.Values{s.cfg.IDColumn: []string{"eq." + id}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build update request: %w", err)
	}
	req.Header.Set("Prefer", "return=minimal")

	_, err = s.do(req)
	return err
}

// payload maps a record onto the configured column names. The natural key
// only travels on inserts.
func (s *RESTStore) payload(record models.Record, businessID string, insert bool) map[string]any {
	cols := s.cfg.Columns
	out := make(map[string]any, 7)
	if insert && cols.Code != "" {
		out[cols.Code] = record.Code
	}
	if cols.Name != "" {
		out[cols.Name] = record.Name
	}
	if cols.Description != "" && record.Description != "" {
		out[cols.Description] = record.Description
	}
	if cols.Price != "" {
		out[cols.Price] = record.Price
	}
	if cols.Stock != "" {
		out[cols.Stock] = record.Stock
	}
	if cols.MinStock != "" {
		out[cols.MinStock] = record.MinStock
	}
	if insert && businessID != "" && s.cfg.BusinessColumn != "" {
		out[s.cfg.BusinessColumn] = businessID
	}
	return out
}

func (s *RESTStore) tableURL() string {
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + "/rest/v1/" + s.cfg.Table
}

// do issues the request and maps transport and status failures onto the
// store error taxonomy.
func (s *RESTStore) do(req *http.Request) ([]byte, error) {
	if s.cfg.APIKey != "" {
		req.Header.Set("apikey", s.cfg.APIKey)
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, RateLimitError{Err: statusError(resp.StatusCode, body)}
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, ServerError{Status: resp.StatusCode, Err: statusError(resp.StatusCode, body)}
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, RequestError{Status: resp.StatusCode, Err: statusError(resp.StatusCode, body)}
	}

	if readErr != nil {
		return nil, fmt.Errorf("read response: %w", readErr)
	}
	return body, nil
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TimeoutError{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ConnectionError{Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return TimeoutError{Err: err}
		}
		return ConnectionError{Err: err}
	}
	return err
}

func statusError(status int, body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	if snippet == "" {
		return fmt.Errorf("http status %d", status)
	}
	return fmt.Errorf("http status %d: %s", status, snippet)
}

func stringify(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%v", value)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}
