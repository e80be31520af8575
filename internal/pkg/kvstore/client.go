package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	defaultBackoffBase = 500 * time.Millisecond
	maxResponseBytes   = 1 << 20
)

// Client is a resilient HTTP client for the Admin KV Storage API. All
// operations go through one request primitive that owns the retry/backoff
// policy: retry transport failures and 5xx with exponential backoff, never
// retry 4xx. The embedded http.Client is shared and safe for concurrent use;
// its Timeout bounds each individual attempt.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Retries    int
	// BackoffBase is doubled per attempt (0.5s, 1s, 2s, ...).
	BackoffBase time.Duration
}

func NewClient(baseURL string, httpClient *http.Client, retries int) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: httpClient,
		Retries:    retries,
	}
}

// QueryFilter selects records; only set fields are transmitted. Key is a
// legacy alias for ID.
type QueryFilter struct {
	ID           string `json:"id,omitempty"`
	Key          string `json:"key,omitempty"`
	Owner        string `json:"owner,omitempty"`
	Type         string `json:"type,omitempty"`
	ObjPropKey   string `json:"objPropKey,omitempty"`
	ObjPropValue string `json:"objPropValue,omitempty"`
}

// Query returns the records matching the filter. A response without the
// expected "records" key is an empty result, not an error.
func (c *Client) Query(ctx context.Context, token string, filter QueryFilter) ([]map[string]any, error) {
	if filter.ID == "" {
		filter.ID = filter.Key
	}
	filter.Key = ""

	envelope, err := c.do(ctx, token, "/query", filter)
	if err != nil {
		return nil, err
	}
	raw, ok := envelope["records"]
	if !ok {
		return nil, nil
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		log.Warnf("[KVStore] unexpected records shape from store: %v", err)
		return nil, nil
	}
	return records, nil
}

// Upsert creates or updates a record keyed by its ID and returns the stored
// record as reported by the store.
func (c *Client) Upsert(ctx context.Context, token string, record OwnerRecord) (json.RawMessage, error) {
	if record.ID == "" {
		record.ID = record.Key
	}
	record.Key = ""
	if record.ID == "" {
		return nil, ErrMissingRecordID
	}

	envelope, err := c.do(ctx, token, "/upsert", record)
	if err != nil {
		return nil, err
	}
	return envelope["record"], nil
}

// Delete removes a record by ID, optionally scoped to an owner. The store
// answers with the deleted record or a bare ack; both are returned verbatim.
func (c *Client) Delete(ctx context.Context, token, id, owner string) (json.RawMessage, error) {
	if id == "" {
		return nil, ErrMissingRecordID
	}
	body := struct {
		ID    string `json:"id"`
		Owner string `json:"owner,omitempty"`
	}{ID: id, Owner: owner}

	envelope, err := c.do(ctx, token, "/delete", body)
	if err != nil {
		return nil, err
	}
	if rec, ok := envelope["record"]; ok {
		return rec, nil
	}
	ack, err := json.Marshal(envelope)
	if err != nil {
		return nil, nil
	}
	return ack, nil
}

func (c *Client) do(ctx context.Context, token, endpoint string, body any) (map[string]json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	retries := c.Retries
	if retries < 0 {
		retries = 0
	}
	backoff := c.BackoffBase
	if backoff <= 0 {
		backoff = defaultBackoffBase
	}

	var lastStatus int
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff << (attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient().Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warnf("[KVStore] %s attempt %d/%d failed: %v", endpoint, attempt+1, retries+1, err)
			lastErr = err
			lastStatus = 0
			continue
		}

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()

		if resp.StatusCode >= 500 {
			log.Warnf("[KVStore] %s attempt %d/%d got status %d", endpoint, attempt+1, retries+1, resp.StatusCode)
			lastStatus = resp.StatusCode
			lastErr = nil
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &RejectedError{
				StatusCode: resp.StatusCode,
				Message:    upstreamMessage(respBody, resp.Status),
			}
		}

		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			// Minor API shape drift is tolerated; treat as an empty result.
			return nil, nil
		}
		return envelope, nil
	}

	return nil, &UnavailableError{Attempts: retries + 1, StatusCode: lastStatus, Err: lastErr}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// upstreamMessage extracts the store's error message when the body is a
// JSON object with an "error" key, falling back to the raw status line.
func upstreamMessage(body []byte, statusLine string) string {
	var decoded struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error != "" {
		return decoded.Error
	}
	return statusLine
}
