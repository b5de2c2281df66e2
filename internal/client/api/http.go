package api

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

	"github.com/dmitrijs2005/traintrack/internal/client/models"
)

// HTTPClient implements Client over REST with JSON bodies and bearer auth.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

const defaultTimeout = 15 * time.Second

// NewHTTPClient returns an HTTPClient for the given base URL. The timeout
// bounds every call; the sync engine relies on it to eventually free the
// pass mutex on a hung connection.
func NewHTTPClient(baseURL string, tokens TokenSource) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
	}
}

type idResponse struct {
	ID int64 `json:"id"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// do issues one request and decodes the JSON response into out (if out is
// non-nil). Error mapping: transport failure before a connection is
// established -> ErrOffline; failure after the request may have been sent
// -> ErrAmbiguous; 401 -> token cleared and ErrUnauthorized; other non-2xx
// -> *StatusError.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.mapTransportError(method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		_ = c.tokens.Clear(ctx)
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// mapTransportError classifies a client-side transport failure. A timeout
// on a mutating request means the server may already have applied it.
func (c *HTTPClient) mapTransportError(method string, err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() && method != http.MethodGet && method != http.MethodHead {
		return fmt.Errorf("%w: %s", ErrAmbiguous, uerr.Err)
	}
	return fmt.Errorf("%w: %s", ErrOffline, err)
}

// Ping considers any HTTP response, even an error status, proof of
// connectivity.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrOffline, err)
	}
	resp.Body.Close()
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, creds Credentials) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

func (c *HTTPClient) Register(ctx context.Context, creds Credentials) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", creds, &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

func (c *HTTPClient) GetProfile(ctx context.Context) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, http.MethodPut, "/profile", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListReferenceItems(ctx context.Context) ([]models.ReferenceItem, error) {
	var out []models.ReferenceItem
	if err := c.do(ctx, http.MethodGet, "/reference-items", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateReferenceItem(ctx context.Context, item *models.ReferenceItem) (*models.ReferenceItem, error) {
	var out models.ReferenceItem
	if err := c.do(ctx, http.MethodPost, "/reference-items", item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListPlans(ctx context.Context, includeArchived bool) ([]models.Plan, error) {
	path := "/plans"
	if includeArchived {
		path += "?include_archived=true"
	}
	var out []models.Plan
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreatePlan(ctx context.Context, p *models.Plan) (*models.Plan, error) {
	var out models.Plan
	if err := c.do(ctx, http.MethodPost, "/plans", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdatePlan(ctx context.Context, p *models.Plan) (*models.Plan, error) {
	var out models.Plan
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/plans/%d", p.ID), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ArchivePlan(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/plans/%d/archive", id), nil, nil)
}

func (c *HTTPClient) RestorePlan(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/plans/%d/restore", id), nil, nil)
}

func (c *HTTPClient) DeletePlan(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/plans/%d", id), nil, nil)
}

func (c *HTTPClient) ListActivities(ctx context.Context, limit int) ([]RemoteActivity, error) {
	var out []RemoteActivity
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/activities?limit=%d", limit), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateActivity(ctx context.Context, req *ActivityCreate) (int64, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/activities", req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *HTTPClient) UpdateActivity(ctx context.Context, remoteID int64, req *ActivityUpdate) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/activities/%d", remoteID), req, nil)
}

func (c *HTTPClient) CreateEntry(ctx context.Context, req *EntryCreate) (int64, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/activity-entries", req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *HTTPClient) UpdateEntry(ctx context.Context, remoteID int64, req *EntryUpdate) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/activity-entries/%d", remoteID), req, nil)
}

func (c *HTTPClient) SubmitOutbox(ctx context.Context, events []models.OutboxEvent) error {
	return c.do(ctx, http.MethodPost, "/outbox-batch", events, nil)
}
