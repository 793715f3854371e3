// Package remote is the HTTP client for the shelf collection API. It
// is the only place that talks to the wire; the engine packages
// (directory, scanner, toggle, tracker) consume it through narrow
// interfaces they define themselves.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shelfsync/internal/creds"
	"shelfsync/pkg/faults"
	"shelfsync/pkg/models"
)

const defaultTimeout = 15 * time.Second

// editionPageSize is how many edition ids a single probe page asks
// for; large custom shelves are walked page by page.
const editionPageSize = 200

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Creds   creds.Provider
}

func NewClient(baseURL string, provider creds.Provider) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: defaultTimeout},
		Creds:   provider,
	}
}

type AuthResult struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Register creates an account and returns a fresh token. No credential
// is needed; the remote seeds the account's canonical shelves itself.
func (c *Client) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	var out AuthResult
	payload := map[string]string{"username": username, "email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/register", "", payload, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	payload := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/login", "", payload, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

type shelfListResponse struct {
	Items []models.Shelf `json:"items"`
}

// ListShelves returns the signed-in user's shelves in remote order.
func (c *Client) ListShelves(ctx context.Context) ([]models.Shelf, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	var resp shelfListResponse
	if err := c.do(ctx, http.MethodGet, "/shelves", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) CreateShelf(ctx context.Context, name string, private bool) (models.Shelf, error) {
	token, err := c.token(ctx)
	if err != nil {
		return models.Shelf{}, err
	}
	payload := map[string]any{"name": name, "private": private}
	var out models.Shelf
	err = c.do(ctx, http.MethodPost, "/shelves", token, payload, &out)
	return out, err
}

type editionPageResponse struct {
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
	Items  []string `json:"items"`
}

// ShelfEditions returns every edition id on one shelf, walking the
// paginated contents endpoint until the reported total is reached.
func (c *Client) ShelfEditions(ctx context.Context, shelfID string) ([]string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var out []string
	offset := 0
	for {
		endpoint := fmt.Sprintf("/shelves/%s/editions?limit=%d&offset=%d",
			url.PathEscape(shelfID), editionPageSize, offset)

		var page editionPageResponse
		if err := c.do(ctx, http.MethodGet, endpoint, token, nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.Total {
			break
		}
	}
	return out, nil
}

func (c *Client) AddEdition(ctx context.Context, shelfID, editionID string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	payload := map[string]string{"edition_id": editionID}
	endpoint := "/shelves/" + url.PathEscape(shelfID) + "/add_edition"
	return c.do(ctx, http.MethodPost, endpoint, token, payload, nil)
}

func (c *Client) RemoveEdition(ctx context.Context, shelfID, editionID string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	endpoint := "/shelves/" + url.PathEscape(shelfID) +
		"/remove_edition?edition_id=" + url.QueryEscape(editionID)
	return c.do(ctx, http.MethodDelete, endpoint, token, nil, nil)
}

// GetProgress reads the caller's reading progress for one edition in
// one club. A record the remote has never seen comes back zero-valued
// with status not_started.
func (c *Client) GetProgress(ctx context.Context, clubID, editionID string) (models.ReadingProgress, error) {
	token, err := c.token(ctx)
	if err != nil {
		return models.ReadingProgress{}, err
	}
	endpoint := "/clubs/" + url.PathEscape(clubID) +
		"/progress?edition_id=" + url.QueryEscape(editionID)
	var out models.ReadingProgress
	err = c.do(ctx, http.MethodGet, endpoint, token, nil, &out)
	return out, err
}

// UpdateProgress persists a reconciled progress record to the
// club-scoped resource and returns the stored row.
func (c *Client) UpdateProgress(ctx context.Context, clubID string, p models.ReadingProgress) (models.ReadingProgress, error) {
	token, err := c.token(ctx)
	if err != nil {
		return models.ReadingProgress{}, err
	}
	endpoint := "/clubs/" + url.PathEscape(clubID) + "/progress/update"
	payload := map[string]any{
		"edition_id":   p.EditionID,
		"status":       p.Status,
		"current_page": p.CurrentPage,
	}
	if p.TotalPages != nil {
		payload["total_pages"] = *p.TotalPages
	}
	var out models.ReadingProgress
	err = c.do(ctx, http.MethodPost, endpoint, token, payload, &out)
	return out, err
}

func (c *Client) token(ctx context.Context) (string, error) {
	token, err := c.Creds.Token(ctx)
	if err != nil {
		return "", faults.Wrap(faults.ErrAuthRequired, "credential lookup", "")
	}
	return token, nil
}

// do issues one JSON request and maps failures onto the shared
// taxonomy. Context cancellation passes through untouched so a
// view navigating away is not reported as a remote outage.
func (c *Client) do(ctx context.Context, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = strings.NewReader(string(b))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return context.Canceled
		}
		return faults.Wrap(faults.ErrRemoteUnavailable, method+" "+endpoint, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return faults.Wrap(faults.ErrRemoteUnavailable, method+" "+endpoint, err.Error())
	}

	if kind := faults.FromStatus(resp.StatusCode); kind != nil {
		return faults.Wrap(kind, method+" "+endpoint, remoteMessage(data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return faults.Wrap(faults.ErrRemoteUnavailable, method+" "+endpoint, "bad response body")
	}
	return nil
}

func remoteMessage(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}
