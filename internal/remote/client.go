package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mathschool/sync-core/internal/models"
	"github.com/mathschool/sync-core/pkg/config"
	appErrors "github.com/mathschool/sync-core/pkg/errors"
)

// MaterialsAPI is the consumed remote materials contract. Every call applies
// a bounded timeout; a timeout is indistinguishable from network failure.
type MaterialsAPI interface {
	Fetch(ctx context.Context) ([]models.LearningMaterial, error)
	Create(ctx context.Context, material models.LearningMaterial) (models.LearningMaterial, error)
	Update(ctx context.Context, material models.LearningMaterial) (models.LearningMaterial, error)
	Delete(ctx context.Context, id string) error
}

// Client talks to the remote materials API over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs the API client from remote configuration.
func NewClient(cfg config.RemoteConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Fetch retrieves the full material list.
func (c *Client) Fetch(ctx context.Context) ([]models.LearningMaterial, error) {
	var out []models.LearningMaterial
	if err := c.do(ctx, http.MethodGet, "/materials", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts a new material and returns the canonical server object.
func (c *Client) Create(ctx context.Context, material models.LearningMaterial) (models.LearningMaterial, error) {
	var out models.LearningMaterial
	if err := c.do(ctx, http.MethodPost, "/materials", material, &out); err != nil {
		return models.LearningMaterial{}, err
	}
	return out, nil
}

// Update replaces a material and returns the canonical server object.
func (c *Client) Update(ctx context.Context, material models.LearningMaterial) (models.LearningMaterial, error) {
	var out models.LearningMaterial
	if err := c.do(ctx, http.MethodPut, "/materials/"+material.ID, material, &out); err != nil {
		return models.LearningMaterial{}, err
	}
	return out, nil
}

// Delete removes a material.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/materials/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrNetworkUnavailable.Code, appErrors.ErrNetworkUnavailable.Status, "materials api unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return appErrors.ErrNotFound
	case resp.StatusCode >= 500:
		return appErrors.Clone(appErrors.ErrNetworkUnavailable, fmt.Sprintf("materials api returned %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("materials api rejected request: %d", resp.StatusCode))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrNetworkUnavailable.Code, appErrors.ErrNetworkUnavailable.Status, "decode materials response")
	}
	return nil
}
