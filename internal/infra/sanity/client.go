// Package sanity is a minimal client for the Sanity HTTP data API: document
// lookup by id and the create, createOrReplace and patch mutations.
package sanity

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

	"github.com/pkg/errors"
)

const (
	DefaultDataset    = "production"
	DefaultAPIVersion = "2023-05-30"
	defaultTimeout    = 30 * time.Second
)

type Config struct {
	ProjectID  string
	Dataset    string
	Token      string
	APIVersion string
	// BaseURL replaces https://<project>.api.sanity.io when set.
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	http    *http.Client
	baseURL string
	dataset string
	token   string
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sanity: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Mutation is one entry of a mutate request, e.g. {"create": doc}.
type Mutation map[string]any

type MutationResult struct {
	ID        string `json:"id"`
	Operation string `json:"operation"`
}

type MutateResponse struct {
	TransactionID string           `json:"transactionId"`
	Results       []MutationResult `json:"results"`
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		if cfg.ProjectID == "" {
			return nil, errors.New("sanity project id not set")
		}
		base = "https://" + cfg.ProjectID + ".api.sanity.io"
	}
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	dataset := cfg.Dataset
	if dataset == "" {
		dataset = DefaultDataset
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: base + "/v" + strings.TrimPrefix(version, "v"),
		dataset: dataset,
		token:   cfg.Token,
	}, nil
}

// GetDocument fetches a document by id into out, which may be nil. It
// reports false when the document does not exist.
func (c *Client) GetDocument(ctx context.Context, id string, out any) (bool, error) {
	path := "/data/doc/" + url.PathEscape(c.dataset) + "/" + url.PathEscape(id)

	var resp struct {
		Documents []json.RawMessage `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return false, errors.Wrapf(err, "get document %s", id)
	}
	if len(resp.Documents) == 0 {
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal(resp.Documents[0], out); err != nil {
			return true, errors.Wrapf(err, "decode document %s", id)
		}
	}
	return true, nil
}

func (c *Client) Create(ctx context.Context, doc any) (string, error) {
	return c.mutateOne(ctx, Mutation{"create": doc})
}

func (c *Client) CreateOrReplace(ctx context.Context, doc any) (string, error) {
	return c.mutateOne(ctx, Mutation{"createOrReplace": doc})
}

// Patch sets the given fields on an existing document, leaving other fields
// untouched.
func (c *Client) Patch(ctx context.Context, id string, set map[string]any) (string, error) {
	return c.mutateOne(ctx, Mutation{"patch": map[string]any{"id": id, "set": set}})
}

// Mutate commits the mutations in one transaction.
func (c *Client) Mutate(ctx context.Context, mutations ...Mutation) (*MutateResponse, error) {
	body, err := json.Marshal(map[string]any{"mutations": mutations})
	if err != nil {
		return nil, errors.Wrap(err, "encode mutations")
	}

	path := "/data/mutate/" + url.PathEscape(c.dataset) + "?returnIds=true&visibility=sync"
	var resp MutateResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, errors.Wrap(err, "mutate")
	}
	return &resp, nil
}

func (c *Client) mutateOne(ctx context.Context, m Mutation) (string, error) {
	resp, err := c.Mutate(ctx, m)
	if err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
