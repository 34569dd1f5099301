// Package backend talks to the portfolio API that owns the profile, project,
// experience and contact records.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Zachkp/portfolio/internal/metrics"
	"github.com/Zachkp/portfolio/internal/portfolio"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:5000"

const (
	endpointProfile     = "/api/profile"
	endpointProjects    = "/api/projects"
	endpointExperiences = "/api/experiences"
	endpointContact     = "/api/contact"
	endpointResume      = "/api/resume"
	endpointHealth      = "/api/health"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Snapshot is the data fetched when the page mounts.
type Snapshot struct {
	Profile     portfolio.Profile
	Projects    []portfolio.Project
	Experiences []portfolio.Experience
}

// Client is a backend API client. No request is ever retried.
type Client struct {
	baseURL string
	http    Doer
	uniform bool
}

// Option configures a Client.
type Option func(*Client)

// WithDoer sets the transport used for requests.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithUniformFallback makes Load substitute defaults for every failed
// endpoint, including transport and decode failures, instead of failing the
// whole batch.
func WithUniformFallback() Option {
	return func(c *Client) { c.uniform = true }
}

// New creates a Client for baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResumeURL is the link target for the resume download. It is never fetched.
func (c *Client) ResumeURL() string {
	return c.baseURL + endpointResume
}

// Load fetches the profile, projects and experiences concurrently and waits
// for all three. A non-2xx response is replaced by its default (the fallback
// profile or an empty list). Any transport or decode error fails the whole
// load unless the client uses uniform fallback.
func (c *Client) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		Profile:     portfolio.FallbackProfile(),
		Projects:    []portfolio.Project{},
		Experiences: []portfolio.Experience{},
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Profile, err = fetch(gCtx, c, endpointProfile, portfolio.FallbackProfile())
		return err
	})
	g.Go(func() error {
		var err error
		snap.Projects, err = fetch(gCtx, c, endpointProjects, []portfolio.Project{})
		return err
	})
	g.Go(func() error {
		var err error
		snap.Experiences, err = fetch(gCtx, c, endpointExperiences, []portfolio.Experience{})
		return err
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// fetch GETs endpoint and decodes the body. A non-2xx status or a JSON null
// body yields def.
func fetch[T any](ctx context.Context, c *Client, endpoint string, def T) (T, error) {
	name := strings.TrimPrefix(endpoint, "/api/")

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return fail(c, name, fmt.Errorf("fetching %s: %w", name, err), def)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		io.Copy(io.Discard, resp.Body)
		slog.Debug("backend returned non-2xx, using default", "endpoint", endpoint, "status", resp.StatusCode)
		metrics.ObserveFetch(name, metrics.OutcomeFallback)
		return def, nil
	}

	var v *T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return fail(c, name, fmt.Errorf("decoding %s: %w", name, err), def)
	}
	metrics.ObserveFetch(name, metrics.OutcomeOK)
	if v == nil {
		return def, nil
	}
	return *v, nil
}

// fail reports err, or swallows it and returns def under uniform fallback.
func fail[T any](c *Client, name string, err error, def T) (T, error) {
	if c.uniform {
		slog.Warn("backend request failed, using default", "endpoint", name, "error", err)
		metrics.ObserveFetch(name, metrics.OutcomeFallback)
		return def, nil
	}
	metrics.ObserveFetch(name, metrics.OutcomeFailed)
	return def, err
}

// SubmitContact posts the form to the backend. Any 2xx response is success.
// A non-2xx response yields an *APIError whose message comes from the body's
// "error" field, or a generic message when the field is missing.
func (c *Client) SubmitContact(ctx context.Context, form portfolio.FormState) error {
	body, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("encoding contact form: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointContact, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building contact request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending contact form: %w", err)
	}
	defer resp.Body.Close()

	return handleResponse(resp)
}

// Health checks the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, endpointHealth)
	if err != nil {
		return fmt.Errorf("checking health: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if !isSuccess(resp.StatusCode) {
		return &StatusError{Endpoint: endpointHealth, StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}

// handleResponse turns a contact response into nil or an error.
func handleResponse(resp *http.Response) error {
	if isSuccess(resp.StatusCode) {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	var apiErr APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		return fmt.Errorf("decoding error response (status %d): %w", resp.StatusCode, err)
	}
	if apiErr.Message == "" {
		apiErr.Message = portfolio.MessageFailed
	}
	apiErr.StatusCode = resp.StatusCode
	return &apiErr
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
