// Package ilo implements an authenticated HTTP client for the HP iLO
// management API. It owns the session lifecycle and fetches the raw
// hardware-status documents one scrape needs.
package ilo

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ilometrics/ilo_exporter/internal/logging"
)

const sessionsPath = "/redfish/v1/SessionService/Sessions"

// Config holds the immutable target endpoint settings. It is created once at
// process start and shared read-only across scrapes.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// Insecure accepts the controller's certificate without chain
	// validation. iLO ships with a self-signed certificate, so this is an
	// explicit trust decision for that endpoint, not a blanket default.
	Insecure bool
}

// DocumentKind identifies which vendor endpoint a raw document came from.
type DocumentKind string

const (
	DocThermal DocumentKind = "thermal"
	DocPower   DocumentKind = "power"
	DocSystem  DocumentKind = "system"
)

// Document is one unprocessed hardware-status response. It lives only within
// a single scrape and is never mutated after receipt.
type Document struct {
	Kind     DocumentKind
	Endpoint string
	Body     []byte
}

// healthEndpoints is the ordered minimum document set a full scrape requires.
var healthEndpoints = []struct {
	kind DocumentKind
	path string
}{
	{DocThermal, "/redfish/v1/Chassis/1/Thermal"},
	{DocPower, "/redfish/v1/Chassis/1/Power"},
	{DocSystem, "/redfish/v1/Systems/1"},
}

// sessionState is the explicit session lifecycle tag. Keeping it a tagged
// state rather than a bool makes the single-retry-on-expiry policy testable.
type sessionState int

const (
	sessionNone sessionState = iota
	sessionActive
)

type session struct {
	token    string
	location string
}

// Client talks to one iLO controller. At most one session is active at a
// time; all session acquisition and replacement happens under the mutex, so
// concurrent scrapes never race into redundant logins against the
// controller's limited session slots.
type Client struct {
	baseURL    string
	config     Config
	httpClient *http.Client
	logger     *logging.Logger

	mu      sync.Mutex
	state   sessionState
	session session
}

// NewClient creates a Client for the given target endpoint.
func NewClient(config Config, logger *logging.Logger) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 5 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        1,
		MaxConnsPerHost:     1,
		MaxIdleConnsPerHost: 1,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.Insecure,
		},
	}

	return &Client{
		baseURL: fmt.Sprintf("https://%s:%d", config.Host, config.Port),
		config:  config,
		httpClient: &http.Client{
			Transport: transport,
		},
		logger: logger,
	}
}

// Authenticate creates a new session, replacing any prior one. The caller's
// context bounds the request.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticate(ctx)
}

// authenticate must be called with the mutex held.
func (c *Client) authenticate(ctx context.Context) error {
	c.state = sessionNone
	c.session = session{}

	payload, err := json.Marshal(map[string]string{
		"UserName": c.config.Username,
		"Password": c.config.Password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sessionsPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UnreachableError{Host: c.config.Host, Cause: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Host: c.config.Host, Status: resp.StatusCode}
	default:
		return fmt.Errorf("ilo: session create returned status %d", resp.StatusCode)
	}

	token := resp.Header.Get("X-Auth-Token")
	if token == "" {
		return &AuthError{Host: c.config.Host, Status: resp.StatusCode}
	}

	c.state = sessionActive
	c.session = session{
		token:    token,
		location: resp.Header.Get("Location"),
	}
	c.logger.Debug("created ilo session", "host", c.config.Host)
	return nil
}

// FetchHealthDocuments retrieves the ordered document set needed for a full
// scrape, authenticating lazily on first use. A 401 from any sub-fetch
// triggers exactly one re-authentication and one retry of that sub-fetch.
// The documents retrieved so far are returned alongside the first error, so
// a single failing endpoint does not discard the rest of the scrape.
func (c *Client) FetchHealthDocuments(ctx context.Context) ([]Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == sessionNone {
		if err := c.authenticate(ctx); err != nil {
			return nil, err
		}
	}

	var (
		docs     []Document
		firstErr error
	)
	for _, ep := range healthEndpoints {
		doc, err := c.fetchDocument(ctx, ep.kind, ep.path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		docs = append(docs, doc)
	}
	return docs, firstErr
}

// fetchDocument must be called with the mutex held.
func (c *Client) fetchDocument(ctx context.Context, kind DocumentKind, path string) (Document, error) {
	body, status, err := c.get(ctx, path)
	if err != nil {
		return Document{}, &FetchError{Endpoint: path, Cause: err}
	}

	if status == http.StatusUnauthorized {
		// Session expired on the controller. Re-authenticate once and
		// retry this sub-fetch exactly once.
		c.logger.Debug("ilo session expired, re-authenticating", "endpoint", path)
		if err := c.authenticate(ctx); err != nil {
			return Document{}, &FetchError{Endpoint: path, Cause: err}
		}
		body, status, err = c.get(ctx, path)
		if err != nil {
			return Document{}, &FetchError{Endpoint: path, Cause: err}
		}
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return Document{}, &FetchError{Endpoint: path, Cause: fmt.Errorf("status %d", status)}
	}

	return Document{Kind: kind, Endpoint: path, Body: body}, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if c.state == sessionActive {
		req.Header.Set("X-Auth-Token", c.session.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &UnreachableError{Host: c.config.Host, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &UnreachableError{Host: c.config.Host, Cause: err}
	}
	return body, resp.StatusCode, nil
}

// Close deletes the active session on the controller, if any. Best effort:
// the controller reaps expired sessions on its own.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != sessionActive || c.session.location == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	location := c.session.location
	if len(location) > 0 && location[0] == '/' {
		location = c.baseURL + location
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, location, nil)
	if err != nil {
		return
	}
	req.Header.Set("X-Auth-Token", c.session.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("failed to delete ilo session", "error", err)
	} else {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	c.state = sessionNone
	c.session = session{}
}
