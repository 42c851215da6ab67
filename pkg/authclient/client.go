// Package authclient is a Go client for the Ceasar auth API.
//
// It wraps the three public endpoints and keeps the wire format in one
// place so tools like ceasarctl do not hand-roll JSON.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// isoMillis is the timestamp layout used on the wire.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// APIError is returned when the server answers with a non-success status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth api: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// User is the identity carried inside a token.
type User struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
}

// Session is a token obtained from Login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Remaining is the time left before the session expires, never negative.
func (s Session) Remaining(now time.Time) time.Duration {
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Validation is the server's verdict on a token. Rejected tokens are a
// normal outcome, not an error.
type Validation struct {
	Valid     bool
	Message   string
	User      *User
	ExpiresAt time.Time // zero unless valid or expired
}

// Client talks to a Ceasar auth server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New returns a client for the server at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type wireError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type wireLogin struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

type wireValidation struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message"`
	User      *User  `json:"user"`
	ExpiresAt string `json:"expiresAt"`
}

// Register creates an account. A taken username yields an *APIError with
// status 400.
func (c *Client) Register(ctx context.Context, username, password string) error {
	status, body, err := c.post(ctx, "/register", credentials{Username: username, Password: password})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apiError(status, body)
	}
	return nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	status, body, err := c.post(ctx, "/login", credentials{Username: username, Password: password})
	if err != nil {
		return Session{}, err
	}
	if status != http.StatusOK {
		return Session{}, apiError(status, body)
	}

	var resp wireLogin
	if err := json.Unmarshal(body, &resp); err != nil {
		return Session{}, fmt.Errorf("decode login response: %w", err)
	}
	exp, err := parseTime(resp.ExpiresAt)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: resp.Token, ExpiresAt: exp}, nil
}

// Validate asks the server whether token is valid.
func (c *Client) Validate(ctx context.Context, token string) (Validation, error) {
	status, body, err := c.post(ctx, "/validate", map[string]string{"token": token})
	if err != nil {
		return Validation{}, err
	}
	switch status {
	case http.StatusOK, http.StatusBadRequest, http.StatusUnauthorized:
	default:
		return Validation{}, apiError(status, body)
	}

	var resp wireValidation
	if err := json.Unmarshal(body, &resp); err != nil {
		return Validation{}, fmt.Errorf("decode validate response: %w", err)
	}
	exp, err := parseTime(resp.ExpiresAt)
	if err != nil {
		return Validation{}, err
	}
	return Validation{Valid: resp.Valid, Message: resp.Message, User: resp.User, ExpiresAt: exp}, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s response: %w", path, err)
	}
	return resp.StatusCode, body, nil
}

func apiError(status int, body []byte) error {
	var w wireError
	msg := http.StatusText(status)
	if json.Unmarshal(body, &w) == nil {
		switch {
		case w.Error != "":
			msg = w.Error
		case w.Message != "":
			msg = w.Message
		}
	}
	return &APIError{StatusCode: status, Message: msg}
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(isoMillis, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse expiresAt %q: %w", s, err)
	}
	return t, nil
}
