package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"healthline/internal/domain"
	"healthline/internal/session"
)

// APIError is a non-2xx answer from the server. Reply is only set by /chat,
// which still carries a displayable fallback text on failure.
type APIError struct {
	Status  int
	Message string
	Reply   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

var ErrNotSignedIn = errors.New("not signed in")

type Patient struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Symptoms  string `json:"symptoms"`
	CreatedAt string `json:"createdAt"`
}

type NewPatient struct {
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Symptoms string `json:"symptoms"`
	UserID   int64  `json:"userId,omitempty"`
}

type Export struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Count    int    `json:"count"`
}

type ExportObject struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

type userPayload struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

func (u userPayload) toSession() session.User {
	return session.User{ID: u.ID, Email: u.Email, Role: u.Role}
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL. A nil httpClient gets
// a traced client with a 30 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) Register(ctx context.Context, email, password, role string) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	body := map[string]string{"email": email, "password": password, "role": role}
	if err := c.do(ctx, nil, http.MethodPost, "/register", body, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// Login authenticates and returns the signed-in session built from s.
func (c *Client) Login(ctx context.Context, s session.State, email, password string) (session.State, error) {
	var out struct {
		User  userPayload `json:"user"`
		Token string      `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, nil, http.MethodPost, "/login", body, &out); err != nil {
		return s, err
	}
	return s.Login(out.User.toSession(), out.Token), nil
}

func (c *Client) Me(ctx context.Context, s session.State) (session.User, error) {
	var out userPayload
	if err := c.doAuthed(ctx, s, http.MethodGet, "/me", nil, &out); err != nil {
		return session.User{}, err
	}
	return out.toSession(), nil
}

func (c *Client) ListPatients(ctx context.Context, s session.State) ([]Patient, error) {
	var out []Patient
	if err := c.doAuthed(ctx, s, http.MethodGet, "/patients", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePatient(ctx context.Context, s session.State, in NewPatient) (Patient, error) {
	var out Patient
	if err := c.doAuthed(ctx, s, http.MethodPost, "/patients", in, &out); err != nil {
		return Patient{}, err
	}
	return out, nil
}

func (c *Client) GetPatient(ctx context.Context, s session.State, id int64) (Patient, error) {
	var out Patient
	if err := c.doAuthed(ctx, s, http.MethodGet, "/patients/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return Patient{}, err
	}
	return out, nil
}

func (c *Client) DeletePatient(ctx context.Context, s session.State, id int64) error {
	return c.doAuthed(ctx, s, http.MethodDelete, "/patients/"+strconv.FormatInt(id, 10), nil, nil)
}

// Chat returns the assistant reply. On upstream failure the returned error is
// an *APIError whose Reply holds the fallback text.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var out struct {
		Reply string `json:"reply"`
	}
	if err := c.do(ctx, nil, http.MethodPost, "/chat", map[string]string{"message": message}, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

func (c *Client) Export(ctx context.Context, s session.State) (Export, error) {
	var out Export
	if err := c.doAuthed(ctx, s, http.MethodPost, "/exports", nil, &out); err != nil {
		return Export{}, err
	}
	return out, nil
}

func (c *Client) ListExports(ctx context.Context, s session.State) ([]ExportObject, error) {
	var out []ExportObject
	if err := c.doAuthed(ctx, s, http.MethodGet, "/exports", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doAuthed(ctx context.Context, s session.State, method, path string, in, out any) error {
	if !s.Authenticated() {
		return ErrNotSignedIn
	}
	return c.do(ctx, &s, method, path, in, out)
}

func (c *Client) do(ctx context.Context, s *session.State, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s != nil {
		if token := s.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		// older servers only understand the identity headers
		if id, ok := s.Identity(); ok {
			req.Header.Set("user-id", strconv.FormatInt(id.UserID, 10))
			req.Header.Set("user-role", string(id.Role))
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
			Reply string `json:"reply"`
		}
		if json.Unmarshal(raw, &errBody) == nil {
			apiErr.Message = errBody.Error
			apiErr.Reply = errBody.Reply
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
