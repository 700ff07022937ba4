// ABOUTME: HTTP client for the AcademiX student API
// ABOUTME: Wraps calendar and document calls with typed error handling for CLI and TUI use

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/academix/academix-cli/internal/envelope"
)

const (
	addClassPath       = "/api/v1/student/addClass"
	uploadDocumentPath = "/api/v1/student/uploadDocument"
	listDocumentsPath  = "/api/v1/student/getAllDocuments"
	deleteDocumentPath = "/api/v1/student/deleteDocument/"
	logoutPath         = "/api/v1/student/logout"
)

// DefaultTimeout bounds every request unless WithTimeout overrides it.
const DefaultTimeout = 30 * time.Second

// Authorizer decorates calendar requests with credentials.
type Authorizer interface {
	Apply(ctx context.Context, req *http.Request)
}

// Client is the API client for the AcademiX backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       Authorizer
}

// Option configures a Client.
type Option func(*Client) error

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d > 0 {
			c.httpClient.Timeout = d
		}
		return nil
	}
}

// WithAuthorizer sets the decorator applied to calendar requests.
func WithAuthorizer(a Authorizer) Option {
	return func(c *Client) error {
		c.auth = a
		return nil
	}
}

// WithSessionCookie seeds the cookie jar with the student session cookie
// given as "name=value". Document and logout calls rely on it.
func WithSessionCookie(raw string) Option {
	return func(c *Client) error {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		name, value, ok := strings.Cut(raw, "=")
		if !ok || name == "" {
			return fmt.Errorf("session cookie must look like name=value")
		}
		u, err := url.Parse(c.baseURL)
		if err != nil {
			return fmt.Errorf("invalid api url: %w", err)
		}
		c.httpClient.Jar.SetCookies(u, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
		return nil
	}
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BaseURL returns the backend address requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ClassPayload is the addClass request body. Times are ISO-8601 UTC.
type ClassPayload struct {
	SubjectName   string `json:"subject_name"`
	SubjectCode   string `json:"subject_code"`
	Classroom     string `json:"classroom"`
	ProfessorName string `json:"professor_name"`
	Day           string `json:"day"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

// AddClassResponse is the addClass success body.
type AddClassResponse struct {
	Message json.RawMessage           `json:"message,omitempty"`
	Tokens  *envelope.RefreshedTokens `json:"tokens,omitempty"`
}

// MessageText returns the message when the backend sent a plain string.
func (r *AddClassResponse) MessageText() string {
	var s string
	if len(r.Message) > 0 && json.Unmarshal(r.Message, &s) == nil {
		return s
	}
	return ""
}

// Document is one uploaded file as listed by the backend.
type Document struct {
	ID           string `json:"_id,omitempty"`
	AltID        string `json:"id,omitempty"`
	Name         string `json:"name"`
	OriginalName string `json:"originalName,omitempty"`
	URL          string `json:"url"`
}

// DisplayName is the name used to pick an icon: the original upload name if known.
func (d Document) DisplayName() string {
	if d.OriginalName != "" {
		return d.OriginalName
	}
	return d.Name
}

type documentsResponse struct {
	Message *struct {
		Documents []Document `json:"documents"`
	} `json:"message"`
}

// AddClass calls POST /api/v1/student/addClass with calendar credentials attached
func (c *Client) AddClass(ctx context.Context, payload *ClassPayload) (*AddClassResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+addClassPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.auth != nil {
		c.auth.Apply(ctx, req)
	}

	var out AddClassResponse
	if err := c.do(ctx, req, &out, "Something went wrong"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDocuments calls GET /api/v1/student/getAllDocuments
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+listDocumentsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var out documentsResponse
	if err := c.do(ctx, req, &out, "Failed to fetch documents"); err != nil {
		return nil, err
	}
	if out.Message == nil || out.Message.Documents == nil {
		return []Document{}, nil
	}
	return out.Message.Documents, nil
}

// UploadDocument calls POST /api/v1/student/uploadDocument as multipart form data
func (c *Client) UploadDocument(ctx context.Context, name, filename string, content io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("name", name); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	part, err := mw.CreateFormFile("localDocument", filename)
	if err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadDocumentPath, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(ctx, req, nil, "Upload failed")
}

// DeleteDocument calls DELETE /api/v1/student/deleteDocument/{id}
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+deleteDocumentPath+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(ctx, req, nil, "Failed to delete document")
}

// Logout calls POST /api/v1/student/logout
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+logoutPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(ctx, req, nil, "Logout failed")
}

// do sends req and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, req *http.Request, out any, fallback string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp, fallback)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindTransport, Status: resp.StatusCode, Message: "invalid response from backend", Err: err}
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return &Error{Kind: KindTransport, Message: "request canceled", Err: err}
	}
	var netErr net.Error
	if ctx.Err() == context.DeadlineExceeded || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTransport, Message: "request timed out", Err: err}
	}
	return &Error{Kind: KindTransport, Message: fmt.Sprintf("cannot connect to backend at %s", c.baseURL), Err: err}
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response, fallback string) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return classify(resp.StatusCode, ErrorResponse{}, fmt.Sprintf("%s (status %d)", fallback, resp.StatusCode))
	}
	return classify(resp.StatusCode, errResp, fallback)
}
