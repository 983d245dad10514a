package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"

	"teleecho/internal/models"
)

const (
	DefaultBaseURL  = "http://127.0.0.1:8020"
	LoginPath       = "/user/login"
	RegisterPath    = "/user/register"
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 1 << 20
)

// ErrMissingToken is returned when a successful login response carries no token.
var ErrMissingToken = errors.New("login response has no token")

// Client talks to the external user service. It does not retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each request. It applies regardless of option order and
// never modifies a client passed to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: cleanhttp.DefaultPooledClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

type requestIDKey struct{}

// WithRequestID attaches id to ctx; outgoing requests forward it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login posts the credentials url-encoded and returns the issued token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	body := "username=" + url.QueryEscape(creds.Username) +
		"&password=" + url.QueryEscape(creds.Password)

	respBody, err := c.post(ctx, LoginPath, "application/x-www-form-urlencoded", strings.NewReader(body))
	if err != nil {
		return "", err
	}

	var resp loginResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if resp.Token == "" {
		return "", ErrMissingToken
	}
	return resp.Token, nil
}

// Register posts the profile as multipart form data. Each field is written
// exactly once.
func (c *Client) Register(ctx context.Context, profile models.RegistrationProfile) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"username", profile.Username},
		{"firstname", profile.Firstname},
		{"lastname", profile.Lastname},
		{"phone", profile.Phone},
		{"password", profile.Password},
		{"profile", profile.Profile},
		{"bio", profile.Bio},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	respBody, err := c.post(ctx, RegisterPath, mw.FormDataContentType(), &buf)
	if err != nil {
		return err
	}

	// The success body carries nothing we use, but it must still be JSON.
	if !json.Valid(bytes.TrimSpace(respBody)) {
		return errors.New("decode register response: invalid JSON")
	}
	return nil
}

// post sends body to path and returns the response body of a 2xx answer.
// Any other status is decoded into a *ServiceError.
func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeServiceError(resp.StatusCode, respBody)
	}
	return respBody, nil
}
