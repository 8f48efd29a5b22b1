package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is used when no backend URL is configured.
const DefaultBaseURL = "http://localhost:8000"

const (
	availableGraphemesPath = "/hieroglyphs/get_available_graphemes"
	confirmPath            = "/hieroglyphs/confirm"
	randomHieroglyphPath   = "/hieroglyphs/random_hieroglyph"
	translatePath          = "/translation/translate/"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 1 << 20
)

var (
	// ErrUnauthorized is returned when the backend responds with 401 or 403.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when the backend responds with 404.
	ErrNotFound = errors.New("not found")
)

// APIError carries a non-2xx backend response. The body is kept verbatim so callers can show it.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("request failed: %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("request failed: %s", e.Status)
}

// Is lets errors.Is match ErrUnauthorized and ErrNotFound by status code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Client provides access to the hieroglyph backend REST API.
type Client struct {
	base   string
	http   *http.Client
	token  string
	logger zerolog.Logger
}

// Option customises a Client.
type Option func(c *Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithToken sends the token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithLogger sets the logger used for per-request events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{base: base, http: &http.Client{Timeout: 15 * time.Second}, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalised backend base URL.
func (c *Client) BaseURL() string { return c.base }

// AvailableGraphemes returns graphemes that can still be combined with the given partial selection.
func (c *Client) AvailableGraphemes(ctx context.Context, graphemes []string) ([]string, error) {
	var out graphemeResponse
	if err := c.doJSON(ctx, http.MethodPost, c.base+availableGraphemesPath, graphemeRequest{Graphemes: nonNil(graphemes)}, &out); err != nil {
		return nil, err
	}
	return nonNil(out.AvailableGraphemes), nil
}

// ConfirmGraphemes asks whether the selected graphemes compose hieroglyph.
func (c *Client) ConfirmGraphemes(ctx context.Context, hieroglyph string, graphemes []string) (bool, error) {
	if strings.TrimSpace(hieroglyph) == "" {
		return false, fmt.Errorf("hieroglyph is required")
	}
	q := neturl.Values{}
	q.Set("hieroglyph", hieroglyph)
	var out confirmResponse
	if err := c.doJSON(ctx, http.MethodPost, c.base+confirmPath+"?"+q.Encode(), graphemeRequest{Graphemes: nonNil(graphemes)}, &out); err != nil {
		return false, err
	}
	return out.Confirm, nil
}

// RandomHieroglyph fetches a random hieroglyph. The backend answers with a JSON string;
// a bare text body is accepted as well.
func (c *Client) RandomHieroglyph(ctx context.Context) (string, error) {
	data, err := c.do(ctx, http.MethodGet, c.base+randomHieroglyphPath, nil)
	if err != nil {
		return "", err
	}
	var ret string
	if err := json.Unmarshal(data, &ret); err != nil {
		ret = string(data)
	}
	ret = strings.TrimSpace(ret)
	if ret == "" {
		return "", fmt.Errorf("backend returned empty hieroglyph")
	}
	return ret, nil
}

// Translate looks up pinyin and meanings for text.
func (c *Client) Translate(ctx context.Context, text string) ([]Token, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is required")
	}
	var out translationResponse
	if err := c.doJSON(ctx, http.MethodPost, c.base+translatePath, translationRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, payload, out any) error {
	data, err := c.do(ctx, method, url, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", pathOf(url), err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Str("op", pathOf(url)).Err(err).Dur("dur", time.Since(started)).Msg("backend call failed")
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.logger.Debug().Str("op", pathOf(url)).Int("status", resp.StatusCode).Dur("dur", time.Since(started)).Msg("backend call")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

func pathOf(url string) string {
	if u, err := neturl.Parse(url); err == nil {
		return u.Path
	}
	return url
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
