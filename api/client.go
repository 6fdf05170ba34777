package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// Call describes one finished backend request, for metrics.
type Call struct {
	Method   string
	Path     string
	Status   int
	Duration time.Duration
	Err      error
}

// Client talks to the backend without credentials.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
	observe    func(Call)
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithObserver registers fn to receive every finished call.
func WithObserver(fn func(Call)) Option {
	return func(c *Client) { c.observe = fn }
}

// New creates a client rooted at baseURL, e.g. "https://jobs.example.com/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent: "goboard",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	token       string
}

func jsonRequest(method, path string, body any) (request, error) {
	r := request{method: method, path: path}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return r, fmt.Errorf("api: marshal request body: %w", err)
		}
		r.body = bytes.NewReader(data)
		r.contentType = "application/json"
	}
	return r, nil
}

func (c *Client) do(ctx context.Context, r request) (*envelope, error) {
	target := c.baseURL.String() + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	env, status, err := c.roundTrip(req, r)
	if c.observe != nil {
		c.observe(Call{Method: r.method, Path: r.path, Status: status, Duration: time.Since(start), Err: err})
	}
	return env, err
}

func (c *Client) roundTrip(req *http.Request, r request) (*envelope, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("api: %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("api: read response: %w", err)
	}

	var env envelope
	decodeErr := error(nil)
	if len(bytes.TrimSpace(body)) > 0 {
		decodeErr = json.Unmarshal(body, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &Error{
			Status:  resp.StatusCode,
			Message: env.Message,
			Method:  r.method,
			Path:    r.path,
		}
	}
	if decodeErr != nil {
		return nil, resp.StatusCode, fmt.Errorf("api: decode response: %w", decodeErr)
	}
	if env.Success != nil && !*env.Success {
		return nil, resp.StatusCode, &Error{Status: resp.StatusCode, Message: env.Message, Method: r.method, Path: r.path}
	}
	return &env, resp.StatusCode, nil
}

func decodeData(env *envelope, out any) error {
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("api: decode data: %w", err)
	}
	return nil
}

// Upload is a file part of a multipart request.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Body        io.Reader
}

func multipartRequest(method, path string, fields [][2]string, files []Upload) (request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return request{}, fmt.Errorf("api: write field %s: %w", f[0], err)
		}
	}
	for _, up := range files {
		if up.Body == nil {
			continue
		}
		part, err := w.CreatePart(filePartHeader(up))
		if err != nil {
			return request{}, fmt.Errorf("api: create part %s: %w", up.Field, err)
		}
		if _, err := io.Copy(part, up.Body); err != nil {
			return request{}, fmt.Errorf("api: copy part %s: %w", up.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return request{}, fmt.Errorf("api: close multipart: %w", err)
	}
	return request{
		method:      method,
		path:        path,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func filePartHeader(up Upload) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(up.Field), quoteEscaper.Replace(up.Filename)))
	ct := up.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	return h
}
