// Package api is the client's request pipeline. Every call to the backend
// goes through an Executor, which carries the session cookie, classifies
// failures into *APIError values, and performs a single refresh-and-retry
// when a protected call comes back with 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/fintrack/internal/logging"
)

const (
	RefreshPath  = "/auth/refresh"
	LoginPath    = "/auth/login"
	RegisterPath = "/auth/register"
	LogoutPath   = "/auth/logout"
	MePath       = "/auth/me"

	RequestIDHeader = "X-Request-ID"
)

// Paths that never trigger a refresh on 401.
var identityPaths = map[string]struct{}{
	LoginPath:    {},
	RegisterPath: {},
	RefreshPath:  {},
	LogoutPath:   {},
}

func isIdentityPath(path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	_, ok := identityPaths[strings.TrimRight(path, "/")]
	return ok
}

// Client is what services need from the pipeline.
type Client interface {
	Do(ctx context.Context, req Request) (*Response, error)
	Upload(ctx context.Context, path string, form *Form) (*Response, error)
	OnSessionExpired(fn func(ctx context.Context))
}

// Request is a JSON call relative to the base URL. An empty Method means GET.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// Response is a successful (2xx) result.
type Response struct {
	Status int
	Header http.Header
	// Body is the parsed JSON payload, {"message": text} for non-JSON
	// payloads, or nil when the body was empty.
	Body any

	raw []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the raw JSON payload into v. An empty payload leaves v
// untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.raw, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type Option func(*Executor)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is added
// when the client has none.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) {
		cp := *c
		e.http = &cp
	}
}

func WithLogger(l logging.Logger) Option {
	return func(e *Executor) {
		e.log = l
	}
}

// WithTimeout bounds every single HTTP round trip. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.timeout = d
	}
}

// Executor performs calls against a base URL with cookie-based credentials.
// It is safe for concurrent use; concurrent 401s share one refresh call.
type Executor struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
	timeout time.Duration

	refresh singleflight.Group

	mu        sync.RWMutex
	onExpired func(ctx context.Context)
}

// New creates an Executor for baseURL (for example http://localhost:8080/api).
func New(baseURL string, opts ...Option) (*Executor, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	e := &Executor{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.http.Jar == nil {
		e.http.Jar = jar
	}
	if e.timeout > 0 {
		e.http.Timeout = e.timeout
	}
	return e, nil
}

// OnSessionExpired installs fn to run whenever a refresh attempt is
// rejected by the server. It replaces any previously installed hook.
func (e *Executor) OnSessionExpired(fn func(ctx context.Context)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onExpired = fn
}

// Do performs req. On a 401 from a non-identity path it refreshes the
// session once and repeats req once, returning the outcome of the repeat
// whatever it is. If the refresh itself is rejected the returned error
// matches ErrSessionExpired.
func (e *Executor) Do(ctx context.Context, req Request) (*Response, error) {
	resp, err := e.send(ctx, req, 1)
	if err != nil {
		return nil, err
	}

	if resp.Status == http.StatusUnauthorized && !isIdentityPath(req.Path) {
		if err := e.refreshSession(ctx); err != nil {
			return nil, err
		}
		resp, err = e.send(ctx, req, 2)
		if err != nil {
			return nil, err
		}
	}

	return finish(resp)
}

// Upload posts a multipart form to path. It shares Do's error
// classification, but a 401 is final: uploads are never resubmitted.
func (e *Executor) Upload(ctx context.Context, path string, form *Form) (*Response, error) {
	if form == nil {
		return nil, requestError("upload without a form", nil)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(form.body))
	if err != nil {
		return nil, transportError(err)
	}
	hreq.Header.Set("Content-Type", form.contentType)
	hreq.Header.Set("Accept", "application/json")

	resp, err := e.roundTrip(ctx, hreq, 1)
	if err != nil {
		return nil, err
	}
	return finish(resp)
}

func finish(resp *Response) (*Response, error) {
	if !resp.OK() {
		return nil, httpError(resp)
	}
	return resp, nil
}

func (e *Executor) send(ctx context.Context, req Request, attempt int) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, requestError("encode request body", err)
		}
		body = bytes.NewReader(b)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	hreq, err := http.NewRequestWithContext(ctx, method, e.baseURL+req.Path, body)
	if err != nil {
		return nil, transportError(err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	hreq.Header.Set("Accept", "application/json")
	if body != nil && hreq.Header.Get("Content-Type") == "" {
		hreq.Header.Set("Content-Type", "application/json")
	}

	return e.roundTrip(ctx, hreq, attempt)
}

func (e *Executor) roundTrip(ctx context.Context, hreq *http.Request, attempt int) (*Response, error) {
	id := uuid.NewString()
	hreq.Header.Set(RequestIDHeader, id)

	hresp, err := e.http.Do(hreq)
	if err != nil {
		return nil, e.failure(ctx, hreq, err)
	}
	defer hresp.Body.Close()

	raw, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, e.failure(ctx, hreq, err)
	}

	e.log.Debug(ctx, "request done",
		"request_id", id,
		"method", hreq.Method,
		"path", hreq.URL.Path,
		"status", hresp.StatusCode,
		"attempt", attempt,
	)

	return &Response{
		Status: hresp.StatusCode,
		Header: hresp.Header,
		Body:   parseBody(raw),
		raw:    raw,
	}, nil
}

func (e *Executor) failure(ctx context.Context, hreq *http.Request, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		e.log.Debug(ctx, "request canceled", "method", hreq.Method, "path", hreq.URL.Path)
		return ErrCanceled
	}
	e.log.Warn(ctx, "request failed", "method", hreq.Method, "path", hreq.URL.Path, logging.Err(err))
	return transportError(err)
}

// refreshSession waits for the shared refresh call. The refresh runs
// detached from ctx so that a caller giving up does not abort it.
func (e *Executor) refreshSession(ctx context.Context) error {
	ch := e.refresh.DoChan(RefreshPath, func() (any, error) {
		return nil, e.doRefresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return contextError(ctx)
	case res := <-ch:
		return res.Err
	}
}

func (e *Executor) doRefresh(ctx context.Context) error {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+RefreshPath, nil)
	if err != nil {
		return transportError(err)
	}
	hreq.Header.Set("Accept", "application/json")

	resp, err := e.roundTrip(ctx, hreq, 1)
	if err != nil {
		return err
	}
	if resp.OK() {
		e.log.Debug(ctx, "session refreshed")
		return nil
	}

	apiErr := httpError(resp)
	apiErr.expired = true
	e.log.Info(ctx, "session refresh rejected", "status", resp.Status)

	e.mu.RLock()
	hook := e.onExpired
	e.mu.RUnlock()
	if hook != nil {
		hook(ctx)
	}
	return apiErr
}

func parseBody(raw []byte) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err == nil {
		return v
	}
	return map[string]any{"message": string(trimmed)}
}
