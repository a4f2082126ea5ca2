package bike

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the public inventory API.
const DefaultBaseURL = "https://bikemad-api.vercel.app"

var (
	ErrTransport        = errors.New("inventory unreachable")
	ErrUnexpectedStatus = errors.New("unexpected inventory response")
	ErrNotFound         = errors.New("bike not found")
	ErrMalformed        = errors.New("malformed inventory payload")
)

// FetchError is returned by every failed inventory read.
type FetchError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Inventory reads bicycles from the remote API.
type Inventory interface {
	FetchAll(ctx context.Context) ([]Bicycle, error)
	FetchByID(ctx context.Context, id string) (Bicycle, error)
}

// Client implements Inventory over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retries    int
	backoff    time.Duration
	logger     *slog.Logger
	tracer     trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request, whichever http.Client is in use.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets how many times a failed request is repeated. Only
// transport errors and 5xx responses are retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    10 * time.Second,
		retries:    1,
		backoff:    200 * time.Millisecond,
		logger:     slog.Default(),
		tracer:     otel.Tracer("bikemap/inventory"),
	}
	for _, o := range opts {
		o(c)
	}

	// Copy so the timeout never leaks into a caller's client.
	hc := *c.httpClient
	hc.Timeout = c.timeout
	c.httpClient = &hc
	return c
}

// FetchAll lists every bicycle. Records that fail validation are dropped.
func (c *Client) FetchAll(ctx context.Context) ([]Bicycle, error) {
	const op = "fetch all"
	u := c.baseURL + "/bikes"

	ctx, span := c.tracer.Start(ctx, "inventory.FetchAll")
	defer span.End()

	body, err := c.get(ctx, op, u)
	if err != nil {
		fail(span, err)
		inventoryRequests.WithLabelValues("fetch_all", outcome(err)).Inc()
		return nil, err
	}

	var raw []wireBicycle
	if err := json.Unmarshal(body, &raw); err != nil {
		err = &FetchError{Op: op, URL: u, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
		fail(span, err)
		inventoryRequests.WithLabelValues("fetch_all", outcome(err)).Inc()
		return nil, err
	}

	bikes := make([]Bicycle, 0, len(raw))
	for i, w := range raw {
		b, err := w.toBicycle()
		if err != nil {
			c.logger.WarnContext(ctx, "dropping invalid bike record", "index", i, "error", err)
			continue
		}
		bikes = append(bikes, b)
	}

	span.SetAttributes(attribute.Int("bikes.count", len(bikes)))
	inventoryRequests.WithLabelValues("fetch_all", "ok").Inc()
	return bikes, nil
}

// FetchByID reads a single bicycle.
func (c *Client) FetchByID(ctx context.Context, id string) (Bicycle, error) {
	const op = "fetch by id"
	u := c.baseURL + "/bikes/" + url.PathEscape(id)

	ctx, span := c.tracer.Start(ctx, "inventory.FetchByID", trace.WithAttributes(attribute.String("bike.id", id)))
	defer span.End()

	if id == "" {
		err := &FetchError{Op: op, URL: u, Err: ErrNotFound}
		fail(span, err)
		inventoryRequests.WithLabelValues("fetch_by_id", outcome(err)).Inc()
		return Bicycle{}, err
	}

	body, err := c.get(ctx, op, u)
	if err != nil {
		fail(span, err)
		inventoryRequests.WithLabelValues("fetch_by_id", outcome(err)).Inc()
		return Bicycle{}, err
	}

	var w wireBicycle
	if err := json.Unmarshal(body, &w); err != nil {
		err = &FetchError{Op: op, URL: u, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
		fail(span, err)
		inventoryRequests.WithLabelValues("fetch_by_id", outcome(err)).Inc()
		return Bicycle{}, err
	}
	b, err := w.toBicycle()
	if err != nil {
		err = &FetchError{Op: op, URL: u, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
		fail(span, err)
		inventoryRequests.WithLabelValues("fetch_by_id", outcome(err)).Inc()
		return Bicycle{}, err
	}

	inventoryRequests.WithLabelValues("fetch_by_id", "ok").Inc()
	return b, nil
}

func (c *Client) get(ctx context.Context, op, u string) ([]byte, error) {
	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.InfoContext(ctx, "retrying inventory request", "url", u, "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return nil, &FetchError{Op: op, URL: u, Err: fmt.Errorf("%w: %v", ErrTransport, ctx.Err())}
			case <-time.After(c.backoff):
			}
		}

		var body []byte
		var retry bool
		body, retry, err = c.do(ctx, op, u)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
	}
	return nil, err
}

// do performs a single request. The bool reports whether the failure is
// worth repeating.
func (c *Client) do(ctx context.Context, op, u string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, &FetchError{Op: op, URL: u, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, &FetchError{Op: op, URL: u, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, &FetchError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: ErrNotFound}
	case resp.StatusCode >= 500:
		return nil, true, &FetchError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, false, &FetchError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ctx.Err() == nil, &FetchError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}
	return body, false, nil
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrUnexpectedStatus):
		return "bad_status"
	}
	return "transport"
}
