package bike

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, WithBackoff(time.Millisecond))
}

func TestFetchAll(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bikes" {
			t.Errorf("expected path /bikes, got %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"id":"1","brand":"Acme","model":"X","type":"Road","latitude":41.34,"longitude":-8.74,"reserved":false},
			{"id":2,"brand":"Volt","model":"E1","type":"Electric","latitude":0,"longitude":0,"reserved":true},
			{"id":"3","brand":"Odd","model":"Z","type":"Tandem","latitude":1,"longitude":1}
		]`))
	})

	bikes, err := c.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bikes) != 3 {
		t.Fatalf("expected 3 bikes, got %d", len(bikes))
	}
	if bikes[0].ID != "1" || bikes[0].Type != Road || bikes[0].Brand != "Acme" {
		t.Errorf("unexpected first bike: %+v", bikes[0])
	}
	if bikes[1].ID != "2" {
		t.Errorf("expected numeric id to decode as \"2\", got %q", bikes[1].ID)
	}
	if !bikes[1].Reserved {
		t.Errorf("expected bike 2 to carry the server reserved flag")
	}
	if bikes[2].Type != Other {
		t.Errorf("expected unknown type to decode as Other, got %s", bikes[2].Type)
	}
}

func TestFetchAll_EmptyAndNull(t *testing.T) {
	for _, payload := range []string{`[]`, `null`} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(payload))
		})
		bikes, err := c.FetchAll(context.Background())
		if err != nil {
			t.Fatalf("payload %s: unexpected error: %v", payload, err)
		}
		if len(bikes) != 0 {
			t.Errorf("payload %s: expected no bikes, got %d", payload, len(bikes))
		}
	}
}

func TestFetchAll_DropsInvalidRecords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"brand":"NoID","type":"Road"},
			{"id":"1","latitude":123,"longitude":0},
			{"id":"2","brand":"Fine","type":"Mountain","latitude":10,"longitude":10}
		]`))
	})

	bikes, err := c.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bikes) != 1 || bikes[0].ID != "2" {
		t.Errorf("expected only bike 2 to survive validation, got %+v", bikes)
	}
}

func TestFetchAll_Malformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"`))
	})

	_, err := c.FetchAll(context.Background())
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
}

func TestFetchAll_RetriesOnceOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	})

	if _, err := c.FetchAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestFetchAll_GivesUpAfterOneRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.FetchAll(context.Background())
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 on error, got %d", fe.StatusCode)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestFetchAll_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.FetchAll(context.Background())
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestFetchAll_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(srv.URL, WithRetries(0))

	_, err := c.FetchAll(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestFetchByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bikes/42":
			w.Write([]byte(`{"id":42,"brand":"Acme","model":"X","type":"Mountain","latitude":1.5,"longitude":2.5}`))
		case "/bikes/bad":
			w.Write([]byte(`{"id":"bad","latitude":-91,"longitude":0}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	b, err := c.FetchByID(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ID != "42" || b.Type != Mountain || b.Latitude != 1.5 || b.Longitude != 2.5 {
		t.Errorf("unexpected bike: %+v", b)
	}

	_, err = c.FetchByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = c.FetchByID(context.Background(), "bad")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}

	_, err = c.FetchByID(context.Background(), "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty id, got %v", err)
	}
}

func TestTimeout_AppliesToCallerClient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	for name, opts := range map[string][]Option{
		"timeout first": {WithTimeout(50 * time.Millisecond), WithHTTPClient(&http.Client{})},
		"client first":  {WithHTTPClient(&http.Client{}), WithTimeout(50 * time.Millisecond)},
	} {
		t.Run(name, func(t *testing.T) {
			c := NewClient(srv.URL, append(opts, WithRetries(0))...)

			start := time.Now()
			_, err := c.FetchAll(context.Background())
			if !errors.Is(err, ErrTransport) {
				t.Fatalf("expected a transport error, got %v", err)
			}
			if elapsed := time.Since(start); elapsed > 2*time.Second {
				t.Errorf("expected the timeout to cut the request short, took %v", elapsed)
			}
		})
	}
}

func TestTimeout_LeavesCallerClientUntouched(t *testing.T) {
	hc := &http.Client{}
	NewClient("http://example.invalid", WithHTTPClient(hc), WithTimeout(time.Second))
	if hc.Timeout != 0 {
		t.Errorf("expected caller's client to keep its zero timeout, got %v", hc.Timeout)
	}
}
