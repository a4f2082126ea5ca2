package acceptance

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/semanticallynull/bikemap/api"
	"github.com/semanticallynull/bikemap/bike"
	"github.com/semanticallynull/bikemap/reservation"
	"github.com/semanticallynull/bikemap/store"
	"github.com/semanticallynull/bikemap/viewmodel"
)

type TestServer struct {
	Router    *gin.Engine
	Inventory *FakeInventory
	Store     *store.Memory
	Ledger    *reservation.Ledger
}

// FakeInventory serves the inventory API from memory.
type FakeInventory struct {
	mu    sync.Mutex
	bikes []map[string]any
	down  bool

	srv *httptest.Server
}

func (f *FakeInventory) AddBike(id, brand, model, typ string, lat, lng float64, reserved bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bikes = append(f.bikes, map[string]any{
		"id":        id,
		"brand":     brand,
		"model":     model,
		"type":      typ,
		"latitude":  lat,
		"longitude": lng,
		"reserved":  reserved,
	})
}

// SetDown makes every request fail with a 503.
func (f *FakeInventory) SetDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *FakeInventory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/bikes" {
		json.NewEncoder(w).Encode(f.bikes)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/bikes/")
	for _, b := range f.bikes {
		if b["id"] == id {
			json.NewEncoder(w).Encode(b)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)

	inv := &FakeInventory{}
	inv.srv = httptest.NewServer(inv)
	t.Cleanup(inv.srv.Close)

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	client := bike.NewClient(inv.srv.URL, bike.WithBackoff(time.Millisecond), bike.WithLogger(logger))
	mem := store.NewMemory()
	ledger := reservation.NewLedger(mem, reservation.WithLogger(logger))
	vm := viewmodel.New(client, ledger, viewmodel.WithLogger(logger))

	a := api.New(vm, api.Options{Logger: logger})

	return &TestServer{
		Router:    a.Router(),
		Inventory: inv,
		Store:     mem,
		Ledger:    ledger,
	}
}

// SeedLedger writes a raw ledger value, bypassing the ledger.
func (ts *TestServer) SeedLedger(t *testing.T, raw string) {
	t.Helper()
	if err := ts.Store.Set(context.Background(), reservation.DefaultKey, []byte(raw)); err != nil {
		t.Fatalf("failed to seed ledger: %v", err)
	}
}

func (ts *TestServer) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func (ts *TestServer) GET(path string) *httptest.ResponseRecorder {
	return ts.do(http.MethodGet, path)
}

func (ts *TestServer) POST(path string) *httptest.ResponseRecorder {
	return ts.do(http.MethodPost, path)
}

func (ts *TestServer) DELETE(path string) *httptest.ResponseRecorder {
	return ts.do(http.MethodDelete, path)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to unmarshal response: %v: %s", err, w.Body.String())
	}
	return v
}
