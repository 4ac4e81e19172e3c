package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/gocirculate/internal/anova"
	"github.com/chaz8081/gocirculate/internal/ble"
)

// fakeCooker answers every command from fixed values. A non-nil err fails
// every call.
type fakeCooker struct {
	mu      sync.Mutex
	err     error
	status  string
	temp    string
	setTemp string
	unit    string
	calls   []string
}

func newFakeCooker() *fakeCooker {
	return &fakeCooker{status: "stopped", temp: "21.5", setTemp: "60.0", unit: "c"}
}

func (f *fakeCooker) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeCooker) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCooker) Status(ctx context.Context) (string, error) {
	return f.status, f.record("status")
}

func (f *fakeCooker) ReadTemp(ctx context.Context) (string, error) {
	return f.temp, f.record("read temp")
}

func (f *fakeCooker) ReadSetTemp(ctx context.Context) (string, error) {
	return f.setTemp, f.record("read set temp")
}

func (f *fakeCooker) ReadUnit(ctx context.Context) (string, error) {
	return f.unit, f.record("read unit")
}

func (f *fakeCooker) SetTemp(ctx context.Context, degrees float64) (string, error) {
	if err := f.record(fmt.Sprintf("set temp %v", degrees)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%.1f", degrees), nil
}

func (f *fakeCooker) Start(ctx context.Context) (string, error) {
	return "start", f.record("start")
}

func (f *fakeCooker) Stop(ctx context.Context) (string, error) {
	return "stop", f.record("stop")
}

func serve(t *testing.T, cooker Cooker, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	NewServer(cooker, time.Second).Routes().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func TestIndex(t *testing.T) {
	rec := serve(t, newFakeCooker(), http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"anova_status": "stopped"}, decode(t, rec))
}

func TestGetTemp(t *testing.T) {
	cooker := newFakeCooker()
	rec := serve(t, cooker, http.MethodGet, "/temp", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{
		"current_temp": "21.5",
		"set_temp":     "60.0",
		"unit":         "c",
	}, decode(t, rec))
	assert.Equal(t, []string{"read temp", "read set temp", "read unit"}, cooker.Calls())
}

func TestSetTemp(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"number", `{"temp": 60.5}`, "60.5"},
		{"integer", `{"temp": 57}`, "57.0"},
		{"numeric string", `{"temp": "55.5"}`, "55.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, newFakeCooker(), http.MethodPost, "/temp", tt.body)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec)["set_temp"])
		})
	}
}

func TestSetTempBadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing field", `{"degrees": 60}`},
		{"not a number", `{"temp": "hot"}`},
		{"wrong type", `{"temp": true}`},
		{"not json", `temp=60`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cooker := newFakeCooker()
			rec := serve(t, cooker, http.MethodPost, "/temp", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.EqualValues(t, http.StatusBadRequest, body["status"])
			assert.Equal(t, "invalid_body", body["sub_code"])
			assert.Empty(t, cooker.Calls(), "no command should be sent for a bad request")
		})
	}
}

func TestStartStop(t *testing.T) {
	for _, path := range []string{"/start", "/stop"} {
		t.Run(path, func(t *testing.T) {
			rec := serve(t, newFakeCooker(), http.MethodPost, path, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, strings.TrimPrefix(path, "/"), decode(t, rec)["status"])
		})
	}
}

func TestCoreErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantSubCode string
	}{
		{"timeout", fmt.Errorf("%w: status", ble.ErrCommandTimeout), http.StatusInternalServerError, "command_timeout"},
		{"connect", fmt.Errorf("%w: %w", ble.ErrConnect, ble.ErrLinkUnavailable), http.StatusInternalServerError, "connect_failed"},
		{"write", fmt.Errorf("%w: short write", ble.ErrLinkWrite), http.StatusInternalServerError, "link_write"},
		{"invalid argument", fmt.Errorf("%w: nope", anova.ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cooker := newFakeCooker()
			cooker.err = tt.err

			rec := serve(t, cooker, http.MethodGet, "/", "")

			require.Equal(t, tt.wantCode, rec.Code)
			body := decode(t, rec)
			assert.EqualValues(t, tt.wantCode, body["status"])
			assert.Equal(t, tt.wantSubCode, body["sub_code"])
			assert.Equal(t, tt.err.Error(), body["message"])
		})
	}
}

func TestSetTempOutOfRangeFromController(t *testing.T) {
	// A real controller rejects NaN-like input before any I/O; the API
	// surfaces that as a 400.
	cooker := newFakeCooker()
	cooker.err = fmt.Errorf("%w: temperature must be finite", anova.ErrInvalidArgument)

	rec := serve(t, cooker, http.MethodPost, "/temp", `{"temp": 60}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decode(t, rec)["sub_code"])
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	rec := serve(t, newFakeCooker(), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.EqualValues(t, http.StatusNotFound, decode(t, rec)["status"])

	rec = serve(t, newFakeCooker(), http.MethodDelete, "/temp", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestID(t *testing.T) {
	rec := serve(t, newFakeCooker(), http.MethodGet, "/", "")
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36, "generated id should be a UUID")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	NewServer(newFakeCooker(), time.Second).Routes().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRequestIDFromEmptyContext(t *testing.T) {
	assert.Equal(t, "", RequestIDFrom(context.Background()))
}

func TestNewServerDefaultsStreamInterval(t *testing.T) {
	s := NewServer(newFakeCooker(), 0)
	assert.Equal(t, 5*time.Second, s.streamInterval)
}

func dialStream(t *testing.T, cooker Cooker, interval time.Duration) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewServer(cooker, interval).Routes())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/temp/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestTempStream(t *testing.T) {
	conn := dialStream(t, newFakeCooker(), 20*time.Millisecond)

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var reading tempReading
		require.NoError(t, conn.ReadJSON(&reading))
		assert.Equal(t, "21.5", reading.CurrentTemp)
		assert.Equal(t, "c", reading.Unit)
		assert.Empty(t, reading.Error)
		assert.False(t, reading.At.IsZero())
	}
}

func TestTempStreamReportsErrors(t *testing.T) {
	cooker := newFakeCooker()
	cooker.err = fmt.Errorf("%w: read temp", ble.ErrCommandTimeout)
	conn := dialStream(t, cooker, 20*time.Millisecond)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reading tempReading
	require.NoError(t, conn.ReadJSON(&reading))
	assert.Contains(t, reading.Error, "command timed out")
	assert.Empty(t, reading.CurrentTemp)
}
