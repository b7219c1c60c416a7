package hirez

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

const (
	testDevID   = "1004"
	testAuthKey = "23DF3C7E9BD14D84BF892AD206B6755C"
)

func newTestClient(serverURL string) *Client {
	return &Client{
		devID:      testDevID,
		authKey:    testAuthKey,
		lang:       1,
		baseURL:    serverURL,
		httpClient: &http.Client{},
		logger:     zap.NewNop().Sugar(),
		sessionTTL: 9 * time.Minute,
		now:        time.Now,
	}
}

// sessionServer approves createsession and routes everything else to handle.
// It counts session creations so tests can assert on the retry path.
func sessionServer(t *testing.T, sessions *int32, handle http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/createsessionJson/") {
			atomic.AddInt32(sessions, 1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ret_msg": "Approved", "session_id": "8E1B7C0B6A614A6CB053B3A6E1C90C62", "timestamp": "8/24/2026 10:15:12 AM"}`))
			return
		}
		handle(w, r)
	}))
}

func TestSignature(t *testing.T) {
	c := newTestClient("http://example.invalid")
	tests := []struct {
		method string
		ts     string
		want   string
	}{
		{"createsession", "20120927183145", "8f53249be0922c94720834771ad43f0f"},
		{"getgods", "20120927183145", "8b4be50b4617c83252705e82420218dd"},
	}
	for _, tt := range tests {
		if got := c.signature(tt.method, tt.ts); got != tt.want {
			t.Errorf("signature(%s) = %s, want %s", tt.method, got, tt.want)
		}
	}
}

func TestTimestampFormat(t *testing.T) {
	c := newTestClient("http://example.invalid")
	c.now = func() time.Time {
		return time.Date(2012, 9, 27, 18, 31, 45, 0, time.UTC)
	}
	if got := c.timestamp(); got != "20120927183145" {
		t.Errorf("timestamp() = %s, want 20120927183145", got)
	}
}

func TestCall_CreatesSessionLazily(t *testing.T) {
	var sessions int32
	server := sessionServer(t, &sessions, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/getpatchinfoJson/") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if !strings.Contains(r.URL.Path, "/8E1B7C0B6A614A6CB053B3A6E1C90C62/") {
			t.Errorf("session id missing from path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"ret_msg": null, "version_string": "9.12"}`))
	})
	defer server.Close()

	c := newTestClient(server.URL)
	info, err := c.GetPatchInfo(context.Background())
	if err != nil {
		t.Fatalf("GetPatchInfo: %v", err)
	}
	if info.VersionString != "9.12" {
		t.Errorf("VersionString = %q, want 9.12", info.VersionString)
	}
	if n := atomic.LoadInt32(&sessions); n != 1 {
		t.Errorf("sessions created = %d, want 1", n)
	}

	// Second call reuses the cached session.
	if _, err := c.GetPatchInfo(context.Background()); err != nil {
		t.Fatalf("GetPatchInfo: %v", err)
	}
	if n := atomic.LoadInt32(&sessions); n != 1 {
		t.Errorf("sessions created = %d, want 1 after reuse", n)
	}
}

func TestCall_RetriesOnInvalidSession(t *testing.T) {
	var sessions int32
	var godsCalls int32
	server := sessionServer(t, &sessions, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&godsCalls, 1) == 1 {
			_, _ = w.Write([]byte(`[{"ret_msg": "Invalid session id.", "id": 0}]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id": 1672, "Name": "Zeus", "Pantheon": "Greek", "Roles": "Mage", "ret_msg": null}]`))
	})
	defer server.Close()

	c := newTestClient(server.URL)
	gods, err := c.GetGods(context.Background())
	if err != nil {
		t.Fatalf("GetGods: %v", err)
	}
	if len(gods) != 1 || gods[0].Name != "Zeus" {
		t.Fatalf("gods = %+v, want one Zeus row", gods)
	}
	if n := atomic.LoadInt32(&sessions); n != 2 {
		t.Errorf("sessions created = %d, want 2 (initial + recreate)", n)
	}
	if n := atomic.LoadInt32(&godsCalls); n != 2 {
		t.Errorf("getgods calls = %d, want 2 (failed + retried)", n)
	}
}

func TestCall_EmptyPayload(t *testing.T) {
	var sessions int32
	server := sessionServer(t, &sessions, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.GetMatchDetails(context.Background(), "263074111")
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("err = %v, want ErrNoResult", err)
	}
}

func TestCall_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.GetGods(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "auth details may be incorrect") {
		t.Errorf("err = %v, want auth failure message", err)
	}
}

func TestCreateSession_Denied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ret_msg": "Exception while validating developer access.  Invalid developerId.", "session_id": "", "timestamp": "8/24/2026 10:15:12 AM"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.GetGods(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Method != "createsession" {
		t.Errorf("Method = %q, want createsession", apiErr.Method)
	}
}

func TestGetMatchIDsByQueue_Params(t *testing.T) {
	var sessions int32
	server := sessionServer(t, &sessions, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/426/20260801/-1") {
			t.Errorf("params missing from path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"Active_Flag": "n", "Match": "263074111", "ret_msg": null}]`))
	})
	defer server.Close()

	c := newTestClient(server.URL)
	entries, err := c.GetMatchIDsByQueue(context.Background(), QueueConquest, "20260801", "-1")
	if err != nil {
		t.Fatalf("GetMatchIDsByQueue: %v", err)
	}
	if len(entries) != 1 || entries[0].Match != "263074111" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestGetMatchDetailsBatch(t *testing.T) {
	var sessions int32
	server := sessionServer(t, &sessions, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/263074111,263074112") {
			t.Errorf("batch ids missing from path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"Match": 263074111, "GodId": 1672, "Win_Status": "Winner", "TaskForce": 1, "ret_msg": null},
			{"Match": 263074112, "GodId": 1737, "Win_Status": "Loser", "TaskForce": 2, "ret_msg": null}
		]`))
	})
	defer server.Close()

	c := newTestClient(server.URL)
	players, err := c.GetMatchDetailsBatch(context.Background(), []string{"263074111", "263074112"})
	if err != nil {
		t.Fatalf("GetMatchDetailsBatch: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("players = %d, want 2", len(players))
	}
	if players[0].GodID != 1672 || !players[0].Won() {
		t.Errorf("players[0] = %+v", players[0])
	}
}

func TestGetMatchDetailsBatch_TooMany(t *testing.T) {
	c := newTestClient("http://example.invalid")
	ids := make([]string, 11)
	for i := range ids {
		ids[i] = "1"
	}
	if _, err := c.GetMatchDetailsBatch(context.Background(), ids); err == nil {
		t.Fatal("expected error for 11 ids")
	}
}

func TestPing_NoSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/createsessionJson/") {
			t.Error("ping must not create a session")
		}
		_, _ = w.Write([]byte(`"SmiteAPI (ver 3.36.0.19904) [PATCH - 9.12]"`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	msg, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !strings.Contains(msg, "SmiteAPI") {
		t.Errorf("msg = %q", msg)
	}
}

func TestTestSession(t *testing.T) {
	var sessions int32
	server := sessionServer(t, &sessions, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/testsessionJson/") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`"This was a successful test with the following parameters added: ..."`))
	})
	defer server.Close()

	c := newTestClient(server.URL)
	ok, err := c.TestSession(context.Background())
	if err != nil {
		t.Fatalf("TestSession: %v", err)
	}
	if !ok {
		t.Error("TestSession = false, want true")
	}
}

func TestSessionExpiresByTTL(t *testing.T) {
	var sessions int32
	server := sessionServer(t, &sessions, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ret_msg": null, "version_string": "9.12"}`))
	})
	defer server.Close()

	clock := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	c := newTestClient(server.URL)
	c.now = func() time.Time { return clock }

	if _, err := c.GetPatchInfo(context.Background()); err != nil {
		t.Fatalf("GetPatchInfo: %v", err)
	}
	clock = clock.Add(10 * time.Minute)
	if _, err := c.GetPatchInfo(context.Background()); err != nil {
		t.Fatalf("GetPatchInfo: %v", err)
	}
	if n := atomic.LoadInt32(&sessions); n != 2 {
		t.Errorf("sessions created = %d, want 2 after TTL expiry", n)
	}
}
