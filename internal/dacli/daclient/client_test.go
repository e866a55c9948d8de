package daclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	dacerrors "github.com/jpagh/docassemblecli3/internal/dacli/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "testkey")
	if err != nil {
		t.Fatal(err)
	}
	c.PollInterval = time.Millisecond
	c.MaxPolls = 10
	return c, srv
}

func writeTestZip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pkg.zip")
	if err := os.WriteFile(path, []byte("PK\x03\x04zipdata"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New("", "key"); !dacerrors.Is(err, dacerrors.ErrEmptyURL) {
		t.Errorf("expected ErrEmptyURL, got %v", err)
	}
}

func TestListPackagesSendsAPIKey(t *testing.T) {
	var gotKey atomic.Value
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get("X-API-Key"))
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"name": "docassemble", "version": "1.6.1"},
			{"name": "docassemble.base", "version": "1.6.1"},
		})
	}))

	packages, err := c.ListPackages()
	if err != nil {
		t.Fatalf("ListPackages failed: %v", err)
	}
	if len(packages) != 2 || packages[0].Name != "docassemble" {
		t.Errorf("unexpected package list: %+v", packages)
	}
	if gotKey.Load() != "testkey" {
		t.Errorf("X-API-Key = %v, want testkey", gotKey.Load())
	}
}

func TestAuthFailureSurfaced(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Access denied.", http.StatusForbidden)
	}))

	err := c.CheckCredentials()
	if !dacerrors.Is(err, dacerrors.ErrInvalidAPIKey) {
		t.Errorf("expected ErrInvalidAPIKey, got %v", err)
	}
}

func TestServerVersion(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"name": "docassemble.webapp", "version": "1.6.1"},
			{"name": "docassemble", "version": "1.5.9"},
		})
	}))

	version, err := c.ServerVersion()
	if err != nil || version != "1.5.9" {
		t.Errorf("ServerVersion = %q, %v; want 1.5.9", version, err)
	}
}

func TestInstallPackage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/package" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart form: %v", err)
		}
		if r.FormValue("restart") != "0" {
			t.Errorf("restart form value = %q, want 0", r.FormValue("restart"))
		}
		if _, _, err := r.FormFile("zip"); err != nil {
			t.Errorf("expected zip file field: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"task_id": "abc123"})
	}))

	taskID, err := c.InstallPackage(writeTestZip(t), false)
	if err != nil {
		t.Fatalf("InstallPackage failed: %v", err)
	}
	if taskID != "abc123" {
		t.Errorf("task ID = %q, want abc123", taskID)
	}
}

func TestInstallPackageMissingFile(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	if _, err := c.InstallPackage(filepath.Join(t.TempDir(), "nope.zip"), true); !dacerrors.Is(err, dacerrors.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestWaitUntilReadySuccess(t *testing.T) {
	var polls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("task_id") != "abc123" {
			t.Errorf("task_id = %q", r.URL.Query().Get("task_id"))
		}
		n := polls.Add(1)
		if n < 3 {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "working"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "completed", "ok": true})
	}))

	if err := c.WaitUntilReady(false, "abc123"); err != nil {
		t.Fatalf("WaitUntilReady failed: %v", err)
	}
	if polls.Load() != 3 {
		t.Errorf("polled %d times, want 3", polls.Load())
	}
}

func TestWaitUntilReadyServerError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":        "completed",
			"ok":            false,
			"error_message": "ImportError: no module named nothing",
		})
	}))

	err := c.WaitUntilReady(false, "abc123")
	if !dacerrors.Is(err, dacerrors.ErrInstallFailed) {
		t.Fatalf("expected ErrInstallFailed, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "ImportError") {
		t.Errorf("error should carry the server message verbatim, got %q", got)
	}
}

func TestWaitUntilReadyTimeout(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "working"})
	}))

	if err := c.WaitUntilReady(false, "abc123"); !dacerrors.Is(err, dacerrors.ErrStatusTimedOut) {
		t.Errorf("expected ErrStatusTimedOut, got %v", err)
	}
}

func TestWaitUntilReadyPlayground(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/restart_status" {
			t.Errorf("playground poll hit %s, want /api/restart_status", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "completed"})
	}))

	if err := c.WaitUntilReady(true, "abc123"); err != nil {
		t.Fatalf("playground WaitUntilReady failed: %v", err)
	}
}

func TestInstallToPlaygroundCreatesMissingProject(t *testing.T) {
	var installs, creates atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/playground_install":
			if installs.Add(1) == 1 {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`"Invalid project."`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"task_id": "pg42"})
		case "/api/playground/project":
			creates.Add(1)
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	taskID, err := c.InstallToPlayground(writeTestZip(t), "myproject", true)
	if err != nil {
		t.Fatalf("InstallToPlayground failed: %v", err)
	}
	if taskID != "pg42" {
		t.Errorf("task ID = %q, want pg42", taskID)
	}
	if creates.Load() != 1 || installs.Load() != 2 {
		t.Errorf("creates = %d, installs = %d; want 1 and 2", creates.Load(), installs.Load())
	}
}

func TestInstallToPlaygroundSynchronous(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	taskID, err := c.InstallToPlayground(writeTestZip(t), "", true)
	if err != nil {
		t.Fatalf("InstallToPlayground failed: %v", err)
	}
	if taskID != "" {
		t.Errorf("synchronous install should return empty task ID, got %q", taskID)
	}
}

func TestClearCache(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/clear_cache" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := c.ClearCache(); err != nil {
		t.Fatalf("ClearCache failed: %v", err)
	}
}
