package watcher

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jpagh/docassemblecli3/internal/dacli/daclient"
	"github.com/jpagh/docassemblecli3/internal/dacli/ignore"
	"github.com/jpagh/docassemblecli3/internal/dacli/packaging"
	"github.com/jpagh/docassemblecli3/internal/dacli/server"
)

// moduleLessSetupPy declares a name and dependencies but the tree holds
// no Python modules, so the auto policy's server check is reachable
const moduleLessSetupPy = `from setuptools import setup, find_packages

setup(name='docassemble.sample',
      version='0.0.1',
      install_requires=['docassemble.base>=1.4.0', 'requests==2.31.0', 'pyyaml'],
      packages=find_packages(),
     )
`

// installStub fakes the docassemble install endpoints and records what
// the client sent
type installStub struct {
	mu           sync.Mutex
	restartForms []string // "restart" form value of each upload, "" when absent
	listCalls    int
}

func (s *installStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/package", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.mu.Lock()
			s.listCalls++
			s.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[{"name":"docassemble.sample","version":"0.0.1"},
				{"name":"docassemble.base","version":"1.4.2"},
				{"name":"requests","version":"2.31.0"},
				{"name":"pyyaml","version":"6.0"}]`)
		case http.MethodPost:
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			s.mu.Lock()
			s.restartForms = append(s.restartForms, r.FormValue("restart"))
			s.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"task_id":"task-1"}`)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/package_update_status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"completed","ok":true}`)
	})
	mux.HandleFunc("/api/clear_cache", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func (s *installStub) uploads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.restartForms))
	copy(out, s.restartForms)
	return out
}

func (s *installStub) lists() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// newTestWatcher wires a watcher at a fresh module-less package directory
// against the stub server
func newTestWatcher(t *testing.T, stub *installStub) *Watcher {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "setup.py"), []byte(moduleLessSetupPy), 0644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	client, err := daclient.New(srv.URL, "test-key")
	if err != nil {
		t.Fatalf("daclient.New() error = %v", err)
	}
	client.PollInterval = time.Millisecond

	matcher, err := ignore.NewMatcher(dir)
	if err != nil {
		t.Fatalf("ignore.NewMatcher() error = %v", err)
	}

	return &Watcher{
		config: Config{
			Directory: dir,
			Server:    server.Config{Name: "test", APIURL: srv.URL, APIKey: "test-key"},
			Policy:    packaging.PolicyAuto,
		},
		client:  client,
		matcher: matcher,
	}
}

// A batch that classified as restart-required must reach the server as a
// restart install even when the tree scan alone would not call for one
// (e.g. the batch's .py change was a deletion)
func TestInstallOnceKeepsBatchRestart(t *testing.T) {
	stub := &installStub{}
	w := newTestWatcher(t, stub)

	if err := w.installOnce(true); err != nil {
		t.Fatalf("installOnce(true) error = %v", err)
	}

	uploads := stub.uploads()
	if len(uploads) != 1 {
		t.Fatalf("got %d uploads, want 1", len(uploads))
	}
	if uploads[0] == "0" {
		t.Error(`upload carried restart="0" for a restart-required batch`)
	}
	if stub.lists() != 0 {
		t.Errorf("server package list consulted %d time(s) for a restart-required batch, want 0", stub.lists())
	}
}

// A quiet batch on a module-less package defers to the server's package
// list; satisfied dependencies mean no restart
func TestInstallOnceQuietBatchServerCheck(t *testing.T) {
	stub := &installStub{}
	w := newTestWatcher(t, stub)

	if err := w.installOnce(false); err != nil {
		t.Fatalf("installOnce(false) error = %v", err)
	}

	uploads := stub.uploads()
	if len(uploads) != 1 {
		t.Fatalf("got %d uploads, want 1", len(uploads))
	}
	if uploads[0] != "0" {
		t.Errorf(`upload restart form = %q, want "0" for satisfied dependencies`, uploads[0])
	}
	if stub.lists() != 1 {
		t.Errorf("server package list consulted %d time(s), want 1", stub.lists())
	}
}

// The yes policy restarts regardless of the batch flag
func TestInstallOncePolicyYes(t *testing.T) {
	stub := &installStub{}
	w := newTestWatcher(t, stub)
	w.config.Policy = packaging.PolicyYes

	if err := w.installOnce(false); err != nil {
		t.Fatalf("installOnce(false) error = %v", err)
	}

	uploads := stub.uploads()
	if len(uploads) != 1 {
		t.Fatalf("got %d uploads, want 1", len(uploads))
	}
	if uploads[0] == "0" {
		t.Error(`upload carried restart="0" under the yes policy`)
	}
}
