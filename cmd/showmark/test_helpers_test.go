package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeTracker serves the handful of MyEpisodes pages the CLI touches.
type fakeTracker struct {
	mu          sync.Mutex
	searchPages map[string]string
	failShowIDs map[string]bool
	rejectLogin bool
	logins      int
	searches    []string
	marks       []string
}

func newFakeTracker(t *testing.T) (*fakeTracker, *httptest.Server) {
	t.Helper()
	page, err := os.ReadFile(filepath.Join("testdata", "search_chuck.html"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	tracker := &fakeTracker{
		searchPages: map[string]string{"Chuck": string(page)},
		failShowIDs: map[string]bool{},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracker.mu.Lock()
		defer tracker.mu.Unlock()
		switch r.URL.Path {
		case "/login.php":
			tracker.logins++
			_ = r.ParseForm()
			if tracker.rejectLogin {
				_, _ = w.Write([]byte("<html><body>Invalid username or password</body></html>"))
				return
			}
			fmt.Fprintf(w, "<html><body>Welcome back, %s</body></html>", r.PostForm.Get("username"))
		case "/search.php":
			name := r.URL.Query().Get("tvshow")
			tracker.searches = append(tracker.searches, name)
			_, _ = w.Write([]byte(tracker.searchPages[name]))
		case "/myshows.php":
			q := r.URL.Query()
			id := q.Get("showid")
			if tracker.failShowIDs[id] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			tracker.marks = append(tracker.marks, id+":"+q.Get("season")+"x"+q.Get("episode"))
		default:
			t.Errorf("unexpected tracker path %s", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)
	return tracker, server
}

func (f *fakeTracker) snapshot() (int, []string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins, append([]string(nil), f.searches...), append([]string(nil), f.marks...)
}

type testEnv struct {
	dir        string
	configPath string
	metrics    string
}

func newTestEnv(t *testing.T, trackerURL string) testEnv {
	t.Helper()
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("MYEPISODES_USERNAME", "")
	t.Setenv("MYEPISODES_PASSWORD", "")

	dir := t.TempDir()
	env := testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.toml"),
		metrics:    filepath.Join(dir, "metrics", "showmark.prom"),
	}
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q
metrics_file = %q

[myepisodes]
base_url = %q
username = "tester"
password = "secret"
timeout_seconds = 5

[logging]
level = "error"
`, filepath.Join(dir, "state"), filepath.Join(dir, "logs"), env.metrics, trackerURL)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e testEnv) writeItems(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write items: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
