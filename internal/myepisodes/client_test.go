package myepisodes_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"showmark/internal/myepisodes"
	"showmark/internal/services"
)

func TestLoginPostsFormAndKeepsCookies(t *testing.T) {
	var sawCookie atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login.php":
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			if r.PostForm.Get("username") != "tester" || r.PostForm.Get("password") != "secret" || r.PostForm.Get("action") != "Login" {
				t.Errorf("unexpected form %v", r.PostForm)
			}
			http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc", Path: "/"})
			_, _ = w.Write([]byte("Welcome back, tester"))
		case "/myshows.php":
			if c, err := r.Cookie("PHPSESSID"); err == nil && c.Value == "abc" {
				sawCookie.Store(true)
			}
		}
	}))
	t.Cleanup(server.Close)

	client, err := myepisodes.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	body, err := client.Login(context.Background(), "tester", "secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if myepisodes.ClassifyLogin(body, "tester") != myepisodes.LoginAccepted {
		t.Fatalf("expected accepted login body, got %q", body)
	}
	if err := client.MarkAcquired(context.Background(), "5111", 1, 2); err != nil {
		t.Fatalf("MarkAcquired returned error: %v", err)
	}
	if !sawCookie.Load() {
		t.Fatal("expected session cookie to be sent with mark request")
	}
}

func TestSearchSendsShowName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.php" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("tvshow") != "Human Target" || q.Get("action") != "Search" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(`<a href="views.php?showid=12345">Human Target</a>`))
	}))
	t.Cleanup(server.Close)

	client, _ := myepisodes.New(server.URL)
	body, err := client.Search(context.Background(), "Human Target")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if id, ok := myepisodes.ExtractShowID(body, "human target"); !ok || id != "12345" {
		t.Fatalf("ExtractShowID = (%q, %v)", id, ok)
	}
}

func TestMarkAcquiredQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/myshows.php" || q.Get("action") != "Update" || q.Get("showid") != "5111" ||
			q.Get("season") != "3" || q.Get("episode") != "14" || q.Get("seen") != "0" {
			t.Errorf("unexpected mark request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
	}))
	t.Cleanup(server.Close)

	client, _ := myepisodes.New(server.URL)
	if err := client.MarkAcquired(context.Background(), "5111", 3, 14); err != nil {
		t.Fatalf("MarkAcquired returned error: %v", err)
	}
	if err := client.MarkAcquired(context.Background(), " ", 1, 1); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty show id, got %v", err)
	}
}

func TestErrorStatusIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client, _ := myepisodes.New(server.URL)
	err := client.MarkAcquired(context.Background(), "1", 1, 1)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !myepisodes.IsStatus(err, http.StatusBadGateway) {
		t.Fatalf("expected status 502 to be preserved, got %v", err)
	}
	if _, err := client.Login(context.Background(), "u", "p"); !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected login transport error, got %v", err)
	}
}

func TestSearchRetriesOnlyWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(server.Close)

	noRetry, _ := myepisodes.New(server.URL)
	if _, err := noRetry.Search(context.Background(), "x"); err == nil {
		t.Fatal("expected failure without retries")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt by default, got %d", calls.Load())
	}

	calls.Store(0)
	retrying, _ := myepisodes.New(server.URL, myepisodes.WithSearchRetries(2, time.Millisecond))
	body, err := retrying.Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if string(body) != "ok" || calls.Load() != 3 {
		t.Fatalf("unexpected body %q after %d calls", body, calls.Load())
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(server.Close)

	client, _ := myepisodes.New(server.URL, myepisodes.WithRateLimit(0.001))
	if _, err := client.Search(context.Background(), "first"); err != nil {
		t.Fatalf("first request should use the burst token: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.Search(ctx, "second"); err == nil {
		t.Fatal("expected rate limited request to fail when context expires")
	}
}
