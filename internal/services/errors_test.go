package services_test

import (
	"errors"
	"strings"
	"testing"

	"showmark/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransport, "myepisodes", "search", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"myepisodes", "search", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFatalClassification(t *testing.T) {
	auth := services.Wrap(services.ErrAuthentication, "session", "login", "marker missing", nil)
	transport := services.Wrap(services.ErrTransport, "myepisodes", "mark", "", errors.New("reset"))
	unresolvable := services.Wrap(services.ErrUnresolvable, "resolver", "search", "", nil)

	cases := []struct {
		name  string
		err   error
		login bool
		want  bool
	}{
		{"nil", nil, true, false},
		{"auth", auth, false, true},
		{"transport during login", transport, true, true},
		{"transport per item", transport, false, false},
		{"unresolvable", unresolvable, false, false},
	}
	for _, tc := range cases {
		if got := services.Fatal(tc.err, tc.login); got != tc.want {
			t.Errorf("%s: Fatal = %v, want %v", tc.name, got, tc.want)
		}
	}
}
