package myepisodes

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
)

// LoginStatus is the verdict of ClassifyLogin.
type LoginStatus int

const (
	// LoginRejected means the response did not echo the account name.
	LoginRejected LoginStatus = iota
	// LoginAccepted means the response contains the account name.
	LoginAccepted
)

func (s LoginStatus) String() string {
	if s == LoginAccepted {
		return "accepted"
	}
	return "rejected"
}

// ClassifyLogin inspects a login response body. The site greets a signed-in
// user by name, so the presence of the username is the only success marker.
func ClassifyLogin(body []byte, username string) LoginStatus {
	username = strings.TrimSpace(username)
	if username == "" || len(body) == 0 {
		return LoginRejected
	}
	if bytes.Contains(body, []byte(username)) {
		return LoginAccepted
	}
	return LoginRejected
}

var showIDPattern = regexp.MustCompile(`[?&](?:show)?id=(\d+)`)

// ExtractShowID scans a search results page for an anchor whose visible text
// equals name (case-insensitively) and returns the numeric show id from its
// link. ok is false when no such anchor exists.
func ExtractShowID(body []byte, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || len(body) == 0 {
		return "", false
	}
	fold := cases.Fold()
	want := fold.String(name)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return extractShowIDRaw(body, name)
	}

	var id string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if fold.String(strings.TrimSpace(s.Text())) != want {
			return true
		}
		href, _ := s.Attr("href")
		if m := showIDPattern.FindStringSubmatch(href); m != nil {
			id = m[1]
			return false
		}
		return true
	})
	if id != "" {
		return id, true
	}
	return "", false
}

// extractShowIDRaw handles bodies the HTML parser rejects by matching the
// anchor markup directly.
func extractShowIDRaw(body []byte, name string) (string, bool) {
	pattern, err := regexp.Compile(`(?i)[?&](?:show)?id=(\d+)"\s*>\s*` + regexp.QuoteMeta(name) + `\s*</a>`)
	if err != nil {
		return "", false
	}
	m := pattern.FindSubmatch(body)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}
