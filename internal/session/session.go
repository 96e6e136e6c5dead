// Package session establishes the authenticated tracker session for one run.
//
// A Manager performs exactly one login attempt. It never retries and never
// caches credentials; a rejected or failed login is fatal for the run.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"showmark/internal/logging"
	"showmark/internal/myepisodes"
	"showmark/internal/services"
)

// ErrAlreadyAttempted is returned when Login is called twice on one Manager.
var ErrAlreadyAttempted = errors.New("session: login already attempted")

// Credentials are the tracker account details.
type Credentials struct {
	Username string
	Password string
}

// Tracker is the tracker transport a session authenticates and then drives.
type Tracker interface {
	Login(ctx context.Context, username, password string) ([]byte, error)
	Search(ctx context.Context, showName string) ([]byte, error)
	MarkAcquired(ctx context.Context, showID string, season, episode int) error
}

// Session is an authenticated tracker transport owned by a single run.
type Session struct {
	Authenticated bool
	Username      string
	transport     Tracker
}

// Search runs a tracker search through the session's transport.
func (s *Session) Search(ctx context.Context, showName string) ([]byte, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.transport.Search(ctx, showName)
}

// MarkAcquired marks an episode through the session's transport.
func (s *Session) MarkAcquired(ctx context.Context, showID string, season, episode int) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.transport.MarkAcquired(ctx, showID, season, episode)
}

func (s *Session) check() error {
	if s == nil || !s.Authenticated || s.transport == nil {
		return services.Wrap(services.ErrAuthentication, "session", "use", "Session is not authenticated", nil)
	}
	return nil
}

// Manager performs the single login attempt for a run.
type Manager struct {
	tracker   Tracker
	logger    *slog.Logger
	mu        sync.Mutex
	attempted bool
}

// NewManager constructs a Manager around a tracker transport.
func NewManager(tracker Tracker, logger *slog.Logger) *Manager {
	return &Manager{
		tracker: tracker,
		logger:  logging.NewComponentLogger(logger, "session"),
	}
}

// Login authenticates once. Transport failures are tagged ErrTransport and a
// response without the success marker is ErrAuthentication; both abort the run.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempted {
		return nil, ErrAlreadyAttempted
	}
	m.attempted = true

	username := strings.TrimSpace(creds.Username)
	if username == "" || creds.Password == "" {
		return nil, services.Wrap(services.ErrInvalidInput, "session", "login", "Username and password are required", nil)
	}
	if m.tracker == nil {
		return nil, services.Wrap(services.ErrConfiguration, "session", "login", "No tracker transport configured", nil)
	}

	logger := logging.WithContext(ctx, m.logger)
	body, err := m.tracker.Login(ctx, username, creds.Password)
	if err != nil {
		logging.ErrorWithContext(logger, "tracker login failed", "login_transport_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access and myepisodes.base_url"))
		if errors.Is(err, services.ErrTransport) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrTransport, "session", "login", "Request failed", err)
	}

	if myepisodes.ClassifyLogin(body, username) != myepisodes.LoginAccepted {
		logging.ErrorWithContext(logger, "tracker rejected login", "login_rejected",
			logging.String("username", username),
			logging.String(logging.FieldErrorHint, "verify myepisodes.username and password, or check whether the site is down"))
		return nil, services.Wrap(services.ErrAuthentication, "session", "login", "Response did not confirm the account", nil)
	}

	logger.Info("tracker login succeeded", logging.String("username", username))
	return &Session{Authenticated: true, Username: username, transport: m.tracker}, nil
}
