// Package session holds the authenticated user for the lifetime of the
// process. It is an explicit object with init and teardown rather than
// package-level state; everything that needs the current user asks the
// manager.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/execos/execos/internal/apperrors"
	"github.com/execos/execos/internal/metrics"
	"github.com/execos/execos/internal/model"
	"github.com/execos/execos/internal/platform"
)

// Session errors.
var (
	ErrEmailRequired      = fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	ErrPasswordRequired   = fmt.Errorf("%w: password is required", apperrors.ErrValidation)
	ErrTokenRequired      = fmt.Errorf("%w: session token is required", apperrors.ErrValidation)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperrors.ErrNotAuthorized)
	ErrSessionExpired     = fmt.Errorf("%w: session expired", apperrors.ErrNotAuthorized)
	ErrEmailTaken         = fmt.Errorf("%w: email is already registered", apperrors.ErrConflict)
	ErrNotAuthenticated   = fmt.Errorf("%w: not logged in", apperrors.ErrNotAuthorized)
)

// State is a snapshot of the session handed to change watchers.
type State struct {
	User          *model.User
	Authenticated bool
}

// Manager tracks the authenticated user and keeps the platform client's
// bearer token in sync with it.
type Manager struct {
	client  *platform.Client
	account *platform.Account
	logger  *slog.Logger
	metrics metrics.Recorder

	mu        sync.RWMutex
	user      *model.User
	token     string
	expiresAt time.Time

	watchMu  sync.Mutex
	watchers map[int]func(State)
	nextID   int
}

// NewManager creates a session manager over the platform client.
func NewManager(client *platform.Client, account *platform.Account, logger *slog.Logger, recorder metrics.Recorder) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return &Manager{
		client:   client,
		account:  account,
		logger:   logger.With("component", "session"),
		metrics:  recorder,
		watchers: make(map[int]func(State)),
	}
}

// Register creates a new account and starts a session for it.
func (m *Manager) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	session, err := m.account.Register(ctx, email, password, name)
	if err != nil {
		if platform.IsConflict(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	m.adopt(session)
	m.metrics.IncAuthEvent("register")
	m.logger.Info("user registered", "user_id", session.User.ID)

	return m.Current(), nil
}

// Login exchanges credentials for a session.
func (m *Manager) Login(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	session, err := m.account.Login(ctx, email, password)
	if err != nil {
		if platform.IsUnauthorized(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	m.adopt(session)
	m.metrics.IncAuthEvent("login")
	m.logger.Info("user logged in", "user_id", session.User.ID)

	return m.Current(), nil
}

// Logout invalidates the session on the platform and clears local state.
// Local state is cleared even when the remote call fails; the error
// still propagates so the caller can see it.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.account.Logout(ctx)

	m.clear()
	m.metrics.IncAuthEvent("logout")
	m.logger.Info("user logged out")

	if err != nil {
		return fmt.Errorf("failed to invalidate remote session: %w", err)
	}
	return nil
}

// Resume restores a session from a previously issued token. An expired
// or revoked token clears the client's auth state and fails.
func (m *Manager) Resume(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}

	m.client.SetAuthToken(token)
	user, err := m.account.Me(ctx)
	if err != nil {
		m.client.ClearAuthToken()
		if platform.IsUnauthorized(err) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}

	m.adopt(&platform.Session{User: *user, Token: token})
	m.metrics.IncAuthEvent("resume")
	m.logger.Debug("session resumed", "user_id", user.ID)

	return m.Current(), nil
}

// Current returns the authenticated user, or nil when logged out.
func (m *Manager) Current() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	user := *m.user
	return &user
}

// IsAuthenticated reports whether a user is logged in.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// Token returns the session token, or empty when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// ExpiresAt returns the token's expiry when the token carries one.
func (m *Manager) ExpiresAt() (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiresAt, !m.expiresAt.IsZero()
}

// OnChange registers a watcher invoked after every login, logout and
// resume. It returns an unsubscribe function.
func (m *Manager) OnChange(fn func(State)) func() {
	m.watchMu.Lock()
	id := m.nextID
	m.nextID++
	m.watchers[id] = fn
	m.watchMu.Unlock()

	return func() {
		m.watchMu.Lock()
		delete(m.watchers, id)
		m.watchMu.Unlock()
	}
}

func (m *Manager) adopt(session *platform.Session) {
	m.mu.Lock()
	user := session.User
	m.user = &user
	m.token = session.Token
	m.expiresAt = tokenExpiry(session.Token)
	m.mu.Unlock()

	m.client.SetAuthToken(session.Token)
	m.notify()
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()

	m.client.ClearAuthToken()
	m.notify()
}

func (m *Manager) notify() {
	state := State{User: m.Current(), Authenticated: m.IsAuthenticated()}

	m.watchMu.Lock()
	watchers := make([]func(State), 0, len(m.watchers))
	for _, fn := range m.watchers {
		watchers = append(watchers, fn)
	}
	m.watchMu.Unlock()

	for _, fn := range watchers {
		fn(state)
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// platform owns the signing key, the client only schedules around it.
func tokenExpiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
