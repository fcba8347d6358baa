// Package session owns the authentication state of the client. Every
// consumer goes through the Manager; nothing else reads the stored token
// bundle directly.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"voxvid-client/internal/store"
)

// TokenBundle is the pair issued by the VoxVid API on login/register.
type TokenBundle struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Manager caches the persisted token bundle and answers authentication
// queries. Sign-out listeners are notified whenever the session ends,
// whether by user action or by expiry.
type Manager struct {
	logger *slog.Logger
	store  *store.Store

	mu     sync.RWMutex
	bundle *TokenBundle

	subMu       sync.Mutex
	subscribers []func()

	// now is swappable in tests.
	now func() time.Time
}

func NewManager(logger *slog.Logger, st *store.Store) *Manager {
	m := &Manager{logger: logger, store: st, now: time.Now}

	var bundle TokenBundle
	ok, err := st.Get(store.KeyTokens, &bundle)
	if err != nil {
		// A corrupt bundle is treated like an absent one: fail closed.
		logger.Warn("discarding unreadable token bundle", "error", err)
		_ = st.Delete(store.KeyTokens)
		return m
	}
	if ok {
		m.bundle = &bundle
	}
	return m
}

// SignIn stores a fresh bundle as the active session.
func (m *Manager) SignIn(bundle TokenBundle) error {
	if bundle.Access == "" {
		return fmt.Errorf("refusing to store empty access token")
	}
	if err := m.store.Set(store.KeyTokens, bundle); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}
	m.mu.Lock()
	m.bundle = &bundle
	m.mu.Unlock()
	return nil
}

// SignOut clears the session and notifies subscribers.
func (m *Manager) SignOut() {
	m.mu.Lock()
	had := m.bundle != nil
	m.bundle = nil
	m.mu.Unlock()

	if err := m.store.Delete(store.KeyTokens); err != nil {
		m.logger.Error("failed to clear stored tokens", "error", err)
	}
	if had {
		m.notify()
	}
}

// AccessToken returns the current access token. The second result is
// false when there is no live session; an expired or undecodable token
// is cleared on the way out.
func (m *Manager) AccessToken() (string, bool) {
	m.mu.RLock()
	bundle := m.bundle
	m.mu.RUnlock()

	if bundle == nil {
		return "", false
	}
	if !m.accessValid(bundle.Access) {
		m.SignOut()
		return "", false
	}
	return bundle.Access, true
}

// IsAuthenticated reports whether a non-expired session exists.
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.AccessToken()
	return ok
}

// Subscribe registers fn to run after every sign-out.
func (m *Manager) Subscribe(fn func()) {
	m.subMu.Lock()
	m.subscribers = append(m.subscribers, fn)
	m.subMu.Unlock()
}

func (m *Manager) notify() {
	m.subMu.Lock()
	subs := make([]func(), len(m.subscribers))
	copy(subs, m.subscribers)
	m.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// accessValid decodes the token without verifying its signature (the
// client holds no key) and checks the exp claim against the clock. A
// token that cannot be decoded is invalid; a token without an exp claim
// is accepted, matching the server's own issuance contract.
func (m *Manager) accessValid(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		m.logger.Warn("undecodable access token", "error", err)
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return false
	}
	if exp == nil {
		return true
	}
	return exp.Time.After(m.now())
}
