package session

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"voxvid-client/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewManager(testLogger(), st), st
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestSignInRejectsEmptyAccessToken(t *testing.T) {
	m, _ := newTestManager(t)
	require.Error(t, m.SignIn(TokenBundle{Refresh: "r"}))
	require.False(t, m.IsAuthenticated())
}

func TestAccessTokenWithFutureExpiry(t *testing.T) {
	m, _ := newTestManager(t)
	access := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, m.SignIn(TokenBundle{Access: access, Refresh: "r"}))

	got, ok := m.AccessToken()
	require.True(t, ok)
	require.Equal(t, access, got)
	require.True(t, m.IsAuthenticated())
}

func TestExpiredTokenEndsSession(t *testing.T) {
	m, st := newTestManager(t)
	access := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, m.SignIn(TokenBundle{Access: access, Refresh: "r"}))

	// Move the clock past the expiry.
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, ok := m.AccessToken()
	require.False(t, ok)
	require.False(t, m.IsAuthenticated())

	// The stored bundle is cleared, not just the cached one.
	var bundle TokenBundle
	found, err := st.Get(store.KeyTokens, &bundle)
	require.NoError(t, err)
	require.False(t, found)
}

func TestTokenWithoutExpiryIsAccepted(t *testing.T) {
	m, _ := newTestManager(t)
	access := signedToken(t, jwt.MapClaims{"user_id": 7})
	require.NoError(t, m.SignIn(TokenBundle{Access: access}))
	require.True(t, m.IsAuthenticated())
}

func TestUndecodableTokenEndsSession(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.SignIn(TokenBundle{Access: "not-a-jwt"}))
	require.False(t, m.IsAuthenticated())
}

func TestSessionSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(dir)
	require.NoError(t, err)

	access := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	m := NewManager(testLogger(), st)
	require.NoError(t, m.SignIn(TokenBundle{Access: access, Refresh: "r"}))
	require.NoError(t, st.Close())

	st2, err := store.Open(dir)
	require.NoError(t, err)
	defer st2.Close()

	m2 := NewManager(testLogger(), st2)
	require.True(t, m2.IsAuthenticated())
}

func TestSignOutNotifiesSubscribers(t *testing.T) {
	m, _ := newTestManager(t)
	access := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, m.SignIn(TokenBundle{Access: access}))

	calls := 0
	m.Subscribe(func() { calls++ })

	m.SignOut()
	require.Equal(t, 1, calls)

	// A second sign-out with no live session stays quiet.
	m.SignOut()
	require.Equal(t, 1, calls)
}

func TestGuardRedirectsAnonymousVisitors(t *testing.T) {
	m, _ := newTestManager(t)

	reached := false
	handler := m.Guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))

	require.False(t, reached)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestGuardPassesAuthenticatedVisitors(t *testing.T) {
	m, _ := newTestManager(t)
	access := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, m.SignIn(TokenBundle{Access: access}))

	reached := false
	handler := m.Guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))

	require.True(t, reached)
	require.Equal(t, http.StatusOK, rec.Code)
}
