// Package auth keeps the short-lived OAuth consent state in a signed cookie.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	SessionName     = "channelscribe_session"
	OAuthStateKey   = "oauth_state"
	ReturnRunKey    = "return_run"
	StateCreatedKey = "state_created_at"

	// stateTTL bounds how long the user may linger on the consent screen.
	stateTTL = 10 * time.Minute
)

var (
	ErrNoPendingAuth = errors.New("no pending authorization")
	ErrStateMismatch = errors.New("oauth state mismatch")
	ErrStateExpired  = errors.New("oauth state expired")
)

type SessionManager struct {
	store *sessions.CookieStore
}

func NewSessionManager(secret string) *SessionManager {
	if secret == "" {
		secret = generateSecret()
	}
	return &SessionManager{
		store: sessions.NewCookieStore([]byte(secret)),
	}
}

func generateSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}

// BeginOAuth stores a fresh state value and the run to return to after
// consent. The state is what gets passed to the provider.
func (sm *SessionManager) BeginOAuth(w http.ResponseWriter, r *http.Request, returnRun string) (string, error) {
	session, _ := sm.store.Get(r, SessionName)

	state := generateSecret()
	session.Values[OAuthStateKey] = state
	session.Values[ReturnRunKey] = returnRun
	session.Values[StateCreatedKey] = time.Now().Unix()

	isHTTPS := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
	session.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		// Lax so the cookie survives the top-level redirect back from Google.
		SameSite: http.SameSiteLaxMode,
		Secure:   isHTTPS,
	}

	if err := session.Save(r, w); err != nil {
		return "", err
	}
	return state, nil
}

// FinishOAuth checks state against the pending authorization, clears it and
// returns the run the user came from.
func (sm *SessionManager) FinishOAuth(w http.ResponseWriter, r *http.Request, state string) (string, error) {
	session, err := sm.store.Get(r, SessionName)
	if err != nil {
		_, cookieErr := r.Cookie(SessionName)
		slog.Warn("failed to decode session", "error", err, "host", r.Host, "has_cookie", cookieErr == nil)
		return "", ErrNoPendingAuth
	}

	want, ok := session.Values[OAuthStateKey].(string)
	if !ok || want == "" {
		return "", ErrNoPendingAuth
	}
	returnRun, _ := session.Values[ReturnRunKey].(string)
	created, _ := session.Values[StateCreatedKey].(int64)

	delete(session.Values, OAuthStateKey)
	delete(session.Values, ReturnRunKey)
	delete(session.Values, StateCreatedKey)
	if err := session.Save(r, w); err != nil {
		slog.Warn("failed to clear oauth state", "error", err)
	}

	if state != want {
		return "", ErrStateMismatch
	}
	if time.Since(time.Unix(created, 0)) > stateTTL {
		return "", ErrStateExpired
	}
	return returnRun, nil
}

func (sm *SessionManager) ClearSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := sm.store.Get(r, SessionName)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
