package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	sessionExpiry = 30 * 24 * time.Hour // 30 days
	cookieName    = "qa_session"
)

// ErrNoSession is returned when a request carries no usable session.
var ErrNoSession = errors.New("no valid session")

// SessionStore manages sessions in SQLite.
type SessionStore struct {
	db     *sql.DB
	secure bool
}

// NewSessionStore creates a session store. secure marks the cookie
// Secure so it is only sent over HTTPS.
func NewSessionStore(db *sql.DB, secure bool) *SessionStore {
	return &SessionStore{db: db, secure: secure}
}

// CookieName is the name of the session cookie.
func CookieName() string {
	return cookieName
}

// Issue stores a new session for email and returns its ID without
// touching any response.
func (s *SessionStore) Issue(ctx context.Context, email string) (string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", time.Time{}, fmt.Errorf("email is required")
	}

	id, err := generateSessionID()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generating session ID: %w", err)
	}

	expiresAt := time.Now().Add(sessionExpiry)

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, email, expires_at) VALUES (?, ?, ?)",
		id, email, expiresAt,
	); err != nil {
		return "", time.Time{}, fmt.Errorf("storing session: %w", err)
	}

	return id, expiresAt, nil
}

// Create issues a new session for the given email and sets the cookie.
func (s *SessionStore) Create(w http.ResponseWriter, r *http.Request, email string) error {
	id, expiresAt, err := s.Issue(r.Context(), email)
	if err != nil {
		return err
	}
	s.SetCookie(w, id, expiresAt)
	return nil
}

// SetCookie writes the session cookie for an already issued session.
func (s *SessionStore) SetCookie(w http.ResponseWriter, id string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Validate checks the session cookie and returns the email if valid.
func (s *SessionStore) Validate(r *http.Request) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", ErrNoSession
	}
	email, _, err := s.Lookup(r.Context(), cookie.Value)
	return email, err
}

// Lookup returns the email and expiry of session id. Unknown and expired
// sessions yield ErrNoSession; expired rows are removed.
func (s *SessionStore) Lookup(ctx context.Context, id string) (string, time.Time, error) {
	var email string
	var expiresAt time.Time

	err := s.db.QueryRowContext(ctx,
		"SELECT email, expires_at FROM sessions WHERE id = ?",
		id,
	).Scan(&email, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, ErrNoSession
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("querying session: %w", err)
	}

	if time.Now().After(expiresAt) {
		if _, delErr := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); delErr != nil {
			return "", time.Time{}, fmt.Errorf("deleting expired session: %w", delErr)
		}
		return "", time.Time{}, ErrNoSession
	}

	return email, expiresAt, nil
}

// Destroy removes the session and clears the cookie.
func (s *SessionStore) Destroy(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil // no session to destroy
	}

	if _, err := s.db.ExecContext(r.Context(), "DELETE FROM sessions WHERE id = ?", cookie.Value); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Cleanup removes expired sessions.
func (s *SessionStore) Cleanup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < ?",
		time.Now(),
	); err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	return nil
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
