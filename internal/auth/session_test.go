package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/qa-forum/internal/db"
)

func TestSessionCreateAndValidate(t *testing.T) {
	store := testSessionStore(t)

	w := httptest.NewRecorder()
	if err := store.Create(w, httptest.NewRequest("GET", "/", nil), "Admin@Example.com"); err != nil {
		t.Fatalf("create: %v", err)
	}

	sessionCookie := findCookie(t, w)

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookie)

	email, err := store.Validate(r)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if email != "admin@example.com" {
		t.Errorf("email = %q, want %q", email, "admin@example.com")
	}
}

func TestSessionCookieSecureFlag(t *testing.T) {
	for _, secure := range []bool{false, true} {
		d := testDB(t)
		store := NewSessionStore(d, secure)

		w := httptest.NewRecorder()
		if err := store.Create(w, httptest.NewRequest("GET", "/", nil), "a@example.com"); err != nil {
			t.Fatalf("create: %v", err)
		}
		c := findCookie(t, w)
		if c.Secure != secure {
			t.Errorf("secure = %v, want %v", c.Secure, secure)
		}
		if !c.HttpOnly {
			t.Error("expected HttpOnly cookie")
		}
	}
}

func TestSessionIssueRequiresEmail(t *testing.T) {
	store := testSessionStore(t)

	if _, _, err := store.Issue(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank email")
	}
}

func TestSessionValidateNoCookie(t *testing.T) {
	store := testSessionStore(t)

	r := httptest.NewRequest("GET", "/", nil)
	if _, err := store.Validate(r); err != ErrNoSession {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestSessionValidateInvalidCookie(t *testing.T) {
	store := testSessionStore(t)

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: cookieName, Value: "bogus-session-id"})

	if _, err := store.Validate(r); err != ErrNoSession {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestSessionValidateExpired(t *testing.T) {
	d := testDB(t)
	store := NewSessionStore(d, false)

	if _, err := d.Exec(
		"INSERT INTO sessions (id, email, expires_at) VALUES (?, ?, ?)",
		"expired-id", "old@example.com", time.Now().Add(-time.Hour),
	); err != nil {
		t.Fatalf("insert expired session: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: cookieName, Value: "expired-id"})
	if _, err := store.Validate(r); err != ErrNoSession {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}

	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM sessions WHERE id = ?", "expired-id").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Error("expected expired session to be deleted")
	}
}

func TestSessionDestroy(t *testing.T) {
	store := testSessionStore(t)

	w := httptest.NewRecorder()
	if err := store.Create(w, httptest.NewRequest("GET", "/", nil), "admin@example.com"); err != nil {
		t.Fatalf("create: %v", err)
	}
	sessionCookie := findCookie(t, w)

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookie)
	w2 := httptest.NewRecorder()

	if err := store.Destroy(w2, r); err != nil {
		t.Fatalf("destroy: %v", err)
	}

	r2 := httptest.NewRequest("GET", "/", nil)
	r2.AddCookie(sessionCookie)
	if _, err := store.Validate(r2); err == nil {
		t.Fatal("expected error after destroy")
	}
}

func TestSessionCleanup(t *testing.T) {
	d := testDB(t)
	store := NewSessionStore(d, false)
	ctx := context.Background()

	if _, _, err := store.Issue(ctx, "live@example.com"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := d.Exec(
		"INSERT INTO sessions (id, email, expires_at) VALUES (?, ?, ?)",
		"stale", "old@example.com", time.Now().Add(-time.Hour),
	); err != nil {
		t.Fatalf("insert stale session: %v", err)
	}

	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("sessions = %d, want 1", count)
	}
}

func findCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("expected cookie named %q", cookieName)
	return nil
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return d
}

func testSessionStore(t *testing.T) *SessionStore {
	t.Helper()
	return NewSessionStore(testDB(t), false)
}

func TestSessionLookup(t *testing.T) {
	store := testSessionStore(t)
	ctx := context.Background()

	id, expiresAt, err := store.Issue(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	email, gotExpiry, err := store.Lookup(ctx, id)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if email != "bob@example.com" {
		t.Errorf("email = %q, want bob@example.com", email)
	}
	if d := gotExpiry.Sub(expiresAt); d > time.Second || d < -time.Second {
		t.Errorf("expires_at = %v, want %v", gotExpiry, expiresAt)
	}

	if _, _, err := store.Lookup(ctx, "unknown"); !errors.Is(err, ErrNoSession) {
		t.Errorf("unknown session err = %v, want ErrNoSession", err)
	}
}

func TestSessionSetCookie(t *testing.T) {
	store := testSessionStore(t)
	expiresAt := time.Now().Add(time.Hour)

	w := httptest.NewRecorder()
	store.SetCookie(w, "abc", expiresAt)

	c := findCookie(t, w)
	if c.Value != "abc" {
		t.Errorf("value = %q, want abc", c.Value)
	}
	if !c.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
}
