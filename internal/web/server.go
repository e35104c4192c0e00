// Package web serves the forum's HTML interface: question pages and the
// answer create, edit, update, destroy and best-answer actions.
package web

import (
	"bytes"
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/qa-forum/internal/answer"
	"github.com/evcraddock/qa-forum/internal/auth"
	"github.com/evcraddock/qa-forum/internal/lifecycle"
	"github.com/evcraddock/qa-forum/internal/logging"
	"github.com/evcraddock/qa-forum/internal/question"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server is the forum HTTP server.
type Server struct {
	questions *question.Repository
	answers   *answer.Repository
	lifecycle *lifecycle.Handler
	sessions  *auth.SessionStore
	templates *template.Template
	mux       *http.ServeMux
	handler   http.Handler
}

// NewServer creates a web server on db. Answer events are queued on
// dispatcher, which may be nil.
func NewServer(db *sql.DB, sessions *auth.SessionStore, dispatcher lifecycle.Dispatcher, policy lifecycle.Policy) (*Server, error) {
	funcMap := template.FuncMap{
		"body":       tmplBody,
		"formatTime": tmplFormatTime,
		"isBest":     tmplIsBest,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	questions := question.NewRepository(db)
	answers := answer.NewRepository(db)

	s := &Server{
		questions: questions,
		answers:   answers,
		sessions:  sessions,
		templates: tmpl,
		lifecycle: lifecycle.NewHandler(questions, answers, dispatcher, policy),
		mux:       http.NewServeMux(),
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /login", s.handleLogin)
	s.mux.HandleFunc("POST /logout", s.handleLogout)

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /questions", s.handleCreateQuestion)
	s.mux.HandleFunc("GET /questions/{id}", s.handleShowQuestion)

	s.mux.HandleFunc("POST /questions/{question_id}/answers", s.handleCreateAnswer)
	s.mux.HandleFunc("GET /answers/{id}/edit", s.handleEditAnswer)
	s.mux.HandleFunc("PATCH /answers/{id}", s.handleUpdateAnswer)
	s.mux.HandleFunc("PUT /answers/{id}", s.handleUpdateAnswer)
	s.mux.HandleFunc("DELETE /answers/{id}", s.handleDestroyAnswer)
	s.mux.HandleFunc("PATCH /answers/{id}/best", s.handleMarkBest)

	s.handler = logging.RequestLogger(methodOverride(auth.RequireAuth(sessions, s.mux)))

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// HTTPServer returns an http.Server for s listening on port.
func (s *Server) HTTPServer(port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// render executes a page template and writes it with status.
func (s *Server) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("writing response", "template", name, "error", err)
	}
}

// Template helper functions

// tmplBody renders a stored answer or question body. Bodies are stored raw
// and sanitized only here.
func tmplBody(s string) template.HTML {
	return template.HTML(answer.Sanitize(s))
}

func tmplFormatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

func tmplIsBest(q *question.Question, a *answer.Answer) bool {
	return q != nil && a != nil && q.BestAnswerID != nil && *q.BestAnswerID == a.ID
}
