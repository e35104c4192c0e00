package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/evcraddock/qa-forum/internal/answer"
	"github.com/evcraddock/qa-forum/internal/auth"
	"github.com/evcraddock/qa-forum/internal/lifecycle"
	"github.com/evcraddock/qa-forum/internal/question"
)

// Form fields.
const (
	fieldAnswerBody    = "answer[body]"
	fieldQuestionTitle = "question[title]"
	fieldQuestionBody  = "question[body]"
)

// page is the data every template receives.
type page struct {
	Title string
	Actor *auth.Actor
	Flash Flash
}

type listData struct {
	page
	Questions []*question.Question
}

type questionData struct {
	page
	Question *question.Question
	Answers  []*answer.Answer
	IsAsker  bool
}

type editData struct {
	page
	Answer *answer.Answer
}

type loginData struct {
	page
	Error string
}

func (s *Server) newPage(w http.ResponseWriter, r *http.Request, title string) page {
	return page{Title: title, Actor: auth.CurrentActor(r), Flash: popFlash(w, r)}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		slog.Debug("writing health response", "error", err)
	}
}

// handleLogin shows how to obtain a session. With ?session=<id> it stores
// the session cookie and continues to the question list.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		if auth.CurrentActor(r) != nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.render(w, http.StatusOK, "login.html", loginData{page: s.newPage(w, r, "Sign in")})
		return
	}

	_, expiresAt, err := s.sessions.Lookup(r.Context(), id)
	if errors.Is(err, auth.ErrNoSession) {
		s.render(w, http.StatusUnauthorized, "login.html", loginData{
			page:  s.newPage(w, r, "Sign in"),
			Error: "That session is unknown or has expired.",
		})
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.sessions.SetCookie(w, id, expiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout ends the current session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(w, r); err != nil {
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

// handleIndex lists questions, newest first.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	questions, err := s.questions.List(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "list.html", listData{
		page:      s.newPage(w, r, "Questions"),
		Questions: questions,
	})
}

// handleCreateQuestion asks a new question.
func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentActor(r)
	if actor == nil {
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}

	q, err := s.questions.Create(r.Context(), r.FormValue(fieldQuestionTitle), r.FormValue(fieldQuestionBody), actor.ID)
	if errors.Is(err, question.ErrTitleRequired) {
		setFlash(w, Flash{Alert: "Title can't be blank"})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	slog.Info("question created", "question_id", q.ID, "actor", actor.ID)
	setFlash(w, Flash{Notice: "Your question successfully created."})
	http.Redirect(w, r, lifecycle.QuestionPath(q.ID), http.StatusSeeOther)
}

// handleShowQuestion renders a question with its answers.
func (s *Server) handleShowQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	q, err := s.questions.GetByID(r.Context(), id)
	if errors.Is(err, question.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	answers, err := s.answers.ListByQuestionID(r.Context(), id)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	p := s.newPage(w, r, q.Title)
	s.render(w, http.StatusOK, "question.html", questionData{
		page:     p,
		Question: q,
		Answers:  answers,
		IsAsker:  p.Actor.Is(q.Author),
	})
}

// handleCreateAnswer posts an answer to a question.
func (s *Server) handleCreateAnswer(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathID(r, "question_id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	res, err := s.lifecycle.Create(r.Context(), auth.CurrentActor(r), questionID, answerAttributes(r))
	s.respond(w, r, res, err)
}

// handleEditAnswer shows the edit form.
func (s *Server) handleEditAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	res, err := s.lifecycle.Edit(r.Context(), auth.CurrentActor(r), id)
	if err == nil && res.Kind == lifecycle.Success {
		s.render(w, http.StatusOK, "edit.html", editData{
			page:   s.newPage(w, r, "Edit answer"),
			Answer: res.Answer,
		})
		return
	}
	s.respond(w, r, res, err)
}

// handleUpdateAnswer saves an edited answer.
func (s *Server) handleUpdateAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	res, err := s.lifecycle.Update(r.Context(), auth.CurrentActor(r), lifecycle.Ref(id), answerAttributes(r))
	s.respond(w, r, res, err)
}

// handleDestroyAnswer deletes an answer.
func (s *Server) handleDestroyAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	res, err := s.lifecycle.Destroy(r.Context(), auth.CurrentActor(r), lifecycle.Ref(id))
	s.respond(w, r, res, err)
}

// handleMarkBest marks an answer as its question's best.
func (s *Server) handleMarkBest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	res, err := s.lifecycle.MarkBest(r.Context(), auth.CurrentActor(r), id)
	s.respond(w, r, res, err)
}

// respond turns a lifecycle result into an HTTP response.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, res lifecycle.Result, err error) {
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	switch {
	case res.Kind == lifecycle.NotFound:
		http.NotFound(w, r)
	case res.Redisplay():
		p := s.newPage(w, r, "Edit answer")
		p.Flash = Flash{Alert: res.Alert}
		s.render(w, http.StatusUnprocessableEntity, "edit.html", editData{page: p, Answer: res.Answer})
	case res.Kind == lifecycle.Unauthenticated:
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
	default:
		setFlash(w, Flash{Notice: res.Notice, Alert: res.Alert})
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func answerAttributes(r *http.Request) answer.Attributes {
	return answer.Attributes{Body: r.FormValue(fieldAnswerBody)}
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
