package http

import (
	"errors"
	"net/http"
	"strconv"

	auth "github.com/phuclab/mathlms/internal/auth/middleware"
	"github.com/phuclab/mathlms/internal/quiz"
)

// attemptView is the attempt as students see it. Answer keys and solutions
// are withheld until the attempt is complete.
type attemptView struct {
	quiz.Attempt
	Result *quiz.Result `json:"result,omitempty"`
}

func sanitizeAttempt(a quiz.Attempt, res *quiz.Result) attemptView {
	if !a.Complete {
		qs := make([]quiz.Question, len(a.Questions))
		for i, q := range a.Questions {
			q.AnswerKey = ""
			q.Solution = ""
			qs[i] = q
		}
		a.Questions = qs
		a.Correct = nil
	}
	return attemptView{Attempt: a, Result: res}
}

// controllerFor returns the caller's quiz controller, or replies 404 when no
// quiz has been started this session.
func (s *Server) controllerFor(w http.ResponseWriter, r *http.Request) (*quiz.Controller, bool) {
	ctrl, ok := s.Quizzes.Get(auth.EmailFromContext(r.Context()))
	if !ok {
		http.Error(w, "no active quiz", http.StatusNotFound)
		return nil, false
	}
	return ctrl, true
}

func quizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrNoActiveAttempt):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quiz.ErrAttemptComplete):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, quiz.ErrNoQuestions):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quiz.ErrIndexOutOfRange), errors.Is(err, quiz.ErrBadSlot):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func (s *Server) TopicsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grade, err := strconv.Atoi(r.URL.Query().Get("grade"))
		if err != nil || grade < 1 {
			http.Error(w, "grade required", http.StatusBadRequest)
			return
		}
		topics, err := s.Sheet.FetchTopics(r.Context(), grade)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
	}
}

func (s *Server) ProgressHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := auth.EmailFromContext(r.Context())
		progress, err := s.Sheet.FetchUserProgress(r.Context(), email)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"progress": progress})
	}
}

func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grade, err := strconv.Atoi(r.URL.Query().Get("grade"))
		if err != nil || grade < 1 {
			http.Error(w, "grade required", http.StatusBadRequest)
			return
		}
		entries, err := s.Sheet.FetchLeaderboard(r.Context(), grade)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
	}
}

func (s *Server) TheoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		grade, _ := strconv.Atoi(q.Get("grade"))
		level, _ := strconv.Atoi(q.Get("level"))
		topic := q.Get("topic")
		if grade < 1 || level < 1 || topic == "" {
			http.Error(w, "grade, topic and level required", http.StatusBadRequest)
			return
		}
		theory, err := s.Sheet.FetchTheory(r.Context(), grade, topic, level)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, theory)
	}
}

type startQuizRequest struct {
	Grade int    `json:"grade"`
	Topic string `json:"topic"`
	Level int    `json:"level"`
}

func (s *Server) StartQuizHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startQuizRequest
		if !readJSON(w, r, &req) {
			return
		}
		if req.Grade < 1 || req.Level < 1 || req.Topic == "" {
			http.Error(w, "grade, topic and level required", http.StatusBadRequest)
			return
		}

		email := auth.EmailFromContext(r.Context())
		sess, ok := s.Sessions.Get(auth.SessionIDFromContext(r.Context()))
		if !ok {
			http.Error(w, "session expired", http.StatusUnauthorized)
			return
		}
		ctrl := s.Quizzes.GetOrCreate(email, func() *quiz.Controller {
			return quiz.NewController(email, sess.Role, sess.SheetToken, quiz.Deps{
				Source:  s.Sheet,
				Submit:  s.Sheet,
				Report:  s.Sheet,
				Archive: s.Archive,
				Hints:   s.trackerFor(email),
			})
		})

		attempt, err := ctrl.Start(r.Context(), req.Grade, req.Topic, req.Level)
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sanitizeAttempt(*attempt, nil))
	}
}

type answerRequest struct {
	Index int    `json:"index"`
	Value string `json:"value"`
}

func (s *Server) AnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := s.controllerFor(w, r)
		if !ok {
			return
		}
		var req answerRequest
		if !readJSON(w, r, &req) {
			return
		}
		if err := ctrl.SetAnswer(req.Index, req.Value); err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

type subAnswerRequest struct {
	Index   int    `json:"index"`
	Slot    string `json:"slot"`
	Verdict string `json:"verdict"`
}

func (s *Server) SubAnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := s.controllerFor(w, r)
		if !ok {
			return
		}
		var req subAnswerRequest
		if !readJSON(w, r, &req) {
			return
		}
		v, ok := quiz.ParseVerdict(req.Verdict)
		if !ok {
			http.Error(w, "verdict must be T, F or N", http.StatusBadRequest)
			return
		}
		if err := ctrl.SetSubAnswer(req.Index, quiz.Slot(req.Slot), v); err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

type navigateRequest struct {
	Delta int `json:"delta"`
}

func (s *Server) NavigateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := s.controllerFor(w, r)
		if !ok {
			return
		}
		var req navigateRequest
		if !readJSON(w, r, &req) {
			return
		}
		idx, err := ctrl.Navigate(req.Delta)
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"current": idx})
	}
}

type visibilityRequest struct {
	Hidden bool `json:"hidden"`
}

// VisibilityHandler receives page-visibility transitions from the client. Only
// the hidden transition matters; it counts a tab switch and force-finishes the
// quiz for students.
func (s *Server) VisibilityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := s.controllerFor(w, r)
		if !ok {
			return
		}
		var req visibilityRequest
		if !readJSON(w, r, &req) {
			return
		}
		if req.Hidden {
			if err := ctrl.ReportHidden(r.Context()); err != nil {
				quizError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (s *Server) FinishHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := s.controllerFor(w, r)
		if !ok {
			return
		}
		if err := ctrl.Finish(r.Context(), quiz.ReasonNormal); err != nil {
			quizError(w, err)
			return
		}
		a, res, _ := ctrl.Snapshot()
		writeJSON(w, http.StatusOK, sanitizeAttempt(a, res))
	}
}

func (s *Server) StateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := s.controllerFor(w, r)
		if !ok {
			return
		}
		a, res, ok := ctrl.Snapshot()
		if !ok {
			http.Error(w, "no active quiz", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, sanitizeAttempt(a, res))
	}
}

// ResultHandler returns the finished attempt with full detail, including
// answer keys and solutions for review. The remote verdict may still be nil
// when the submission has not been confirmed yet.
func (s *Server) ResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := s.controllerFor(w, r)
		if !ok {
			return
		}
		a, res, ok := ctrl.Snapshot()
		if !ok || !a.Complete {
			http.Error(w, "quiz not finished", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, attemptView{Attempt: a, Result: res})
	}
}

func (s *Server) HistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := auth.EmailFromContext(r.Context())
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		attempts, err := s.Archive.ListByUser(r.Context(), email, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
	}
}
