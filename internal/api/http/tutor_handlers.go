package http

import (
	"net/http"

	"github.com/samber/lo"

	auth "github.com/phuclab/mathlms/internal/auth/middleware"
	"github.com/phuclab/mathlms/internal/quiz"
	"github.com/phuclab/mathlms/internal/tutor"
)

type tutorAskRequest struct {
	Message string `json:"message"`
	// Index picks the question under discussion; -1 means the current one.
	Index int `json:"index"`
}

// questionContext builds what the tutor may know about one question of the
// caller's attempt. The correct answer goes in; the prompt gating decides at
// which hint level it may surface.
func questionContext(a quiz.Attempt, index int) *tutor.Context {
	if index < 0 {
		index = a.Current
	}
	if index >= len(a.Questions) {
		return nil
	}
	q := a.Questions[index]
	opts := lo.Map([]quiz.Slot{quiz.SlotA, quiz.SlotB, quiz.SlotC, quiz.SlotD},
		func(s quiz.Slot, _ int) string { return q.Option(s) })
	return &tutor.Context{
		QuestionID:    q.ID,
		QuestionText:  q.Text,
		Options:       opts,
		UserAnswer:    a.Answers[index],
		CorrectAnswer: q.AnswerKey,
	}
}

func (s *Server) TutorAskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := s.controllerFor(w, r)
		if !ok {
			return
		}
		var req tutorAskRequest
		if !readJSON(w, r, &req) {
			return
		}
		if req.Message == "" {
			http.Error(w, "message required", http.StatusBadRequest)
			return
		}
		a, _, ok := ctrl.Snapshot()
		if !ok {
			http.Error(w, "no active quiz", http.StatusNotFound)
			return
		}
		qctx := questionContext(a, req.Index)
		if qctx == nil {
			http.Error(w, "question index out of range", http.StatusBadRequest)
			return
		}
		tracker := s.trackerFor(auth.EmailFromContext(r.Context()))
		resp := s.Tutor.Ask(r.Context(), tracker, req.Message, qctx)
		writeJSON(w, http.StatusOK, resp)
	}
}

type quickHintRequest struct {
	QuestionText string `json:"question_text"`
}

func (s *Server) QuickHintHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quickHintRequest
		if !readJSON(w, r, &req) {
			return
		}
		if req.QuestionText == "" {
			http.Error(w, "question_text required", http.StatusBadRequest)
			return
		}
		hint := s.Tutor.QuickHint(r.Context(), req.QuestionText)
		writeJSON(w, http.StatusOK, map[string]string{"hint": hint})
	}
}

type explainRequest struct {
	Index int `json:"index"`
}

// ExplainHandler explains a wrong answer after the quiz is finished. Before
// completion the answer key stays server-side, so this refuses mid-quiz calls.
func (s *Server) ExplainHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := s.controllerFor(w, r)
		if !ok {
			return
		}
		var req explainRequest
		if !readJSON(w, r, &req) {
			return
		}
		a, _, ok := ctrl.Snapshot()
		if !ok || !a.Complete {
			http.Error(w, "quiz not finished", http.StatusConflict)
			return
		}
		if req.Index < 0 || req.Index >= len(a.Questions) {
			http.Error(w, "question index out of range", http.StatusBadRequest)
			return
		}
		q := a.Questions[req.Index]
		opts := lo.Map([]quiz.Slot{quiz.SlotA, quiz.SlotB, quiz.SlotC, quiz.SlotD},
			func(sl quiz.Slot, _ int) string { return q.Option(sl) })
		explanation := s.Tutor.ExplainWrongAnswer(r.Context(), q.Text, opts, a.Answers[req.Index], q.AnswerKey)
		writeJSON(w, http.StatusOK, map[string]string{"explanation": explanation})
	}
}
