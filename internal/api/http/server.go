// Package http is the gateway surface: auth, the student quiz flow, the AI
// tutor, and the teacher content tools. Handlers stay thin; every rule about
// quiz state lives in the quiz package and every piece of business data in
// the spreadsheet-backed system of record.
package http

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	auth "github.com/phuclab/mathlms/internal/auth/middleware"
	"github.com/phuclab/mathlms/internal/genai"
	"github.com/phuclab/mathlms/internal/quiz"
	"github.com/phuclab/mathlms/internal/rbac"
	"github.com/phuclab/mathlms/internal/session"
	"github.com/phuclab/mathlms/internal/sheetapi"
	"github.com/phuclab/mathlms/internal/tutor"
)

type Server struct {
	Auth     *auth.AuthService
	Sessions *session.Registry
	Quizzes  *quiz.Registry
	Sheet    *sheetapi.Client
	Tutor    *tutor.Service
	GenAI    *genai.Service
	Archive  *quiz.SQLArchive

	// Local fallback credentials (bcrypt hash) for when the sheet API is down.
	AdminUser     string
	AdminPassHash string

	HeartbeatInterval time.Duration

	mu       sync.Mutex
	trackers map[string]*tutor.HintTracker // per-user hint levels
}

// trackerFor returns the user's hint tracker, creating it on first use.
func (s *Server) trackerFor(email string) *tutor.HintTracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trackers == nil {
		s.trackers = map[string]*tutor.HintTracker{}
	}
	t, ok := s.trackers[email]
	if !ok {
		t = tutor.NewHintTracker()
		s.trackers[email] = t
	}
	return t
}

func (s *Server) dropTracker(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trackers[email]; ok {
		t.ResetAll()
		delete(s.trackers, email)
	}
}

// Mount attaches all routes to r. Login is public; everything else sits
// behind JWT + RBAC.
func (s *Server) Mount(r chi.Router) {
	r.Post("/auth/login", s.LoginHandler())

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(s.Auth, s.Sessions))

		pr.Post("/auth/logout", s.LogoutHandler())

		pr.With(rbac.Require("topics:view")).Get("/topics", s.TopicsHandler())
		pr.With(rbac.Require("leaderboard:view")).Get("/leaderboard", s.LeaderboardHandler())
		pr.With(rbac.Require("theory:view")).Get("/theory", s.TheoryHandler())
		pr.With(rbac.Require("quiz:view-own")).Get("/progress", s.ProgressHandler())

		pr.Route("/quiz", func(qr chi.Router) {
			qr.With(rbac.Require("quiz:start")).Post("/start", s.StartQuizHandler())
			qr.With(rbac.Require("quiz:answer")).Post("/answer", s.AnswerHandler())
			qr.With(rbac.Require("quiz:answer")).Post("/subanswer", s.SubAnswerHandler())
			qr.With(rbac.Require("quiz:answer")).Post("/navigate", s.NavigateHandler())
			qr.With(rbac.Require("quiz:answer")).Post("/visibility", s.VisibilityHandler())
			qr.With(rbac.Require("quiz:finish")).Post("/finish", s.FinishHandler())
			qr.With(rbac.Require("quiz:view-own")).Get("/state", s.StateHandler())
			qr.With(rbac.Require("quiz:view-own")).Get("/result", s.ResultHandler())
			qr.With(rbac.Require("quiz:view-own")).Get("/history", s.HistoryHandler())
		})

		pr.Route("/tutor", func(tr chi.Router) {
			tr.With(rbac.Require("tutor:ask")).Post("/ask", s.TutorAskHandler())
			tr.With(rbac.Require("tutor:ask")).Post("/quickhint", s.QuickHintHandler())
			tr.With(rbac.Require("tutor:ask")).Post("/explain", s.ExplainHandler())
		})

		pr.Route("/bank", func(br chi.Router) {
			br.With(rbac.Require("bank:view")).Get("/questions", s.ListQuestionsHandler())
			br.With(rbac.Require("bank:edit")).Post("/questions", s.SaveQuestionHandler())
			br.With(rbac.Require("bank:edit")).Delete("/questions/{questionID}", s.DeleteQuestionHandler())
		})

		pr.With(rbac.Require("students:view")).Get("/students", s.ListStudentsHandler())
		pr.With(rbac.Require("results:view-all")).Get("/students/{email}/results", s.StudentResultsHandler())

		pr.Route("/documents", func(dr chi.Router) {
			dr.Use(rbac.Require("documents:manage"))
			dr.Get("/", s.ListDocumentsHandler())
			dr.Post("/", s.SaveDocumentHandler())
			dr.Delete("/{documentID}", s.DeleteDocumentHandler())
		})

		pr.Route("/genai", func(gr chi.Router) {
			gr.Use(rbac.Require("genai:use"))
			gr.Post("/question", s.GenerateQuestionHandler())
			gr.Post("/theory", s.GenerateTheoryHandler())
			gr.Post("/ocr", s.OCRHandler())
			gr.Post("/correct", s.CorrectTextHandler())
			gr.Post("/parse-exam", s.ParseExamHandler())
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] write response: %v", err)
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}
