package http

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/phuclab/mathlms/internal/auth/middleware"
	"github.com/phuclab/mathlms/internal/quiz"
	"github.com/phuclab/mathlms/internal/session"
	"github.com/phuclab/mathlms/internal/sheetapi"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  sheetapi.User `json:"user"`
}

// LoginHandler authenticates against the system of record and falls back to
// the locally configured admin account when that fails. A successful login
// registers a session, wipes any stale hint levels, and for students starts
// the session validity monitor.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !readJSON(w, r, &req) {
			return
		}
		if req.Email == "" || req.Password == "" {
			http.Error(w, "email and password required", http.StatusBadRequest)
			return
		}

		user, sheetToken, err := s.Sheet.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if !errors.Is(err, sheetapi.ErrLoginFailed) {
				log.Printf("[ERROR] sheet login for %s: %v", req.Email, err)
			}
			u, ok := s.localAdminLogin(req.Email, req.Password)
			if !ok {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			user, sheetToken = u, ""
		}

		sess := &session.Session{
			ID:         uuid.NewString(),
			Email:      user.Email,
			Name:       user.Name,
			Role:       user.Role,
			SheetToken: sheetToken,
		}
		monitorCtx := s.Sessions.Add(sess)

		// A fresh login starts with a clean hint slate.
		s.trackerFor(user.Email).ResetAll()

		if user.Role == "student" && sheetToken != "" {
			s.startMonitor(monitorCtx, sess)
		}

		token, err := s.Auth.IssueJWT(user.Email, user.Name, user.Role, sess.ID)
		if err != nil {
			s.Sessions.Revoke(sess.ID)
			http.Error(w, "token issue failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
	}
}

// localAdminLogin verifies the bcrypt-hashed fallback credentials. It exists so
// the admin panel stays reachable when the spreadsheet backend is down.
func (s *Server) localAdminLogin(email, password string) (sheetapi.User, bool) {
	if s.AdminUser == "" || s.AdminPassHash == "" || email != s.AdminUser {
		return sheetapi.User{}, false
	}
	if bcrypt.CompareHashAndPassword([]byte(s.AdminPassHash), []byte(password)) != nil {
		return sheetapi.User{}, false
	}
	return sheetapi.User{Email: email, Name: "Administrator", Role: "admin"}, true
}

// startMonitor runs the per-session validity poll until the session is
// revoked. A detected conflicting login force-finishes the student's active
// quiz; with no quiz in flight it logs the session out instead.
func (s *Server) startMonitor(ctx context.Context, sess *session.Session) {
	m := &session.Monitor{
		Checker:    s.Sheet,
		SheetToken: sess.SheetToken,
		Interval:   s.HeartbeatInterval,
		ForceFinish: func(ctx context.Context) bool {
			ctrl, ok := s.Quizzes.Get(sess.Email)
			if !ok || !ctrl.ActiveIncomplete() {
				return false
			}
			if err := ctrl.Finish(ctx, quiz.ReasonSessionConflict); err != nil {
				log.Printf("[ERROR] force finish for %s: %v", sess.Email, err)
				return false
			}
			return true
		},
		Logout: func() {
			s.endSession(context.Background(), sess.ID, sess.Email, sess.SheetToken)
		},
	}
	go m.Run(ctx)
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := auth.SessionIDFromContext(r.Context())
		email := auth.EmailFromContext(r.Context())
		sheetToken := ""
		if sess, ok := s.Sessions.Get(sid); ok {
			sheetToken = sess.SheetToken
		}
		s.endSession(r.Context(), sid, email, sheetToken)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// endSession is the single teardown path shared by explicit logout and the
// monitor's forced logout: revoke the session, drop the quiz controller, and
// wipe hint state.
func (s *Server) endSession(ctx context.Context, sessionID, email, sheetToken string) {
	s.Sessions.Revoke(sessionID)
	s.Quizzes.Drop(email)
	s.dropTracker(email)
	if sheetToken != "" {
		if err := s.Sheet.Logout(context.WithoutCancel(ctx), sheetToken); err != nil {
			log.Printf("[ERROR] sheet logout for %s: %v", email, err)
		}
	}
}
