package sheetapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phuclab/mathlms/internal/quiz"
	"github.com/phuclab/mathlms/internal/session"
	"github.com/phuclab/mathlms/internal/sheetapi"
)

func makeSubmission() quiz.Submission {
	return quiz.Submission{
		Email: "alice@school.test",
		Token: "tok-1",
		Topic: "algebra",
		Grade: 10,
		Level: 2,
		Score: 4,
		Total: 5,
		Answers: []quiz.AnswerRecord{
			{QuestionID: "q1", UserAnswer: "A", Correct: true},
		},
		TimeSpent:  120,
		Reason:     quiz.ReasonNormal,
		Violations: []quiz.Violation{},
	}
}

func violation() quiz.Violation {
	return quiz.Violation{Type: "tab_switch", Timestamp: 1700000000000, Count: 1}
}

// actionServer answers each action with a canned JSON body and records what
// it received.
type actionServer struct {
	t         *testing.T
	responses map[string]string
	gotAction string
	gotBody   map[string]json.RawMessage
}

func newActionServer(t *testing.T, responses map[string]string) (*actionServer, *sheetapi.Client) {
	t.Helper()
	as := &actionServer{t: t, responses: responses}
	srv := httptest.NewServer(as)
	t.Cleanup(srv.Close)
	return as, sheetapi.NewClient(srv.URL, sheetapi.WithHTTPClient(srv.Client()))
}

func (a *actionServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var action string
	switch r.Method {
	case http.MethodGet:
		action = r.URL.Query().Get("action")
	case http.MethodPost:
		var body struct {
			Action  string                     `json:"action"`
			Payload map[string]json.RawMessage `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			a.t.Errorf("bad request body: %v", err)
		}
		action = body.Action
		a.gotBody = body.Payload
	}
	a.gotAction = action

	resp, ok := a.responses[action]
	if !ok {
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(resp))
}

func TestLogin(t *testing.T) {
	as, c := newActionServer(t, map[string]string{
		"login": `{"success": true, "session_token": "sheet-tok",
			"user": {"email": "alice@school.test", "name": "Alice", "role": "student"}}`,
	})

	user, token, err := c.Login(context.Background(), "alice@school.test", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "sheet-tok" || user.Role != "student" {
		t.Fatalf("user=%+v token=%q", user, token)
	}
	if as.gotAction != "login" {
		t.Fatalf("action = %q", as.gotAction)
	}
	if string(as.gotBody["email"]) != `"alice@school.test"` {
		t.Fatalf("payload email = %s", as.gotBody["email"])
	}
}

func TestLoginRejected(t *testing.T) {
	_, c := newActionServer(t, map[string]string{
		"login": `{"success": false, "error": "bad password"}`,
	})
	_, _, err := c.Login(context.Background(), "alice@school.test", "nope")
	if !errors.Is(err, sheetapi.ErrLoginFailed) {
		t.Fatalf("got %v, want ErrLoginFailed", err)
	}
}

func TestCheckSessionConflict(t *testing.T) {
	_, c := newActionServer(t, map[string]string{
		"heartbeat": `{"success": true, "valid": false, "reason": "session_conflict"}`,
	})
	st, err := c.CheckSession(context.Background(), "sheet-tok")
	if err != nil {
		t.Fatalf("CheckSession: %v", err)
	}
	if st.Valid || st.Reason != session.ReasonConflict {
		t.Fatalf("status = %+v", st)
	}
}

func TestFetchQuestionsEmptySetIsNotAnError(t *testing.T) {
	_, c := newActionServer(t, map[string]string{
		"getQuestions": `{"success": true, "questions": []}`,
	})
	qs, err := c.FetchQuestions(context.Background(), 10, "algebra", 2)
	if err != nil {
		t.Fatalf("FetchQuestions: %v", err)
	}
	if len(qs) != 0 {
		t.Fatalf("questions = %d, want 0", len(qs))
	}
}

func TestFetchQuestionsDecodesKinds(t *testing.T) {
	_, c := newActionServer(t, map[string]string{
		"getQuestions": `{"success": true, "questions": [
			{"id": "q1", "kind": "multiple-choice", "question_text": "x?", "answer_key": "A"},
			{"id": "q2", "kind": "true-false-set", "question_text": "y?", "answer_key": "T-F-T-F"}
		]}`,
	})
	qs, err := c.FetchQuestions(context.Background(), 10, "algebra", 2)
	if err != nil {
		t.Fatalf("FetchQuestions: %v", err)
	}
	if len(qs) != 2 || string(qs[1].Kind) != "true-false-set" || qs[1].AnswerKey != "T-F-T-F" {
		t.Fatalf("questions = %+v", qs)
	}
}

func TestSubmitAttempt(t *testing.T) {
	as, c := newActionServer(t, map[string]string{
		"submitQuiz": `{"success": true, "result": {"passed": true, "percentage": 80, "can_advance": true}}`,
	})

	res, err := c.SubmitAttempt(context.Background(), makeSubmission())
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if !res.Passed || !res.CanAdvance {
		t.Fatalf("result = %+v", res)
	}
	if string(as.gotBody["session_token"]) != `"tok-1"` {
		t.Fatalf("payload token = %s", as.gotBody["session_token"])
	}
	if string(as.gotBody["submission_reason"]) != `"normal"` {
		t.Fatalf("payload reason = %s", as.gotBody["submission_reason"])
	}
}

func TestSubmitAttemptRemoteError(t *testing.T) {
	_, c := newActionServer(t, map[string]string{
		"submitQuiz": `{"success": false, "error": "sheet locked"}`,
	})
	if _, err := c.SubmitAttempt(context.Background(), makeSubmission()); err == nil {
		t.Fatal("remote failure must surface as an error")
	}
}

func TestReportViolation(t *testing.T) {
	as, c := newActionServer(t, map[string]string{
		"reportViolation": `{"success": true}`,
	})
	v := violation()
	if err := c.ReportViolation(context.Background(), "alice@school.test", v, "algebra", 2); err != nil {
		t.Fatalf("ReportViolation: %v", err)
	}
	if as.gotAction != "reportViolation" {
		t.Fatalf("action = %q", as.gotAction)
	}
}

func TestHTTPErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := sheetapi.NewClient(srv.URL)
	if _, err := c.FetchTopics(context.Background(), 10); err == nil {
		t.Fatal("status 500 must surface as an error")
	}
}
