// Package sheetapi is the client for the spreadsheet-backed system of record
// (an Apps-Script-style action API). All business data lives there; this
// service only orchestrates. The wire format is owned by the remote side.
package sheetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/phuclab/mathlms/internal/quiz"
	"github.com/phuclab/mathlms/internal/session"
)

// ErrLoginFailed reports rejected credentials.
var ErrLoginFailed = errors.New("login failed")

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption { return func(c *Client) { c.http = h } }

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (e envelope) err(action string) error {
	if e.Success {
		return nil
	}
	if e.Error == "" {
		return fmt.Errorf("sheetapi: %s failed", action)
	}
	return fmt.Errorf("sheetapi: %s: %s", action, e.Error)
}

// get performs an action as a query request: ?action=X&payload={json}.
func (c *Client) get(ctx context.Context, action string, payload any, out any) error {
	q := url.Values{"action": {action}}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		q.Set("payload", string(b))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, action, out)
}

// post performs an action as a JSON body request: {"action": X, "payload": ...}.
func (c *Client) post(ctx context.Context, action string, payload any, out any) error {
	body, err := json.Marshal(map[string]any{"action": action, "payload": payload})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, action, out)
}

func (c *Client) do(req *http.Request, action string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sheetapi: %s: %w", action, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("sheetapi: %s: status %d", action, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sheetapi: %s: decode: %w", action, err)
	}
	return nil
}

// --- auth ---

func (c *Client) Login(ctx context.Context, email, password string) (User, string, error) {
	var resp struct {
		envelope
		User  User   `json:"user"`
		Token string `json:"session_token"`
	}
	err := c.post(ctx, "login", map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return User{}, "", err
	}
	if !resp.Success || resp.Token == "" {
		return User{}, "", ErrLoginFailed
	}
	return resp.User, resp.Token, nil
}

func (c *Client) Logout(ctx context.Context, sheetToken string) error {
	var resp envelope
	if err := c.post(ctx, "logout", map[string]string{"session_token": sheetToken}, &resp); err != nil {
		return err
	}
	return resp.err("logout")
}

// CheckSession is the heartbeat. Implements session.Checker.
func (c *Client) CheckSession(ctx context.Context, sheetToken string) (session.Status, error) {
	var resp struct {
		envelope
		Valid  bool   `json:"valid"`
		Reason string `json:"reason,omitempty"`
	}
	err := c.get(ctx, "heartbeat", map[string]string{"session_token": sheetToken}, &resp)
	if err != nil {
		return session.Status{}, err
	}
	return session.Status{Valid: resp.Valid, Reason: resp.Reason}, nil
}

// --- student surface ---

func (c *Client) FetchTopics(ctx context.Context, grade int) ([]string, error) {
	var resp struct {
		envelope
		Topics []string `json:"topics"`
	}
	if err := c.get(ctx, "getTopics", map[string]int{"grade": grade}, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("getTopics"); err != nil {
		return nil, err
	}
	return resp.Topics, nil
}

// FetchQuestions implements quiz.QuestionSource. An empty set is not an
// error here; the lifecycle controller decides what that means.
func (c *Client) FetchQuestions(ctx context.Context, grade int, topic string, level int) ([]quiz.Question, error) {
	var resp struct {
		envelope
		Questions []quiz.Question `json:"questions"`
	}
	payload := map[string]any{"grade": grade, "topic": topic, "level": level}
	if err := c.get(ctx, "getQuestions", payload, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("getQuestions"); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

func (c *Client) FetchTheory(ctx context.Context, grade int, topic string, level int) (*quiz.Theory, error) {
	var resp struct {
		envelope
		Theory *quiz.Theory `json:"theory"`
	}
	payload := map[string]any{"grade": grade, "topic": topic, "level": level}
	if err := c.get(ctx, "getTheory", payload, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("getTheory"); err != nil {
		return nil, err
	}
	return resp.Theory, nil
}

func (c *Client) FetchLeaderboard(ctx context.Context, grade int) ([]LeaderboardEntry, error) {
	var resp struct {
		envelope
		Entries []LeaderboardEntry `json:"leaderboard"`
	}
	if err := c.get(ctx, "getLeaderboard", map[string]int{"grade": grade}, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("getLeaderboard"); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *Client) FetchUserProgress(ctx context.Context, email string) (map[string]int, error) {
	var resp struct {
		envelope
		Progress map[string]int `json:"progress"`
	}
	if err := c.get(ctx, "getUserProgress", map[string]string{"email": email}, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("getUserProgress"); err != nil {
		return nil, err
	}
	return resp.Progress, nil
}

// SubmitAttempt implements quiz.Submitter.
func (c *Client) SubmitAttempt(ctx context.Context, s quiz.Submission) (*quiz.Result, error) {
	var resp struct {
		envelope
		Result *quiz.Result `json:"result"`
	}
	if err := c.post(ctx, "submitQuiz", s, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("submitQuiz"); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// ReportViolation implements quiz.ViolationReporter.
func (c *Client) ReportViolation(ctx context.Context, email string, v quiz.Violation, topic string, level int) error {
	payload := map[string]any{
		"email":     email,
		"violation": v,
		"context":   map[string]any{"topic": topic, "level": level},
	}
	var resp envelope
	if err := c.post(ctx, "reportViolation", payload, &resp); err != nil {
		return err
	}
	return resp.err("reportViolation")
}

// --- teacher surface ---

func (c *Client) GetAllQuestions(ctx context.Context) ([]quiz.Question, error) {
	var resp struct {
		envelope
		Questions []quiz.Question `json:"questions"`
	}
	if err := c.get(ctx, "getAllQuestions", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("getAllQuestions"); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

func (c *Client) SaveQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	var resp struct {
		envelope
		Question quiz.Question `json:"question"`
	}
	if err := c.post(ctx, "saveQuestion", q, &resp); err != nil {
		return quiz.Question{}, err
	}
	if err := resp.err("saveQuestion"); err != nil {
		return quiz.Question{}, err
	}
	return resp.Question, nil
}

func (c *Client) DeleteQuestion(ctx context.Context, id string) error {
	var resp envelope
	if err := c.get(ctx, "deleteQuestion", map[string]string{"id": id}, &resp); err != nil {
		return err
	}
	return resp.err("deleteQuestion")
}

func (c *Client) GetAllStudents(ctx context.Context) ([]User, error) {
	var resp struct {
		envelope
		Students []User `json:"students"`
	}
	if err := c.get(ctx, "getAllStudents", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("getAllStudents"); err != nil {
		return nil, err
	}
	return resp.Students, nil
}

func (c *Client) GetStudentResults(ctx context.Context, email string) ([]StudentResult, error) {
	var resp struct {
		envelope
		Results []StudentResult `json:"results"`
	}
	if err := c.get(ctx, "getStudentResults", map[string]string{"email": email}, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("getStudentResults"); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) GetAllDocuments(ctx context.Context) ([]Document, error) {
	var resp struct {
		envelope
		Documents []Document `json:"documents"`
	}
	if err := c.get(ctx, "getAllDocuments", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("getAllDocuments"); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (c *Client) SaveDocument(ctx context.Context, d Document) (Document, error) {
	var resp struct {
		envelope
		Document Document `json:"document"`
	}
	if err := c.post(ctx, "saveDocument", d, &resp); err != nil {
		return Document{}, err
	}
	if err := resp.err("saveDocument"); err != nil {
		return Document{}, err
	}
	return resp.Document, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	var resp envelope
	if err := c.get(ctx, "deleteDocument", map[string]string{"id": id}, &resp); err != nil {
		return err
	}
	return resp.err("deleteDocument")
}
