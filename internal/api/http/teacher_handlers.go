package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"

	"github.com/phuclab/mathlms/internal/quiz"
	"github.com/phuclab/mathlms/internal/sheetapi"
)

// maxUploadBytes caps OCR uploads; larger files exceed the model's inline
// data limit anyway.
const maxUploadBytes = 8 << 20

// ListQuestionsHandler returns the question bank, optionally narrowed by a
// fuzzy query over question text and topic.
func (s *Server) ListQuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, err := s.Sheet.GetAllQuestions(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
			questions = lo.Filter(questions, func(item quiz.Question, _ int) bool {
				return fuzzy.MatchFold(q, item.Text) || fuzzy.MatchFold(q, item.Topic)
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
	}
}

func (s *Server) SaveQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Question
		if !readJSON(w, r, &q) {
			return
		}
		if q.Text == "" || q.AnswerKey == "" {
			http.Error(w, "question_text and answer_key required", http.StatusBadRequest)
			return
		}
		saved, err := s.Sheet.SaveQuestion(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func (s *Server) DeleteQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "questionID")
		if err := s.Sheet.DeleteQuestion(r.Context(), id); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (s *Server) ListStudentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		students, err := s.Sheet.GetAllStudents(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"students": students})
	}
}

func (s *Server) StudentResultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		results, err := s.Sheet.GetStudentResults(r.Context(), email)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	}
}

func (s *Server) ListDocumentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := s.Sheet.GetAllDocuments(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
	}
}

func (s *Server) SaveDocumentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var d sheetapi.Document
		if !readJSON(w, r, &d) {
			return
		}
		if d.Name == "" || d.Content == "" {
			http.Error(w, "name and content required", http.StatusBadRequest)
			return
		}
		saved, err := s.Sheet.SaveDocument(r.Context(), d)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func (s *Server) DeleteDocumentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "documentID")
		if err := s.Sheet.DeleteDocument(r.Context(), id); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

type generateQuestionRequest struct {
	Grade      int    `json:"grade"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Kind       string `json:"kind"`
	// Either inline source text or a document from the resource library.
	SourceText string `json:"source_text,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
}

func (s *Server) GenerateQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateQuestionRequest
		if !readJSON(w, r, &req) {
			return
		}
		if req.Grade < 1 || req.Topic == "" {
			http.Error(w, "grade and topic required", http.StatusBadRequest)
			return
		}
		kind := quiz.Kind(req.Kind)
		switch kind {
		case quiz.KindMultipleChoice, quiz.KindTrueFalseSet, quiz.KindShortAnswer:
		default:
			http.Error(w, "unknown question kind", http.StatusBadRequest)
			return
		}

		source := req.SourceText
		if source == "" && req.DocumentID != "" {
			docs, err := s.Sheet.GetAllDocuments(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			doc, ok := lo.Find(docs, func(d sheetapi.Document) bool { return d.ID == req.DocumentID })
			if !ok {
				http.Error(w, "document not found", http.StatusNotFound)
				return
			}
			source = doc.Content
		}

		q, err := s.GenAI.GenerateQuestion(r.Context(), req.Grade, req.Topic, req.Difficulty, kind, source)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

type generateTheoryRequest struct {
	Grade int    `json:"grade"`
	Topic string `json:"topic"`
	Level int    `json:"level"`
}

func (s *Server) GenerateTheoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateTheoryRequest
		if !readJSON(w, r, &req) {
			return
		}
		if req.Grade < 1 || req.Topic == "" || req.Level < 1 {
			http.Error(w, "grade, topic and level required", http.StatusBadRequest)
			return
		}
		theory, err := s.GenAI.GenerateTheory(r.Context(), req.Grade, req.Topic, req.Level)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, theory)
	}
}

// OCRHandler extracts text from an uploaded exam image or PDF.
func (s *Server) OCRHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "multipart form required", http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file field required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		if err != nil {
			http.Error(w, "read upload failed", http.StatusBadRequest)
			return
		}
		mime := hdr.Header.Get("Content-Type")
		if mime == "" {
			mime = "application/octet-stream"
		}
		text, err := s.GenAI.ExtractText(r.Context(), data, mime)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"text": text})
	}
}

type correctTextRequest struct {
	Text string `json:"text"`
}

// CorrectTextHandler streams the cleaned-up OCR text back as plain text
// chunks so the editor can show correction progress live.
func (s *Server) CorrectTextHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req correctTextRequest
		if !readJSON(w, r, &req) {
			return
		}
		if req.Text == "" {
			http.Error(w, "text required", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		flusher, _ := w.(http.Flusher)
		_, err := s.GenAI.CorrectText(r.Context(), req.Text, func(chunk string) {
			if _, werr := io.WriteString(w, chunk); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		})
		if err != nil {
			// Headers are gone by now; the client sees a truncated stream.
			return
		}
	}
}

type parseExamRequest struct {
	Markdown string `json:"markdown"`
	Grade    int    `json:"grade"`
	Topic    string `json:"topic"`
}

func (s *Server) ParseExamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req parseExamRequest
		if !readJSON(w, r, &req) {
			return
		}
		if req.Markdown == "" || req.Grade < 1 || req.Topic == "" {
			http.Error(w, "markdown, grade and topic required", http.StatusBadRequest)
			return
		}
		questions, err := s.GenAI.ParseExamMarkdown(r.Context(), req.Markdown, req.Grade, req.Topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
	}
}
