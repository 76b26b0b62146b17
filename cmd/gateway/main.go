package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	api "github.com/phuclab/mathlms/internal/api/http"
	auth "github.com/phuclab/mathlms/internal/auth/middleware"
	"github.com/phuclab/mathlms/internal/config"
	"github.com/phuclab/mathlms/internal/db"
	"github.com/phuclab/mathlms/internal/genai"
	"github.com/phuclab/mathlms/internal/quiz"
	"github.com/phuclab/mathlms/internal/session"
	"github.com/phuclab/mathlms/internal/sheetapi"
	"github.com/phuclab/mathlms/internal/tutor"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB (local attempt archive) ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- System of record ---
	if cfg.SheetAPIURL == "" {
		log.Fatal("SHEET_API_URL is required")
	}
	sheet := sheetapi.NewClient(cfg.SheetAPIURL)

	// --- GenAI (tutor + content generation) ---
	var llm llms.Model
	if cfg.GenAIAPIKey != "" {
		llm, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.GenAIAPIKey),
			googleai.WithDefaultModel(cfg.GenAIModel),
		)
		if err != nil {
			log.Fatalf("genai init failed: %v", err)
		}
	} else {
		// The tutor degrades to canned hints without a key; content
		// generation endpoints will return errors.
		log.Printf("[WARN] GENAI_API_KEY not set, tutor runs on fallback responses")
	}

	authSvc := auth.NewAuthService(cfg.AuthSecret)
	sessions := session.NewRegistry()

	srv := &api.Server{
		Auth:              authSvc,
		Sessions:          sessions,
		Quizzes:           quiz.NewRegistry(),
		Sheet:             sheet,
		Tutor:             tutor.NewService(llm),
		GenAI:             genai.NewService(llm),
		Archive:           quiz.NewSQLArchive(dbh),
		AdminUser:         cfg.AdminUser,
		AdminPassHash:     cfg.AdminPassHash,
		HeartbeatInterval: cfg.HeartbeatInterval,
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	srv.Mount(r)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
