package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"transcripto-backend/cmd"
	"transcripto-backend/internal/api"
	"transcripto-backend/internal/chat"
	"transcripto-backend/internal/database"
	"transcripto-backend/internal/messaging"
	"transcripto-backend/internal/storage"
	"transcripto-backend/internal/transcriber"
)

// Everything in one process: sqlite, filesystem storage, an in-memory queue
// with the worker inline, a canned transcriber, and the demo chat responder.
type LocalConfig struct {
	DatabaseURL   string `env:"DATABASE_URL" envDefault:"local.db"`
	AudioDir      string `env:"AUDIO_DIR" envDefault:"audio"`
	JWTSecret     string `env:"JWT_SECRET" envDefault:"local-dev-secret"`
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@localhost"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin-password"`
	APIPort       string `env:"API_PORT" envDefault:"8001"`
}

func main() {
	log.Println("Starting local server...")

	cmd.LoadEnvFile()

	var cfg LocalConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	cmd.EnsureAdminUser(db, cfg.AdminEmail, cfg.AdminPassword)

	baseURL := "http://localhost:" + cfg.APIPort + "/audio"
	store, err := storage.NewLocalObjectStore(cfg.AudioDir, baseURL)
	if err != nil {
		log.Fatalf("Failed to create object store: %v", err)
	}

	queue := messaging.NewInMemoryQueue()
	defer queue.Close()

	static := &transcriber.Static{Text: "This is a locally generated transcription."}

	worker := messaging.NewTranscriptionWorker(db, store, static)
	worker.Start(queue, 1)

	hub := chat.NewHub()
	go hub.Run()
	chatService := api.NewChatService(db, hub)
	chatService.EnableDemoMode()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Serve stored audio so the public URLs written by the local store resolve.
	r.Handle("/audio/*", http.StripPrefix("/audio/", http.FileServer(http.Dir(store.Dir()))))

	apiHandler := api.NewBackendService(db, queue, store, static, chatService, []byte(cfg.JWTSecret))
	apiHandler.AddRoutes(r)

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("Local server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
