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

type APIConfig struct {
	DatabaseURL       string   `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL       string   `env:"RABBITMQ_URL,notEmpty,required"`
	S3EndpointURL     string   `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string   `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string   `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string   `env:"AWS_REGION" envDefault:"us-east-1"`
	AudioBucketName   string   `env:"AUDIO_BUCKET_NAME" envDefault:"audio-uploads"`
	WhisperAPIURL     string   `env:"WHISPER_API_URL,notEmpty,required"`
	WhisperAPIKey     string   `env:"WHISPER_API_KEY"`
	JWTSecret         string   `env:"JWT_SECRET,notEmpty,required"`
	AdminEmail        string   `env:"ADMIN_EMAIL"`
	AdminPassword     string   `env:"ADMIN_PASSWORD"`
	AllowedOrigins    []string `env:"ALLOWED_ORIGINS" envDefault:"*"`
	ChatEnabled       bool     `env:"CHAT_ENABLED" envDefault:"true"`
	APIPort           string   `env:"API_PORT" envDefault:"8001"`
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	cmd.EnsureAdminUser(db, cfg.AdminEmail, cfg.AdminPassword)

	store, err := storage.NewS3ObjectStore(storage.S3ClientConfig{
		Endpoint:        cfg.S3EndpointURL,
		Region:          cfg.S3Region,
		Bucket:          cfg.AudioBucketName,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		log.Fatalf("Failed to create object store: %v", err)
	}

	publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	whisper := transcriber.NewWhisperClient(cfg.WhisperAPIURL, cfg.WhisperAPIKey)

	var chatService *api.ChatService
	if cfg.ChatEnabled {
		hub := chat.NewHub()
		go hub.Run()
		chatService = api.NewChatService(db, hub)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	apiHandler := api.NewBackendService(db, publisher, store, whisper, chatService, []byte(cfg.JWTSecret))
	apiHandler.AddRoutes(r)

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	// Goroutine for graceful shutdown
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

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
