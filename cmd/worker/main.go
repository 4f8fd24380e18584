package main

import (
	"log"

	"github.com/caarlos0/env/v11"

	"transcripto-backend/cmd"
	"transcripto-backend/internal/database"
	"transcripto-backend/internal/messaging"
	"transcripto-backend/internal/storage"
	"transcripto-backend/internal/transcriber"
)

type WorkerConfig struct {
	DatabaseURL       string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL       string `env:"RABBITMQ_URL,notEmpty,required"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AudioBucketName   string `env:"AUDIO_BUCKET_NAME" envDefault:"audio-uploads"`
	WhisperAPIURL     string `env:"WHISPER_API_URL,notEmpty,required"`
	WhisperAPIKey     string `env:"WHISPER_API_KEY"`
	Concurrency       int    `env:"CONCURRENCY" envDefault:"1"`
}

func main() {
	log.Println("Starting transcription worker...")

	cmd.LoadEnvFile()

	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

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

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer receiver.Close()

	whisper := transcriber.NewWhisperClient(cfg.WhisperAPIURL, cfg.WhisperAPIKey)

	worker := messaging.NewTranscriptionWorker(db, store, whisper)
	worker.Start(receiver, cfg.Concurrency)

	log.Printf("Worker running with concurrency %d", cfg.Concurrency)
	worker.Wait()

	log.Println("Worker stopped.")
}
