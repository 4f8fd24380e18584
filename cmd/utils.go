package cmd

import (
	"errors"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"transcripto-backend/internal/auth"
	"transcripto-backend/internal/database"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// EnsureAdminUser seeds the admin account on first boot. Re-running with the
// same email is a no-op, so restarts and redeploys are safe.
func EnsureAdminUser(db *gorm.DB, email, password string) {
	if email == "" || password == "" {
		log.Printf("no admin credentials configured, skipping admin seed")
		return
	}

	var existing database.Profile
	err := db.First(&existing, "email = ?", email).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Failed to check for admin user: %v", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	admin := database.Profile{
		Id:           uuid.New(),
		Email:        email,
		FullName:     "Administrator",
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}
	log.Printf("created admin user %s", email)
}
