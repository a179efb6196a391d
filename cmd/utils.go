package cmd

import (
	"flag"
	"log"
	"time"

	"lawchat-backend/internal/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
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

// EnsureMember creates a member record for the given email if none exists.
// Useful for local single-user deployments where signup is handled by an
// external service that is not running.
func EnsureMember(db *gorm.DB, email string) {
	var member database.Member
	if err := db.Where(database.Member{Email: email}).Attrs(database.Member{
		Id:        uuid.New(),
		CreatedAt: time.Now().UTC(),
	}).FirstOrCreate(&member).Error; err != nil {
		log.Fatalf("Failed to create member record: %v", err)
	}
	log.Printf("default member ready: %s (%s)", member.Email, member.Id)
}
