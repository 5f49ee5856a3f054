package main

import (
	"flag"
	"os"

	"go-fuelstation-pos/internal/config"
	"go-fuelstation-pos/internal/logging"
	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// reset-password sets a new password for one account and ends its sessions.
func main() {
	email := flag.String("email", "", "account email (defaults to ADMIN_EMAIL)")
	password := flag.String("password", "", "new password, at least 6 characters")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *email == "" {
		*email = cfg.AdminEmail
	}
	if len(*password) < 6 {
		log.Error("password must be at least 6 characters")
		os.Exit(2)
	}

	db, err := database.ConnectDB(cfg.DatabaseURL, logging.GormLevel(cfg.LogLevel), log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}

	var user model.User
	if err := db.Where("email = ?", *email).First(&user).Error; err != nil {
		log.Fatal("user not found", zap.String("email", *email), zap.Error(err))
	}

	if err := user.SetPassword(*password); err != nil {
		log.Fatal("hash password", zap.Error(err))
	}

	// A new token version logs out every device
	err = db.Model(&user).Updates(map[string]interface{}{
		"password":      user.Password,
		"token_version": uuid.New().String(),
		"updated_by":    "system",
	}).Error
	if err != nil {
		log.Fatal("update password", zap.Error(err))
	}

	log.Info("password reset", zap.String("email", *email), zap.String("user_id", user.ID.String()))
}
