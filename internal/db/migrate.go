package db

import (
	"strings"

	"club_system/internal/domain" // Importing domain models
	"club_system/internal/utils"  // Password hashing

	"github.com/sirupsen/logrus"
	"gorm.io/gorm" // GORM ORM library
)

// Models lists every table of the club database
var Models = []any{
	&domain.Club{},
	&domain.Manager{},
	&domain.Player{},
	&domain.User{},
	&domain.RegistrationRequest{},
	&domain.TransferRequest{},
	&domain.TransferHistory{},
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(Models...); err != nil {
		return err
	}
	logrus.Info("Migration completed.")
	return nil
}

// SeedAdmin creates the system admin when the users table is empty.
// It reports whether a user was created. The username is stored lowercase like
// every other account so login stays case-insensitive.
func SeedAdmin(db *gorm.DB, username, password string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var count int64
	if err := db.Model(&domain.User{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		logrus.Info("Users already exist, skipping admin seed")
		return false, nil
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := domain.User{Username: username, Password: hash, Role: domain.RoleSystemAdmin}
	if err := db.Create(&admin).Error; err != nil {
		return false, err
	}
	logrus.WithField("username", username).Info("Seeded system admin")
	return true, nil
}
