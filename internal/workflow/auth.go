package workflow

import (
	"context"
	"errors"
	"strings"

	"club_system/internal/domain"
	"club_system/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Authenticate checks credentials and opens a session for the user
func (e *Engine) Authenticate(ctx context.Context, username, password string) (*domain.User, *domain.Session, error) {
	var user domain.User
	err := e.db.WithContext(ctx).Where("username = ?", strings.ToLower(strings.TrimSpace(username))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, domain.ErrInvalidCredentials
	} else if err != nil {
		return nil, nil, storeErr(err)
	}
	if !utils.CheckPassword(user.Password, password) {
		e.log.WithField("username", user.Username).Info("Login rejected")
		return nil, nil, domain.ErrInvalidCredentials
	}
	e.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User logged in")
	return &user, domain.NewSession(&user), nil
}

// LoadSession rebuilds the session of userID from the store so club changes
// made since the token was issued are visible
func (e *Engine) LoadSession(ctx context.Context, userID uint) (*domain.Session, error) {
	var user domain.User
	if err := e.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return domain.NewSession(&user), nil
}
