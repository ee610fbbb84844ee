package workflow

import (
	"errors"
	"fmt"

	"club_system/internal/domain"

	"gorm.io/gorm"
)

// storeErr maps gorm errors onto the domain taxonomy
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrState),
		errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrPersistence):
		return err // Already classified
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
}

// notFound turns a missing row into the given domain error
func notFound(err error, missing error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return missing
	}
	return storeErr(err)
}

func findClub(tx *gorm.DB, id uint) (*domain.Club, error) {
	var club domain.Club
	if err := tx.First(&club, id).Error; err != nil {
		return nil, notFound(err, domain.ErrClubNotFound)
	}
	return &club, nil
}

func findPlayer(tx *gorm.DB, id uint) (*domain.Player, error) {
	var player domain.Player
	if err := tx.First(&player, id).Error; err != nil {
		return nil, notFound(err, domain.ErrPlayerNotFound)
	}
	return &player, nil
}

func findTransfer(tx *gorm.DB, id uint) (*domain.TransferRequest, error) {
	var req domain.TransferRequest
	if err := tx.First(&req, id).Error; err != nil {
		return nil, notFound(err, domain.ErrRequestNotFound)
	}
	return &req, nil
}

func findRegistration(tx *gorm.DB, id uint) (*domain.RegistrationRequest, error) {
	var req domain.RegistrationRequest
	if err := tx.First(&req, id).Error; err != nil {
		return nil, notFound(err, domain.ErrRequestNotFound)
	}
	return &req, nil
}

// hasActiveTransfer reports whether the player holds a non-terminal request
func hasActiveTransfer(tx *gorm.DB, playerID uint) (bool, error) {
	var n int64
	err := tx.Model(&domain.TransferRequest{}).
		Where("player_id = ? AND status IN ?", playerID, domain.ActiveTransferStatuses).
		Count(&n).Error
	return n > 0, storeErr(err)
}

// jerseyTaken reports whether another player at clubID wears jersey
func jerseyTaken(tx *gorm.DB, clubID uint, jersey int, exceptPlayerID uint) (bool, error) {
	var n int64
	err := tx.Model(&domain.Player{}).
		Where("club_id = ? AND jersey = ? AND id <> ?", clubID, jersey, exceptPlayerID).
		Count(&n).Error
	return n > 0, storeErr(err)
}

// MaxJersey is the highest jersey number a club hands out
const MaxJersey = 99

// nextFreeJersey returns the lowest unused jersey number at clubID
func nextFreeJersey(tx *gorm.DB, clubID uint) (int, error) {
	var used []int
	if err := tx.Model(&domain.Player{}).Where("club_id = ?", clubID).Pluck("jersey", &used).Error; err != nil {
		return 0, storeErr(err)
	}
	taken := make(map[int]bool, len(used))
	for _, n := range used {
		taken[n] = true
	}
	for n := 1; n <= MaxJersey; n++ {
		if !taken[n] {
			return n, nil
		}
	}
	return 0, domain.ErrRosterFull
}

func isPersistence(err error) bool {
	return errors.Is(err, domain.ErrPersistence)
}

// isConflict reports a unique index violation
func isConflict(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, domain.ErrConflict)
}
