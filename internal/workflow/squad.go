package workflow

import (
	"context"
	"strings"

	"club_system/internal/domain"
	"club_system/internal/events"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NewPlayer is the input of CreatePlayer
type NewPlayer struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`      // Zero takes DefaultAge
	Jersey   *int   `json:"jersey"`   // Nil takes the lowest free number at the club
	Position string `json:"position"` // Case-insensitive
	Injured  bool   `json:"injured"`
	ClubID   *uint  `json:"club_id"` // Nil creates a free agent, admin only
}

// CreatePlayer adds a player directly, without a registration request.
// The club's manager or an admin may add; only an admin may add a free agent.
func (e *Engine) CreatePlayer(ctx context.Context, sess *domain.Session, in NewPlayer) (*domain.Player, error) {
	if sess == nil {
		return nil, domain.ErrUnauthorized
	}
	if in.ClubID == nil && !sess.IsAdmin() {
		return nil, domain.Forbiddenf("only an admin may add a free agent")
	}
	if in.ClubID != nil && !sess.IsAdmin() && !sess.ManagesClub(*in.ClubID) {
		return nil, domain.Forbiddenf("only the club manager or an admin may add players")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validationf("player name must not be empty")
	}
	if in.Age == 0 {
		in.Age = DefaultAge
	}
	if err := ValidateAge(in.Age); err != nil {
		return nil, err
	}
	pos, ok := domain.ParsePosition(in.Position)
	if !ok {
		return nil, domain.Validationf("unknown position %q", in.Position)
	}
	if in.Jersey != nil && (*in.Jersey < 1 || *in.Jersey > MaxJersey) {
		return nil, domain.Validationf("jersey number must be between 1 and %d", MaxJersey)
	}
	if in.ClubID == nil && in.Jersey == nil {
		return nil, domain.Validationf("a free agent needs a jersey number")
	}
	if in.ClubID != nil {
		unlock := e.locks.Lock(clubKey(*in.ClubID))
		defer unlock()
	}

	player := domain.Player{Name: name, Age: in.Age, Position: pos, Injured: in.Injured}
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ClubID != nil {
			club, err := findClub(tx, *in.ClubID)
			if err != nil {
				return err
			}
			player.ClubID = &club.ID
			player.ClubView = club.Name
		}
		switch {
		case in.Jersey == nil:
			jersey, err := nextFreeJersey(tx, *player.ClubID)
			if err != nil {
				return err
			}
			player.Jersey = jersey
		case player.ClubID != nil:
			taken, err := jerseyTaken(tx, *player.ClubID, *in.Jersey, 0)
			if err != nil {
				return err
			}
			if taken {
				return domain.ErrJerseyTaken
			}
			player.Jersey = *in.Jersey
		default:
			player.Jersey = *in.Jersey
		}
		if err := tx.Create(&player).Error; err != nil {
			if isConflict(err) {
				return domain.ErrJerseyTaken
			}
			return storeErr(err)
		}
		return nil
	})
	if err != nil {
		e.logFailure("Player create failed", err, logrus.Fields{"name": name, "club_id": idField(in.ClubID), "user_id": sess.UserID})
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"player_id": player.ID,
		"club_id":   idField(player.ClubID),
		"jersey":    player.Jersey,
	}).Info("Player created")
	e.invalidatePlayer(ctx, player.ClubID)
	e.publish(ctx, events.PlayerCreated, BuildPlayerCard(&player))
	return &player, nil
}

// DeletePlayer removes a player. Refused while the player holds an active
// transfer request; transfer history and closed requests are kept.
func (e *Engine) DeletePlayer(ctx context.Context, sess *domain.Session, playerID uint) error {
	if sess == nil {
		return domain.ErrUnauthorized
	}
	unlock := e.locks.Lock(playerKey(playerID))
	defer unlock()

	var player *domain.Player
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if player, err = findPlayer(tx, playerID); err != nil {
			return err
		}
		if !sess.IsAdmin() && (player.ClubID == nil || !sess.ManagesClub(*player.ClubID)) {
			return domain.Forbiddenf("only the club manager or an admin may delete this player")
		}
		active, err := hasActiveTransfer(tx, player.ID)
		if err != nil {
			return err
		}
		if active {
			return domain.ErrPlayerInTransfer
		}
		// Accounts stay so the user can still log in, but lose the profile
		if err := tx.Model(&domain.User{}).Where("player_id = ?", player.ID).
			Updates(map[string]any{"player_id": nil, "club_id": nil}).Error; err != nil {
			return storeErr(err)
		}
		return storeErr(tx.Delete(&domain.Player{}, player.ID).Error)
	})
	if err != nil {
		e.logFailure("Player delete failed", err, logrus.Fields{"player_id": playerID, "user_id": sess.UserID})
		return err
	}
	e.log.WithFields(logrus.Fields{"player_id": player.ID, "club_id": idField(player.ClubID)}).Info("Player deleted")
	e.invalidatePlayer(ctx, player.ClubID)
	e.publish(ctx, events.PlayerDeleted, BuildPlayerCard(player))
	return nil
}

func (e *Engine) invalidatePlayer(ctx context.Context, clubID *uint) {
	keys := []string{keyPlayers, keyClubs}
	if clubID != nil {
		keys = append(keys, rosterKey(*clubID))
	}
	e.invalidate(ctx, keys...)
}

// NewManager is the input of CreateManager
type NewManager struct {
	Name   string `json:"name"`
	Age    *int   `json:"age"`
	ClubID uint   `json:"club_id"`
}

// ManagerView is the admin projection of a manager profile
type ManagerView struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Age      *int   `json:"age,omitempty"`
	ClubID   uint   `json:"club_id"`
	ClubName string `json:"club_name"`
}

// CreateManager appoints a manager profile to a club without one
func (e *Engine) CreateManager(ctx context.Context, sess *domain.Session, in NewManager) (*domain.Manager, error) {
	if !sess.IsAdmin() {
		return nil, domain.Forbiddenf("only an admin may add managers")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validationf("manager name must not be empty")
	}
	if in.Age != nil {
		if err := ValidateAge(*in.Age); err != nil {
			return nil, err
		}
	}
	unlock := e.locks.Lock(clubKey(in.ClubID))
	defer unlock()

	manager := domain.Manager{Name: name, Age: in.Age, ClubID: in.ClubID, CreatedAt: e.now()}
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findClub(tx, in.ClubID); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&domain.Manager{}).Where("club_id = ?", in.ClubID).Count(&n).Error; err != nil {
			return storeErr(err)
		}
		if n > 0 {
			return domain.ErrClubHasManager
		}
		if err := tx.Create(&manager).Error; err != nil {
			if isConflict(err) {
				return domain.ErrClubHasManager
			}
			return storeErr(err)
		}
		return nil
	})
	if err != nil {
		e.logFailure("Manager create failed", err, logrus.Fields{"name": name, "club_id": in.ClubID})
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"manager_id": manager.ID, "club_id": manager.ClubID}).Info("Manager created")
	e.invalidate(ctx, keyClubs)
	return &manager, nil
}

// DeleteManager removes a manager profile. Linked accounts lose their club so
// they can no longer act for it.
func (e *Engine) DeleteManager(ctx context.Context, sess *domain.Session, managerID uint) error {
	if !sess.IsAdmin() {
		return domain.Forbiddenf("only an admin may delete managers")
	}
	var manager domain.Manager
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&manager, managerID).Error; err != nil {
			return notFound(err, domain.ErrManagerNotFound)
		}
		if err := tx.Model(&domain.User{}).Where("manager_id = ?", manager.ID).
			Updates(map[string]any{"manager_id": nil, "club_id": nil}).Error; err != nil {
			return storeErr(err)
		}
		return storeErr(tx.Delete(&domain.Manager{}, manager.ID).Error)
	})
	if err != nil {
		e.logFailure("Manager delete failed", err, logrus.Fields{"manager_id": managerID})
		return err
	}
	e.log.WithFields(logrus.Fields{"manager_id": manager.ID, "club_id": manager.ClubID}).Info("Manager deleted")
	e.invalidate(ctx, keyClubs)
	return nil
}

// ListManagers returns every manager profile by club name
func (e *Engine) ListManagers(ctx context.Context) ([]ManagerView, error) {
	rows := []ManagerView{}
	err := e.db.WithContext(ctx).Model(&domain.Manager{}).
		Select("managers.id, managers.name, managers.age, managers.club_id, clubs.name AS club_name").
		Joins("JOIN clubs ON clubs.id = managers.club_id").
		Order("clubs.name asc").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return rows, nil
}
