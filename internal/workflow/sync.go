package workflow

import (
	"context"
	"time"

	"club_system/internal/domain"
	"club_system/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ClubChange describes a player's move between clubs
type ClubChange struct {
	PlayerID   uint      `json:"player_id"`
	FromClubID *uint     `json:"from_club_id"`
	ToClubID   *uint     `json:"to_club_id"` // Nil when the player became a free agent
	ClubName   string    `json:"club_name"`
	Jersey     int       `json:"jersey"`
	Moved      bool      `json:"moved"` // False when the player already was at the club
	At         time.Time `json:"at"`
}

// Synchronizer keeps Player, User and Session agreeing on a player's club.
// Apply runs inside the caller's transaction so the store is updated atomically;
// Commit touches only in-memory state and cannot fail.
type Synchronizer struct {
	cache utils.Cache
	log   logrus.FieldLogger
}

// NewSynchronizer creates a synchronizer invalidating read models in cache
func NewSynchronizer(cache utils.Cache, log logrus.FieldLogger) *Synchronizer {
	return &Synchronizer{cache: cache, log: log}
}

// Apply moves playerID to clubID within tx: player row, linked users and history
func (s *Synchronizer) Apply(tx *gorm.DB, playerID, clubID uint, at time.Time) (ClubChange, error) {
	player, err := findPlayer(tx, playerID)
	if err != nil {
		return ClubChange{}, err
	}
	club, err := findClub(tx, clubID)
	if err != nil {
		return ClubChange{}, err
	}
	to := club.ID
	change := ClubChange{
		PlayerID:   player.ID,
		FromClubID: player.ClubID,
		ToClubID:   &to,
		ClubName:   club.Name,
		Jersey:     player.Jersey,
		Moved:      !player.InClub(club.ID),
		At:         at,
	}

	updates := map[string]any{"club_id": club.ID, "club_view": club.Name}
	if change.Moved {
		taken, err := jerseyTaken(tx, club.ID, player.Jersey, player.ID)
		if err != nil {
			return ClubChange{}, err
		}
		if taken {
			jersey, err := nextFreeJersey(tx, club.ID)
			if err != nil {
				return ClubChange{}, err
			}
			updates["jersey"] = jersey
			change.Jersey = jersey
		}
	}
	// 1. the player itself
	if err := tx.Model(&domain.Player{}).Where("id = ?", player.ID).Updates(updates).Error; err != nil {
		return ClubChange{}, storeErr(err)
	}
	// 2. every user account linked to the player
	if err := tx.Model(&domain.User{}).Where("player_id = ?", player.ID).Update("club_id", club.ID).Error; err != nil {
		return ClubChange{}, storeErr(err)
	}
	// 3. history, only for an actual move so a repeated Apply is a no-op
	if change.Moved {
		h := domain.TransferHistory{PlayerID: player.ID, FromClubID: player.ClubID, ToClubID: &to, TransferDate: at}
		if err := tx.Create(&h).Error; err != nil {
			return ClubChange{}, storeErr(err)
		}
	}
	return change, nil
}

// Release turns every player of clubID into a free agent within tx
func (s *Synchronizer) Release(tx *gorm.DB, clubID uint, at time.Time) ([]ClubChange, error) {
	var players []domain.Player
	if err := tx.Where("club_id = ?", clubID).Find(&players).Error; err != nil {
		return nil, storeErr(err)
	}
	changes := make([]ClubChange, 0, len(players))
	for _, p := range players {
		if err := tx.Model(&domain.Player{}).Where("id = ?", p.ID).
			Updates(map[string]any{"club_id": nil, "club_view": ""}).Error; err != nil {
			return nil, storeErr(err)
		}
		if err := tx.Model(&domain.User{}).Where("player_id = ?", p.ID).Update("club_id", nil).Error; err != nil {
			return nil, storeErr(err)
		}
		from := clubID
		h := domain.TransferHistory{PlayerID: p.ID, FromClubID: &from, TransferDate: at}
		if err := tx.Create(&h).Error; err != nil {
			return nil, storeErr(err)
		}
		changes = append(changes, ClubChange{PlayerID: p.ID, FromClubID: &from, Jersey: p.Jersey, Moved: true, At: at})
	}
	return changes, nil
}

// Commit publishes a stored change to in-memory state: live sessions of the moved
// player and the cached read models derived from rosters.
func (s *Synchronizer) Commit(ctx context.Context, change ClubChange, sessions ...*domain.Session) {
	for _, sess := range sessions {
		if sess.IsPlayer(change.PlayerID) {
			sess.ClubID = copyID(change.ToClubID)
		}
	}
	keys := []string{keyPlayers, keyMarket, keyClubs}
	if change.FromClubID != nil {
		keys = append(keys, rosterKey(*change.FromClubID))
	}
	if change.ToClubID != nil {
		keys = append(keys, rosterKey(*change.ToClubID))
	}
	invalidate(ctx, s.cache, s.log, keys...)
	if change.Moved {
		s.log.WithFields(logrus.Fields{
			"player_id":    change.PlayerID,
			"from_club_id": idField(change.FromClubID),
			"to_club_id":   idField(change.ToClubID),
			"jersey":       change.Jersey,
		}).Info("Player club synchronized")
	}
}

func copyID(id *uint) *uint {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// idField renders an optional id for log fields
func idField(id *uint) any {
	if id == nil {
		return nil
	}
	return *id
}
