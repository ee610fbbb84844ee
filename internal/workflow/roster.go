package workflow

import (
	"context"
	"strings"
	"time"

	"club_system/internal/domain"
	"club_system/internal/events"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FreeAgent is the display club of a player without a club
const FreeAgent = "Free Agent"

// MaxClubName is the longest accepted club name
const MaxClubName = 120

// CreateClub adds a club with a unique name
func (e *Engine) CreateClub(ctx context.Context, sess *domain.Session, name string) (*domain.Club, error) {
	if !sess.IsAdmin() {
		return nil, domain.Forbiddenf("only an admin may create clubs")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxClubName {
		return nil, domain.Validationf("club name must be 1-%d characters", MaxClubName)
	}
	club := domain.Club{Name: name, CreatedAt: e.now()}
	if err := e.db.WithContext(ctx).Create(&club).Error; err != nil {
		if isConflict(err) {
			return nil, domain.ErrDuplicateClub
		}
		e.logFailure("Club create failed", storeErr(err), logrus.Fields{"name": name})
		return nil, storeErr(err)
	}
	e.log.WithFields(logrus.Fields{"club_id": club.ID, "name": club.Name}).Info("Club created")
	e.invalidate(ctx, keyClubs)
	return &club, nil
}

// ListClubs returns every club by name with roster size and manager
func (e *Engine) ListClubs(ctx context.Context) ([]ClubView, error) {
	return cached(ctx, e, keyClubs, func() ([]ClubView, error) {
		db := e.db.WithContext(ctx)
		var clubs []domain.Club
		if err := db.Order("name asc").Find(&clubs).Error; err != nil {
			return nil, storeErr(err)
		}
		type count struct {
			ClubID uint
			N      int
		}
		var counts []count
		if err := db.Model(&domain.Player{}).
			Select("club_id, count(*) as n").
			Where("club_id IS NOT NULL").
			Group("club_id").
			Scan(&counts).Error; err != nil {
			return nil, storeErr(err)
		}
		var managers []domain.Manager
		if err := db.Find(&managers).Error; err != nil {
			return nil, storeErr(err)
		}
		players := make(map[uint]int, len(counts))
		for _, c := range counts {
			players[c.ClubID] = c.N
		}
		names := make(map[uint]string, len(managers))
		for _, m := range managers {
			names[m.ClubID] = m.Name
		}
		views := make([]ClubView, len(clubs))
		for i, c := range clubs {
			views[i] = ClubView{ID: c.ID, Name: c.Name, PlayerCount: players[c.ID], ManagerName: names[c.ID]}
		}
		return views, nil
	})
}

// ClubRoster returns the players of a club by jersey number
func (e *Engine) ClubRoster(ctx context.Context, clubID uint) ([]PlayerCard, error) {
	return cached(ctx, e, rosterKey(clubID), func() ([]PlayerCard, error) {
		db := e.db.WithContext(ctx)
		if _, err := findClub(db, clubID); err != nil {
			return nil, err
		}
		var players []domain.Player
		if err := db.Where("club_id = ?", clubID).Order("jersey asc, id asc").Find(&players).Error; err != nil {
			return nil, storeErr(err)
		}
		return buildPlayerCards(players), nil
	})
}

// ListPlayers returns every player, free agents included, by club then jersey
func (e *Engine) ListPlayers(ctx context.Context) ([]PlayerCard, error) {
	return cached(ctx, e, keyPlayers, func() ([]PlayerCard, error) {
		var players []domain.Player
		if err := e.db.WithContext(ctx).Order("club_view asc, jersey asc, id asc").Find(&players).Error; err != nil {
			return nil, storeErr(err)
		}
		return buildPlayerCards(players), nil
	})
}

func buildPlayerCards(players []domain.Player) []PlayerCard {
	cards := make([]PlayerCard, len(players))
	for i := range players {
		cards[i] = BuildPlayerCard(&players[i])
		if cards[i].ClubID == nil {
			cards[i].ClubName = FreeAgent
		}
	}
	return cards
}

// DeleteClub removes a club. Its players become free agents and its manager
// profile is removed; refused while the club is party to an active transfer.
func (e *Engine) DeleteClub(ctx context.Context, sess *domain.Session, clubID uint) error {
	if !sess.IsAdmin() {
		return domain.Forbiddenf("only an admin may delete clubs")
	}
	unlock := e.locks.Lock(clubKey(clubID))
	defer unlock()

	var changes []ClubChange
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findClub(tx, clubID); err != nil {
			return err
		}
		var busy int64
		if err := tx.Model(&domain.TransferRequest{}).
			Where("(source_club_id = ? OR destination_club_id = ?) AND status IN ?", clubID, clubID, domain.ActiveTransferStatuses).
			Count(&busy).Error; err != nil {
			return storeErr(err)
		}
		if busy > 0 {
			return domain.ErrClubBusy
		}
		var err error
		if changes, err = e.sync.Release(tx, clubID, e.now()); err != nil {
			return err
		}
		var managerIDs []uint
		if err := tx.Model(&domain.Manager{}).Where("club_id = ?", clubID).Pluck("id", &managerIDs).Error; err != nil {
			return storeErr(err)
		}
		if len(managerIDs) > 0 {
			if err := tx.Model(&domain.User{}).Where("manager_id IN ?", managerIDs).Update("manager_id", nil).Error; err != nil {
				return storeErr(err)
			}
		}
		if err := tx.Model(&domain.User{}).Where("club_id = ?", clubID).Update("club_id", nil).Error; err != nil {
			return storeErr(err)
		}
		if err := tx.Where("club_id = ?", clubID).Delete(&domain.Manager{}).Error; err != nil {
			return storeErr(err)
		}
		return storeErr(tx.Delete(&domain.Club{}, clubID).Error)
	})
	if err != nil {
		e.logFailure("Club delete failed", err, logrus.Fields{"club_id": clubID})
		return err
	}
	for _, change := range changes {
		e.sync.Commit(ctx, change, sess)
	}
	e.invalidate(ctx, keyClubs)
	if err := e.cache.DeletePrefix(ctx, rosterPrefix); err != nil {
		e.log.WithField("error", err.Error()).Warn("Failed to invalidate rosters")
	}
	e.log.WithFields(logrus.Fields{"club_id": clubID, "released": len(changes)}).Info("Club deleted")
	return nil
}

// PlayerUpdate carries the editable fields of a player; nil leaves a field unchanged
type PlayerUpdate struct {
	Name     *string `json:"name"`
	Age      *int    `json:"age"`
	Jersey   *int    `json:"jersey"`
	Position *string `json:"position"`
	Injured  *bool   `json:"injured"`
	ClubID   *uint   `json:"club_id"` // Admin only, goes through the synchronizer
}

// UpdatePlayer edits a player. The player's club manager or an admin may edit;
// only an admin may move the player to another club.
func (e *Engine) UpdatePlayer(ctx context.Context, sess *domain.Session, playerID uint, in PlayerUpdate) (*domain.Player, error) {
	if sess == nil {
		return nil, domain.ErrUnauthorized
	}
	unlock := e.locks.Lock(playerKey(playerID))
	defer unlock()

	var (
		player *domain.Player
		change *ClubChange
	)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if player, err = findPlayer(tx, playerID); err != nil {
			return err
		}
		if !sess.IsAdmin() && (player.ClubID == nil || !sess.ManagesClub(*player.ClubID)) {
			return domain.Forbiddenf("only the club manager or an admin may edit this player")
		}
		updates := map[string]any{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.Validationf("player name must not be empty")
			}
			updates["name"] = name
		}
		if in.Age != nil {
			if err := ValidateAge(*in.Age); err != nil {
				return err
			}
			updates["age"] = *in.Age
		}
		if in.Position != nil {
			pos, ok := domain.ParsePosition(*in.Position)
			if !ok {
				return domain.Validationf("unknown position %q", *in.Position)
			}
			updates["position"] = pos
		}
		if in.Injured != nil {
			updates["injured"] = *in.Injured
		}
		if in.Jersey != nil && (*in.Jersey < 1 || *in.Jersey > MaxJersey) {
			return domain.Validationf("jersey number must be between 1 and %d", MaxJersey)
		}

		// Club first so the jersey check below sees the new roster
		if in.ClubID != nil && !player.InClub(*in.ClubID) {
			if !sess.IsAdmin() {
				return domain.Forbiddenf("only an admin may change a player's club")
			}
			active, err := hasActiveTransfer(tx, player.ID)
			if err != nil {
				return err
			}
			if active {
				return domain.ErrPlayerInTransfer
			}
			c, err := e.sync.Apply(tx, player.ID, *in.ClubID, e.now())
			if err != nil {
				return err
			}
			change = &c
			player.ClubID = c.ToClubID
			player.Jersey = c.Jersey
		}
		if in.Jersey != nil && *in.Jersey != player.Jersey {
			if player.ClubID != nil {
				taken, err := jerseyTaken(tx, *player.ClubID, *in.Jersey, player.ID)
				if err != nil {
					return err
				}
				if taken {
					return domain.ErrJerseyTaken
				}
			}
			updates["jersey"] = *in.Jersey
		}
		if len(updates) > 0 {
			if err := tx.Model(&domain.Player{}).Where("id = ?", player.ID).Updates(updates).Error; err != nil {
				if isConflict(err) {
					return domain.ErrJerseyTaken
				}
				return storeErr(err)
			}
		}
		player, err = findPlayer(tx, player.ID)
		return err
	})
	if err != nil {
		e.logFailure("Player update failed", err, logrus.Fields{"player_id": playerID, "user_id": sess.UserID})
		return nil, err
	}
	if change != nil {
		e.sync.Commit(ctx, *change, sess)
		e.publish(ctx, events.PlayerMoved, change)
	}
	keys := []string{keyPlayers, keyMarket}
	if player.ClubID != nil {
		keys = append(keys, rosterKey(*player.ClubID))
	}
	e.invalidate(ctx, keys...)
	e.log.WithFields(logrus.Fields{"player_id": player.ID, "user_id": sess.UserID}).Info("Player updated")
	return player, nil
}

// HistoryEntry is one past club change of a player
type HistoryEntry struct {
	ID           uint      `json:"id"`
	FromClubID   *uint     `json:"from_club_id"`
	FromClub     string    `json:"from_club"`
	ToClubID     *uint     `json:"to_club_id"`
	ToClub       string    `json:"to_club"`
	TransferDate time.Time `json:"transfer_date"`
}

// PlayerHistory returns a player's club changes, newest first
func (e *Engine) PlayerHistory(ctx context.Context, playerID uint) ([]HistoryEntry, error) {
	db := e.db.WithContext(ctx)
	if _, err := findPlayer(db, playerID); err != nil {
		return nil, err
	}
	var rows []domain.TransferHistory
	if err := db.Where("player_id = ?", playerID).Order("transfer_date desc, id desc").Find(&rows).Error; err != nil {
		return nil, storeErr(err)
	}
	var clubs []domain.Club
	if err := db.Find(&clubs).Error; err != nil {
		return nil, storeErr(err)
	}
	names := make(map[uint]string, len(clubs))
	for _, c := range clubs {
		names[c.ID] = c.Name
	}
	clubName := func(id *uint) string {
		if id == nil {
			return FreeAgent
		}
		return names[*id] // Empty when the club was deleted since
	}
	entries := make([]HistoryEntry, len(rows))
	for i, h := range rows {
		entries[i] = HistoryEntry{
			ID:           h.ID,
			FromClubID:   h.FromClubID,
			FromClub:     clubName(h.FromClubID),
			ToClubID:     h.ToClubID,
			ToClub:       clubName(h.ToClubID),
			TransferDate: h.TransferDate,
		}
	}
	return entries, nil
}
