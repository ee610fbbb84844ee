package domain

import (
	"strings"
	"time"
)

// Position of a player on the pitch
type Position string

const (
	PositionGoalkeeper Position = "GOALKEEPER"
	PositionDefender   Position = "DEFENDER"
	PositionMidfielder Position = "MIDFIELDER"
	PositionForward    Position = "FORWARD"
)

// Positions lists every valid position in display order
var Positions = []Position{PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionForward}

// ParsePosition resolves a case-insensitive position name
func ParsePosition(s string) (Position, bool) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Positions {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// Player Model
type Player struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                               // Primary key
	Name      string    `gorm:"not null" json:"name"`                               // Player name
	Age       int       `gorm:"not null" json:"age"`                                // Age in years
	Jersey    int       `gorm:"not null;uniqueIndex:idx_club_jersey" json:"jersey"` // Jersey number, unique per club
	Position  Position  `gorm:"size:20;not null" json:"position"`                   // Pitch position
	Injured   bool      `gorm:"not null;default:false" json:"injured"`              // Injury flag
	ClubID    *uint     `gorm:"index;uniqueIndex:idx_club_jersey" json:"club_id"`   // Current club, nil for free agents
	ClubView  string    `json:"club_view"`                                          // Club name snapshot, may be stale after a rename
	CreatedAt time.Time `json:"created_at"`                                         // Creation timestamp
	UpdatedAt time.Time `json:"updated_at"`                                         // Last update timestamp
}

// InClub reports whether the player currently belongs to clubID
func (p *Player) InClub(clubID uint) bool {
	return p.ClubID != nil && *p.ClubID == clubID
}
