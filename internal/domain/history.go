package domain

import "time"

// TransferHistory records every completed club change of a player
type TransferHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`            // Primary key
	PlayerID     uint      `gorm:"index;not null" json:"player_id"` // Moved player
	FromClubID   *uint     `json:"from_club_id"`                    // Previous club, nil for free agents
	ToClubID     *uint     `json:"to_club_id"`                      // New club
	TransferDate time.Time `gorm:"not null" json:"transfer_date"`   // When the move happened
}

// TableName keeps the singular table name used by the club database
func (TransferHistory) TableName() string { return "transfer_history" }
