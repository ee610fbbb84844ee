package domain

import "time"

// Club Model
type Club struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                      // Primary key
	Name      string    `gorm:"uniqueIndex;size:120;not null" json:"name"` // Unique club name
	CreatedAt time.Time `json:"created_at"`                                // Creation timestamp
	Players   []Player  `gorm:"foreignKey:ClubID" json:"-"`                // Roster back-reference, not ownership
}
