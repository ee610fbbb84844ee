package domain

import "time"

// Manager Model, one per club
type Manager struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                // Primary key
	Name      string    `gorm:"not null" json:"name"`                // Display name
	Age       *int      `json:"age,omitempty"`                       // Optional age
	ClubID    uint      `gorm:"uniqueIndex;not null" json:"club_id"` // Owning club, unique
	CreatedAt time.Time `json:"created_at"`                          // Creation timestamp
}
