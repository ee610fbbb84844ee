package domain

// Role of an authenticated user
type Role string

const (
	RoleSystemAdmin Role = "SYSTEM_ADMIN"
	RoleClubOwner   Role = "CLUB_OWNER"
	RoleClubManager Role = "CLUB_MANAGER"
	RolePlayer      Role = "PLAYER"
)

// User Model
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`                         // Primary key
	Username  string `gorm:"uniqueIndex;size:64;not null" json:"username"` // Unique username
	Password  string `gorm:"not null" json:"-"`                            // Bcrypt hash
	Role      Role   `gorm:"size:20;not null" json:"role"`                 // Role gate
	ClubID    *uint  `gorm:"index" json:"club_id"`                         // Club, nil for SYSTEM_ADMIN
	PlayerID  *uint  `gorm:"index" json:"player_id,omitempty"`             // Set for PLAYER role only
	ManagerID *uint  `gorm:"index" json:"manager_id,omitempty"`            // Set for CLUB_MANAGER role only
}
