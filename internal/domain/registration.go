package domain

import "time"

// RegistrationStatus is the state of a registration request
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "PENDING"  // Awaiting admin
	RegistrationApproved RegistrationStatus = "APPROVED" // Terminal, profile created
	RegistrationRejected RegistrationStatus = "REJECTED" // Terminal
)

// Label returns the display name of the status
func (s RegistrationStatus) Label() string {
	switch s {
	case RegistrationPending:
		return "Pending Admin Approval"
	case RegistrationApproved:
		return "Approved"
	case RegistrationRejected:
		return "Rejected"
	}
	return string(s)
}

// RegistrationRequest Model
type RegistrationRequest struct {
	ID            uint               `gorm:"primaryKey" json:"id"`                         // Primary key
	Username      string             `gorm:"uniqueIndex;size:64;not null" json:"username"` // Requested username
	Password      string             `gorm:"not null" json:"-"`                            // Bcrypt hash
	FullName      string             `gorm:"not null" json:"full_name"`                    // Profile name
	RequestedRole Role               `gorm:"size:20;not null" json:"requested_role"`       // CLUB_MANAGER or PLAYER
	ClubID        uint               `gorm:"index;not null" json:"club_id"`                // Target club
	Age           *int               `json:"age"`                                          // Optional age
	Position      *string            `gorm:"size:20" json:"position"`                      // PLAYER only
	Status        RegistrationStatus `gorm:"size:20;index;not null" json:"status"`         // Workflow state
	RequestDate   time.Time          `gorm:"index;not null" json:"request_date"`           // Submission time
	ApprovedDate  *time.Time         `json:"approved_date"`                                // Approval time
	Remarks       string             `json:"remarks"`                                      // Rejection reason
}
