package domain

import "time"

// TransferStatus is the state of a transfer request
type TransferStatus string

const (
	TransferPendingApproval TransferStatus = "PENDING_APPROVAL" // Initial state
	TransferInMarket        TransferStatus = "IN_MARKET"        // Approved and listed
	TransferCompleted       TransferStatus = "COMPLETED"        // Terminal, purchased
	TransferCancelled       TransferStatus = "CANCELLED"        // Terminal, withdrawn
)

// ActiveTransferStatuses are the non-terminal states; a player holds at most one request in them
var ActiveTransferStatuses = []TransferStatus{TransferPendingApproval, TransferInMarket}

// IsActive reports whether the status is non-terminal
func (s TransferStatus) IsActive() bool {
	return s == TransferPendingApproval || s == TransferInMarket
}

// Label returns the display name of the status
func (s TransferStatus) Label() string {
	switch s {
	case TransferPendingApproval:
		return "Pending - Awaiting Manager Approval"
	case TransferInMarket:
		return "Available in Transfer Market"
	case TransferCompleted:
		return "Transfer Completed"
	case TransferCancelled:
		return "Transfer Cancelled"
	}
	return string(s)
}

// GeneralMarket is the display name of a request without a fixed destination
const GeneralMarket = "General Market"

// TransferRequest Model
type TransferRequest struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`                   // Primary key
	PlayerID             uint           `gorm:"index;not null" json:"player_id"`        // Player being transferred
	SourceClubID         uint           `gorm:"index;not null" json:"source_club_id"`   // Club at submission time
	DestinationClubID    *uint          `gorm:"index" json:"destination_club_id"`       // Nil means general market
	Status               TransferStatus `gorm:"size:20;index;not null" json:"status"`   // Workflow state
	TransferFee          float64        `gorm:"not null;default:0" json:"transfer_fee"` // Set at approval, millions
	RequestDate          time.Time      `gorm:"index;not null" json:"request_date"`     // Submission time
	ApprovedBySourceDate *time.Time     `json:"approved_by_source_date"`                // Approval time
	CompletedDate        *time.Time     `json:"completed_date"`                         // Purchase time
	Remarks              string         `json:"remarks"`                                // Free text
	PlayerName           string         `json:"player_name"`                            // Snapshot, may be stale
	SourceClubName       string         `json:"source_club_name"`                       // Snapshot, may be stale
	DestinationClubName  string         `json:"destination_club_name"`                  // Snapshot, may be stale
	ActivePlayerID       *uint          `gorm:"uniqueIndex" json:"-"`                   // PlayerID while active, nil once terminal
}
