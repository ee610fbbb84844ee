package workflow

import (
	"strconv"
	"time"

	"club_system/internal/domain"
)

// Cache keys of the read models rebuilt after every workflow mutation
const (
	keyMarket  = "market:listing"
	keyPlayers = "players:all"
	keyClubs   = "clubs:all"
)

const rosterPrefix = "roster:club:"

func rosterKey(clubID uint) string {
	return rosterPrefix + strconv.FormatUint(uint64(clubID), 10)
}

// TransferView is the display projection of a transfer request.
// Names come from snapshots taken at write time and may be stale after a rename.
type TransferView struct {
	ID                   uint                  `json:"id"`
	PlayerID             uint                  `json:"player_id"`
	PlayerName           string                `json:"player_name"`
	SourceClubID         uint                  `json:"source_club_id"`
	SourceClubName       string                `json:"source_club_name"`
	DestinationClubID    *uint                 `json:"destination_club_id"`
	DestinationClubName  string                `json:"destination_club_name"`
	Status               domain.TransferStatus `json:"status"`
	StatusLabel          string                `json:"status_label"`
	TransferFee          float64               `json:"transfer_fee"`
	RequestDate          time.Time             `json:"request_date"`
	ApprovedBySourceDate *time.Time            `json:"approved_by_source_date,omitempty"`
	CompletedDate        *time.Time            `json:"completed_date,omitempty"`
	Remarks              string                `json:"remarks,omitempty"`
}

// BuildTransferView projects a request for display
func BuildTransferView(r *domain.TransferRequest) TransferView {
	dest := r.DestinationClubName
	if r.DestinationClubID == nil {
		dest = domain.GeneralMarket
	}
	return TransferView{
		ID:                   r.ID,
		PlayerID:             r.PlayerID,
		PlayerName:           r.PlayerName,
		SourceClubID:         r.SourceClubID,
		SourceClubName:       r.SourceClubName,
		DestinationClubID:    r.DestinationClubID,
		DestinationClubName:  dest,
		Status:               r.Status,
		StatusLabel:          r.Status.Label(),
		TransferFee:          r.TransferFee,
		RequestDate:          r.RequestDate,
		ApprovedBySourceDate: r.ApprovedBySourceDate,
		CompletedDate:        r.CompletedDate,
		Remarks:              r.Remarks,
	}
}

func buildTransferViews(reqs []domain.TransferRequest) []TransferView {
	out := make([]TransferView, len(reqs))
	for i := range reqs {
		out[i] = BuildTransferView(&reqs[i])
	}
	return out
}

// snapshotTransfer fills the denormalized display names of a request
func snapshotTransfer(r *domain.TransferRequest, player *domain.Player, source, dest *domain.Club) {
	r.PlayerName = player.Name
	r.SourceClubName = source.Name
	r.DestinationClubName = ""
	if dest != nil {
		r.DestinationClubName = dest.Name
	}
}

// PlayerCard is the display projection of a player
type PlayerCard struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Age      int             `json:"age"`
	Jersey   int             `json:"jersey"`
	Position domain.Position `json:"position"`
	Injured  bool            `json:"injured"`
	ClubID   *uint           `json:"club_id"`
	ClubName string          `json:"club_name"`
}

// BuildPlayerCard projects a player using the club name snapshot
func BuildPlayerCard(p *domain.Player) PlayerCard {
	return PlayerCard{
		ID:       p.ID,
		Name:     p.Name,
		Age:      p.Age,
		Jersey:   p.Jersey,
		Position: p.Position,
		Injured:  p.Injured,
		ClubID:   p.ClubID,
		ClubName: p.ClubView,
	}
}

// MarketEntry is one card of the public transfer market
type MarketEntry struct {
	Transfer TransferView `json:"transfer"`
	Player   PlayerCard   `json:"player"`
}

// ClubView is the display projection of a club
type ClubView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"player_count"`
	ManagerName string `json:"manager_name,omitempty"`
}

// RegistrationView is the admin projection of a registration request
type RegistrationView struct {
	ID            uint                      `json:"id"`
	Username      string                    `json:"username"`
	FullName      string                    `json:"full_name"`
	RequestedRole domain.Role               `json:"requested_role"`
	ClubID        uint                      `json:"club_id"`
	ClubName      string                    `json:"club_name"`
	Age           *int                      `json:"age,omitempty"`
	Position      *string                   `json:"position,omitempty"`
	Status        domain.RegistrationStatus `json:"status"`
	StatusLabel   string                    `json:"status_label"`
	RequestDate   time.Time                 `json:"request_date"`
	ApprovedDate  *time.Time                `json:"approved_date,omitempty"`
	Remarks       string                    `json:"remarks,omitempty"`
}

// BuildRegistrationView projects a registration request; clubName is resolved by the caller
func BuildRegistrationView(r *domain.RegistrationRequest, clubName string) RegistrationView {
	return RegistrationView{
		ID:            r.ID,
		Username:      r.Username,
		FullName:      r.FullName,
		RequestedRole: r.RequestedRole,
		ClubID:        r.ClubID,
		ClubName:      clubName,
		Age:           r.Age,
		Position:      r.Position,
		Status:        r.Status,
		StatusLabel:   r.Status.Label(),
		RequestDate:   r.RequestDate,
		ApprovedDate:  r.ApprovedDate,
		Remarks:       r.Remarks,
	}
}
