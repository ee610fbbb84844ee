package domain

// Session is the authenticated actor driving a workflow command.
// It is passed explicitly into every call instead of living in global state.
type Session struct {
	UserID    uint
	Username  string
	Role      Role
	ClubID    *uint
	PlayerID  *uint
	ManagerID *uint
}

// NewSession builds a session from a persisted user
func NewSession(u *User) *Session {
	return &Session{
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		ClubID:    copyID(u.ClubID),
		PlayerID:  copyID(u.PlayerID),
		ManagerID: copyID(u.ManagerID),
	}
}

// IsAdmin reports whether the session carries the system admin role
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleSystemAdmin
}

// ManagesClub reports whether the session is the manager of clubID
func (s *Session) ManagesClub(clubID uint) bool {
	return s != nil && s.Role == RoleClubManager && s.ClubID != nil && *s.ClubID == clubID
}

// IsPlayer reports whether the session belongs to playerID
func (s *Session) IsPlayer(playerID uint) bool {
	return s != nil && s.PlayerID != nil && *s.PlayerID == playerID
}

func copyID(id *uint) *uint {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
