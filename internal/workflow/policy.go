package workflow

import (
	"regexp"
	"strings"

	"club_system/internal/domain"
)

// Age limits accepted on registration and player edits
const (
	MinAge     = 1
	MaxAge     = 100
	DefaultAge = 25 // Used when a player registration carries no age
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]{1,31}$`) // Letter first, 2-32 chars
	passwordLetter  = regexp.MustCompile(`[A-Za-z]`)
	passwordDigit   = regexp.MustCompile(`[0-9]`)
	passwordSymbol  = regexp.MustCompile(`[@#$]`)
)

// MinPasswordLength is the shortest password a registration accepts
const MinPasswordLength = 4

// RegistrationForm is the self-service sign-up input
type RegistrationForm struct {
	Username      string      `json:"username"`
	Password      string      `json:"password"`
	FullName      string      `json:"full_name"`
	RequestedRole domain.Role `json:"requested_role"`
	ClubID        uint        `json:"club_id"`
	Age           *int        `json:"age"`
	Position      string      `json:"position"`
}

// normalize trims the form and lowercases the username
func (f *RegistrationForm) normalize() {
	f.Username = strings.ToLower(strings.TrimSpace(f.Username))
	f.FullName = strings.TrimSpace(f.FullName)
	f.Position = strings.TrimSpace(f.Position)
	f.RequestedRole = domain.Role(strings.ToUpper(strings.TrimSpace(string(f.RequestedRole))))
	if f.FullName == "" {
		f.FullName = f.Username
	}
}

// validate checks the form without touching the store
func (f *RegistrationForm) validate() error {
	if f.Username == "" || f.Password == "" || f.RequestedRole == "" || f.ClubID == 0 {
		return domain.Validationf("please fill in all required fields")
	}
	if !usernamePattern.MatchString(f.Username) {
		return domain.Validationf("username must start with a letter and use 2-32 letters, digits, '_' or '.'")
	}
	if err := ValidatePassword(f.Password); err != nil {
		return err
	}
	switch f.RequestedRole {
	case domain.RoleClubManager:
	case domain.RolePlayer:
		if f.Position == "" {
			return domain.Validationf("position is required for players")
		}
	default:
		return domain.Validationf("requested role must be %s or %s", domain.RoleClubManager, domain.RolePlayer)
	}
	if f.Age != nil {
		if err := ValidateAge(*f.Age); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePassword enforces the password policy
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.Validationf("password must be at least %d characters", MinPasswordLength)
	}
	if !passwordLetter.MatchString(password) || !passwordDigit.MatchString(password) || !passwordSymbol.MatchString(password) {
		return domain.Validationf("password must contain a letter, a digit and one of @ # $")
	}
	return nil
}

// ValidateAge checks an age against the accepted range
func ValidateAge(age int) error {
	if age < MinAge || age > MaxAge {
		return domain.Validationf("age must be between %d and %d", MinAge, MaxAge)
	}
	return nil
}

// resolvePosition parses a requested position, falling back to midfield
func resolvePosition(s *string) domain.Position {
	if s == nil {
		return domain.PositionMidfielder
	}
	if p, ok := domain.ParsePosition(*s); ok {
		return p
	}
	return domain.PositionMidfielder
}
