package workflow

import (
	"context"
	"strings"

	"club_system/internal/domain"
	"club_system/internal/events"
	"club_system/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SubmitRegistration stores a PENDING sign-up request with a hashed password
func (e *Engine) SubmitRegistration(ctx context.Context, form RegistrationForm) (*domain.RegistrationRequest, error) {
	form.normalize()
	if err := form.validate(); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(form.Password)
	if err != nil {
		return nil, domain.Validationf("password cannot be hashed")
	}
	unlock := e.locks.Lock(usernameKey(form.Username))
	defer unlock()

	var req domain.RegistrationRequest
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findClub(tx, form.ClubID); err != nil {
			return err
		}
		if form.RequestedRole == domain.RoleClubManager {
			var n int64
			if err := tx.Model(&domain.Manager{}).Where("club_id = ?", form.ClubID).Count(&n).Error; err != nil {
				return storeErr(err)
			}
			if n > 0 {
				return domain.ErrClubHasManager
			}
		}
		taken, err := usernameTaken(tx, form.Username)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrDuplicateUsername
		}
		req = domain.RegistrationRequest{
			Username:      form.Username,
			Password:      hash,
			FullName:      form.FullName,
			RequestedRole: form.RequestedRole,
			ClubID:        form.ClubID,
			Age:           form.Age,
			Status:        domain.RegistrationPending,
			RequestDate:   e.now(),
		}
		if form.RequestedRole == domain.RolePlayer {
			pos := form.Position
			if p, ok := domain.ParsePosition(pos); ok {
				pos = string(p)
			}
			req.Position = &pos
		}
		if err := tx.Create(&req).Error; err != nil {
			if isConflict(err) {
				return domain.ErrDuplicateUsername // Lost a race on the unique index
			}
			return storeErr(err)
		}
		return nil
	})
	if err != nil {
		e.logFailure("Registration submit failed", err, logrus.Fields{"username": form.Username, "club_id": form.ClubID})
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"registration_id": req.ID,
		"username":        req.Username,
		"role":            req.RequestedRole,
		"club_id":         req.ClubID,
	}).Info("Registration request submitted")
	return &req, nil
}

// ApprovalResult holds the profile and account created by an approval
type ApprovalResult struct {
	Request *domain.RegistrationRequest `json:"request"`
	User    *domain.User                `json:"user"`
	Player  *domain.Player              `json:"player,omitempty"`
	Manager *domain.Manager             `json:"manager,omitempty"`
}

// ApproveRegistration creates the profile and user account of a pending request
func (e *Engine) ApproveRegistration(ctx context.Context, sess *domain.Session, id uint) (*ApprovalResult, error) {
	if !sess.IsAdmin() {
		return nil, domain.Forbiddenf("only an admin may approve registrations")
	}
	unlock := e.locks.Lock(registrationKey(id))
	defer unlock()

	var res ApprovalResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := findRegistration(tx, id)
		if err != nil {
			return err
		}
		if req.Status != domain.RegistrationPending {
			return domain.ErrInvalidState
		}
		club, err := findClub(tx, req.ClubID)
		if err != nil {
			return err
		}
		clubID := club.ID
		user := domain.User{Username: req.Username, Password: req.Password, Role: req.RequestedRole, ClubID: &clubID}

		switch req.RequestedRole {
		case domain.RoleClubManager:
			manager := domain.Manager{Name: req.FullName, Age: req.Age, ClubID: club.ID}
			if err := tx.Create(&manager).Error; err != nil {
				if isConflict(err) {
					return domain.ErrClubHasManager
				}
				return storeErr(err)
			}
			user.ManagerID = &manager.ID
			res.Manager = &manager
		case domain.RolePlayer:
			age := DefaultAge
			if req.Age != nil {
				age = *req.Age
			}
			jersey, err := nextFreeJersey(tx, club.ID)
			if err != nil {
				return err
			}
			player := domain.Player{
				Name:     req.FullName,
				Age:      age,
				Jersey:   jersey,
				Position: resolvePosition(req.Position),
				ClubID:   &clubID,
				ClubView: club.Name,
			}
			if err := tx.Create(&player).Error; err != nil {
				return storeErr(err)
			}
			user.PlayerID = &player.ID
			res.Player = &player
		default:
			return domain.Validationf("unsupported requested role %q", req.RequestedRole)
		}

		if err := tx.Create(&user).Error; err != nil {
			if isConflict(err) {
				return domain.ErrDuplicateUsername
			}
			return storeErr(err)
		}
		now := e.now()
		upd := tx.Model(&domain.RegistrationRequest{}).
			Where("id = ? AND status = ?", id, domain.RegistrationPending).
			Updates(map[string]any{"status": domain.RegistrationApproved, "approved_date": now})
		if upd.Error != nil {
			return storeErr(upd.Error)
		}
		if upd.RowsAffected == 0 {
			return domain.ErrInvalidState // Decided elsewhere meanwhile, roll back the account
		}
		req.Status = domain.RegistrationApproved
		req.ApprovedDate = &now
		res.Request = req
		res.User = &user
		return nil
	})
	if err != nil {
		e.logFailure("Registration approval failed", err, logrus.Fields{"registration_id": id})
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"registration_id": id,
		"user_id":         res.User.ID,
		"role":            res.User.Role,
		"club_id":         res.Request.ClubID,
	}).Info("Registration approved")
	e.invalidate(ctx, keyPlayers, keyClubs, rosterKey(res.Request.ClubID))
	e.publish(ctx, events.RegistrationApproved, BuildRegistrationView(res.Request, ""))
	return &res, nil
}

// RejectRegistration closes a pending request with a reason
func (e *Engine) RejectRegistration(ctx context.Context, sess *domain.Session, id uint, reason string) (*domain.RegistrationRequest, error) {
	if !sess.IsAdmin() {
		return nil, domain.Forbiddenf("only an admin may reject registrations")
	}
	unlock := e.locks.Lock(registrationKey(id))
	defer unlock()

	var req *domain.RegistrationRequest
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if req, err = findRegistration(tx, id); err != nil {
			return err
		}
		if req.Status != domain.RegistrationPending {
			return domain.ErrInvalidState
		}
		reason = strings.TrimSpace(reason)
		res := tx.Model(&domain.RegistrationRequest{}).
			Where("id = ? AND status = ?", id, domain.RegistrationPending).
			Updates(map[string]any{"status": domain.RegistrationRejected, "remarks": reason})
		if res.Error != nil {
			return storeErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrInvalidState
		}
		req.Status = domain.RegistrationRejected
		req.Remarks = reason
		return nil
	})
	if err != nil {
		e.logFailure("Registration rejection failed", err, logrus.Fields{"registration_id": id})
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"registration_id": id, "username": req.Username}).Info("Registration rejected")
	e.publish(ctx, events.RegistrationRejected, BuildRegistrationView(req, ""))
	return req, nil
}

// RegistrationList is the admin approval screen
type RegistrationList struct {
	Requests []RegistrationView `json:"requests"`
	Pending  int64              `json:"pending"`
}

// ListRegistrations returns requests newest first, optionally filtered by status,
// together with the number still pending
func (e *Engine) ListRegistrations(ctx context.Context, sess *domain.Session, status *domain.RegistrationStatus) (*RegistrationList, error) {
	if !sess.IsAdmin() {
		return nil, domain.Forbiddenf("only an admin may list registrations")
	}
	db := e.db.WithContext(ctx)
	q := db.Model(&domain.RegistrationRequest{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var reqs []domain.RegistrationRequest
	if err := q.Order("request_date desc, id desc").Find(&reqs).Error; err != nil {
		return nil, storeErr(err)
	}
	var pending int64
	if err := db.Model(&domain.RegistrationRequest{}).Where("status = ?", domain.RegistrationPending).Count(&pending).Error; err != nil {
		return nil, storeErr(err)
	}
	var clubs []domain.Club
	if err := db.Find(&clubs).Error; err != nil {
		return nil, storeErr(err)
	}
	names := make(map[uint]string, len(clubs))
	for _, c := range clubs {
		names[c.ID] = c.Name
	}
	list := &RegistrationList{Requests: make([]RegistrationView, len(reqs)), Pending: pending}
	for i := range reqs {
		list.Requests[i] = BuildRegistrationView(&reqs[i], names[reqs[i].ClubID])
	}
	return list, nil
}

// usernameTaken checks users and registration requests of any status
func usernameTaken(tx *gorm.DB, username string) (bool, error) {
	var n int64
	if err := tx.Model(&domain.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, storeErr(err)
	}
	if n > 0 {
		return true, nil
	}
	if err := tx.Model(&domain.RegistrationRequest{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, storeErr(err)
	}
	return n > 0, nil
}
