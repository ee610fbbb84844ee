package workflow

import (
	"context"
	"math"
	"strings"

	"club_system/internal/domain"
	"club_system/internal/events"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TransferInput is the input of a new transfer request
type TransferInput struct {
	PlayerID          uint
	DestinationClubID *uint // Nil puts the player on the general market
	Remarks           string
}

// SubmitTransfer opens a PENDING_APPROVAL request for a player at fee 0.
// The player, the manager of the player's club or an admin may submit.
func (e *Engine) SubmitTransfer(ctx context.Context, sess *domain.Session, in TransferInput) (*domain.TransferRequest, error) {
	if sess == nil {
		return nil, domain.ErrUnauthorized
	}
	unlock := e.locks.Lock(playerKey(in.PlayerID))
	defer unlock()

	var req domain.TransferRequest
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		player, err := findPlayer(tx, in.PlayerID)
		if err != nil {
			return err
		}
		if player.ClubID == nil {
			return domain.Validationf("player %d has no club to transfer from", player.ID)
		}
		src := *player.ClubID
		if !sess.IsAdmin() && !sess.IsPlayer(player.ID) && !sess.ManagesClub(src) {
			return domain.Forbiddenf("only the player, the club manager or an admin may request this transfer")
		}
		active, err := hasActiveTransfer(tx, player.ID)
		if err != nil {
			return err
		}
		if active {
			return domain.ErrDuplicateRequest
		}
		source, err := findClub(tx, src)
		if err != nil {
			return err
		}
		var dest *domain.Club
		if in.DestinationClubID != nil {
			if *in.DestinationClubID == src {
				return domain.Validationf("destination club must differ from the current club")
			}
			if dest, err = findClub(tx, *in.DestinationClubID); err != nil {
				return err
			}
		}
		req = domain.TransferRequest{
			PlayerID:          player.ID,
			SourceClubID:      src,
			DestinationClubID: copyID(in.DestinationClubID),
			Status:            domain.TransferPendingApproval,
			TransferFee:       0,
			RequestDate:       e.now(),
			Remarks:           strings.TrimSpace(in.Remarks),
		}
		slot := player.ID
		req.ActivePlayerID = &slot
		snapshotTransfer(&req, player, source, dest)
		if err := tx.Create(&req).Error; err != nil {
			if isConflict(err) {
				return domain.ErrDuplicateRequest // Another process holds the active slot
			}
			return storeErr(err)
		}
		return nil
	})
	if err != nil {
		e.logFailure("Transfer submit failed", err, logrus.Fields{"player_id": in.PlayerID, "user_id": sess.UserID})
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"transfer_id":         req.ID,
		"player_id":           req.PlayerID,
		"source_club_id":      req.SourceClubID,
		"destination_club_id": idField(req.DestinationClubID),
	}).Info("Transfer request submitted")
	e.publish(ctx, events.TransferSubmitted, BuildTransferView(&req))
	return &req, nil
}

// ApproveTransfer sets the fee of a pending request and lists it on the market.
// Only the source club's manager or an admin may approve.
func (e *Engine) ApproveTransfer(ctx context.Context, sess *domain.Session, id uint, fee float64) (*domain.TransferRequest, error) {
	if sess == nil {
		return nil, domain.ErrUnauthorized
	}
	if fee <= 0 || math.IsNaN(fee) || math.IsInf(fee, 0) {
		return nil, domain.ErrInvalidFee
	}
	unlock := e.locks.Lock(transferKey(id))
	defer unlock()

	var req *domain.TransferRequest
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if req, err = findTransfer(tx, id); err != nil {
			return err
		}
		if !sess.IsAdmin() && !sess.ManagesClub(req.SourceClubID) {
			return domain.Forbiddenf("only the source club manager or an admin may approve")
		}
		if req.Status != domain.TransferPendingApproval {
			return domain.ErrInvalidState
		}
		now := e.now()
		if err := transition(tx, id, []domain.TransferStatus{domain.TransferPendingApproval}, map[string]any{
			"status":                  domain.TransferInMarket,
			"transfer_fee":            fee,
			"approved_by_source_date": now,
		}); err != nil {
			return err
		}
		req.Status = domain.TransferInMarket
		req.TransferFee = fee
		req.ApprovedBySourceDate = &now
		return nil
	})
	if err != nil {
		e.logFailure("Transfer approval failed", err, logrus.Fields{"transfer_id": id, "fee": fee})
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"transfer_id": req.ID,
		"player_id":   req.PlayerID,
		"fee":         fee,
	}).Info("Transfer listed in market")
	e.invalidate(ctx, keyMarket)
	e.publish(ctx, events.TransferListed, BuildTransferView(req))
	return req, nil
}

// CancelTransfer withdraws a pending or listed request.
// The source club's manager, the submitting player or an admin may cancel.
func (e *Engine) CancelTransfer(ctx context.Context, sess *domain.Session, id uint, remarks string) (*domain.TransferRequest, error) {
	if sess == nil {
		return nil, domain.ErrUnauthorized
	}
	unlock := e.locks.Lock(transferKey(id))
	defer unlock()

	var req *domain.TransferRequest
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if req, err = findTransfer(tx, id); err != nil {
			return err
		}
		if !sess.IsAdmin() && !sess.ManagesClub(req.SourceClubID) && !sess.IsPlayer(req.PlayerID) {
			return domain.Forbiddenf("only the source club manager, the player or an admin may cancel")
		}
		if !req.Status.IsActive() {
			return domain.ErrInvalidState
		}
		updates := map[string]any{"status": domain.TransferCancelled}
		if r := strings.TrimSpace(remarks); r != "" {
			updates["remarks"] = r
			req.Remarks = r
		}
		if err := transition(tx, id, domain.ActiveTransferStatuses, updates); err != nil {
			return err
		}
		req.Status = domain.TransferCancelled
		req.ActivePlayerID = nil
		return nil
	})
	if err != nil {
		e.logFailure("Transfer cancel failed", err, logrus.Fields{"transfer_id": id})
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"transfer_id": req.ID, "player_id": req.PlayerID}).Info("Transfer request cancelled")
	e.invalidate(ctx, keyMarket)
	e.publish(ctx, events.TransferCancelled, BuildTransferView(req))
	return req, nil
}

// PurchaseTransfer completes a listed request for clubID and moves the player.
// The purchasing club's manager or an admin may buy.
func (e *Engine) PurchaseTransfer(ctx context.Context, sess *domain.Session, id, clubID uint) (*domain.TransferRequest, error) {
	if sess == nil {
		return nil, domain.ErrUnauthorized
	}
	if !sess.IsAdmin() && !sess.ManagesClub(clubID) {
		return nil, domain.Forbiddenf("only the purchasing club manager or an admin may buy")
	}
	unlockTransfer := e.locks.Lock(transferKey(id))
	defer unlockTransfer()
	current, err := findTransfer(e.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	unlockPlayer := e.locks.Lock(playerKey(current.PlayerID)) // Lock order: transfer, then player
	defer unlockPlayer()

	var (
		req    *domain.TransferRequest
		change ClubChange
	)
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if req, err = findTransfer(tx, id); err != nil {
			return err
		}
		if clubID == req.SourceClubID {
			return domain.ErrSameClub
		}
		if req.Status != domain.TransferInMarket {
			return domain.ErrNotInMarket
		}
		if req.DestinationClubID != nil && *req.DestinationClubID != clubID {
			return domain.Forbiddenf("transfer is reserved for another club")
		}
		buyer, err := findClub(tx, clubID)
		if err != nil {
			return err
		}
		now := e.now()
		if err := transition(tx, id, []domain.TransferStatus{domain.TransferInMarket}, map[string]any{
			"status":                domain.TransferCompleted,
			"destination_club_id":   buyer.ID,
			"destination_club_name": buyer.Name,
			"completed_date":        now,
		}); err != nil {
			return err
		}
		if change, err = e.sync.Apply(tx, req.PlayerID, buyer.ID, now); err != nil {
			return err
		}
		req.Status = domain.TransferCompleted
		req.ActivePlayerID = nil
		req.DestinationClubID = &buyer.ID
		req.DestinationClubName = buyer.Name
		req.CompletedDate = &now
		return nil
	})
	if err != nil {
		e.logFailure("Transfer purchase failed", err, logrus.Fields{"transfer_id": id, "club_id": clubID})
		return nil, err
	}
	e.sync.Commit(ctx, change, sess)
	e.log.WithFields(logrus.Fields{
		"transfer_id":         req.ID,
		"player_id":           req.PlayerID,
		"source_club_id":      req.SourceClubID,
		"destination_club_id": clubID,
		"fee":                 req.TransferFee,
	}).Info("Transfer completed")
	e.publish(ctx, events.TransferCompleted, BuildTransferView(req))
	return req, nil
}

// Market lists every IN_MARKET request newest first, optionally filtered by position
func (e *Engine) Market(ctx context.Context, position *domain.Position) ([]MarketEntry, error) {
	entries, err := cached(ctx, e, keyMarket, func() ([]MarketEntry, error) { return e.loadMarket(ctx) })
	if err != nil {
		return nil, err
	}
	if position == nil {
		return entries, nil
	}
	filtered := make([]MarketEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Player.Position == *position {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

func (e *Engine) loadMarket(ctx context.Context) ([]MarketEntry, error) {
	var reqs []domain.TransferRequest
	if err := e.db.WithContext(ctx).
		Where("status = ?", domain.TransferInMarket).
		Order("request_date desc, id desc").
		Find(&reqs).Error; err != nil {
		return nil, storeErr(err)
	}
	ids := make([]uint, len(reqs))
	for i, r := range reqs {
		ids[i] = r.PlayerID
	}
	var players []domain.Player
	if len(ids) > 0 {
		if err := e.db.WithContext(ctx).Where("id IN ?", ids).Find(&players).Error; err != nil {
			return nil, storeErr(err)
		}
	}
	byID := make(map[uint]*domain.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}
	entries := make([]MarketEntry, 0, len(reqs))
	for i := range reqs {
		p, ok := byID[reqs[i].PlayerID]
		if !ok {
			continue // Player row gone, nothing to show
		}
		entries = append(entries, MarketEntry{Transfer: BuildTransferView(&reqs[i]), Player: BuildPlayerCard(p)})
	}
	return entries, nil
}

// ListTransfers returns the requests visible to the session, newest first:
// a player sees their own, a manager the ones leaving their club, admins and owners all.
func (e *Engine) ListTransfers(ctx context.Context, sess *domain.Session) ([]TransferView, error) {
	if sess == nil {
		return nil, domain.ErrUnauthorized
	}
	q := e.db.WithContext(ctx).Model(&domain.TransferRequest{})
	switch sess.Role {
	case domain.RolePlayer:
		if sess.PlayerID == nil {
			return []TransferView{}, nil
		}
		q = q.Where("player_id = ?", *sess.PlayerID)
	case domain.RoleClubManager:
		if sess.ClubID == nil {
			return []TransferView{}, nil
		}
		q = q.Where("source_club_id = ?", *sess.ClubID)
	case domain.RoleSystemAdmin, domain.RoleClubOwner:
	default:
		return []TransferView{}, nil
	}
	var reqs []domain.TransferRequest
	if err := q.Order("request_date desc, id desc").Find(&reqs).Error; err != nil {
		return nil, storeErr(err)
	}
	return buildTransferViews(reqs), nil
}

// GetTransfer loads one request
func (e *Engine) GetTransfer(ctx context.Context, id uint) (*domain.TransferRequest, error) {
	return findTransfer(e.db.WithContext(ctx), id)
}

// transition moves a request out of one of the from statuses. Zero affected rows
// means another transition won the race. Terminal moves free the player's active slot.
func transition(tx *gorm.DB, id uint, from []domain.TransferStatus, updates map[string]any) error {
	if to, ok := updates["status"].(domain.TransferStatus); ok && !to.IsActive() {
		updates["active_player_id"] = nil
	}
	res := tx.Model(&domain.TransferRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// logFailure logs a rejected command; store failures at error level, rejections at info
func (e *Engine) logFailure(msg string, err error, fields logrus.Fields) {
	fields["error"] = err.Error()
	entry := e.log.WithFields(fields)
	if isPersistence(err) {
		entry.Error(msg)
		return
	}
	entry.Info(msg)
}
