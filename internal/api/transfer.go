package api

import (
	"net/http" // HTTP status codes

	"club_system/internal/domain"     // Domain models
	"club_system/internal/middleware" // Session access
	"club_system/internal/workflow"   // Workflow engine

	"github.com/gin-gonic/gin" // Gin web framework
)

// SubmitTransferRequest opens a transfer request for a player
type SubmitTransferRequest struct {
	PlayerID          uint   `json:"player_id"`           // Defaults to the caller's own player
	DestinationClubID *uint  `json:"destination_club_id"` // Nil lists on the general market
	Remarks           string `json:"remarks"`             // Free text
}

// ApproveTransferRequest sets the fee of a pending request
type ApproveTransferRequest struct {
	Fee float64 `json:"fee" binding:"required"` // Must be greater than 0
}

// CancelTransferRequest carries an optional cancellation note
type CancelTransferRequest struct {
	Remarks string `json:"remarks"`
}

// PurchaseTransferRequest names the buying club
type PurchaseTransferRequest struct {
	ClubID *uint `json:"club_id"` // Defaults to the caller's club
}

// ListTransfersHandler returns the requests visible to the caller's role
func ListTransfersHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := engine.ListTransfers(c.Request.Context(), middleware.SessionFrom(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transfers": views, "total": len(views)})
	}
}

// SubmitTransferHandler creates a PENDING_APPROVAL request
func SubmitTransferHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middleware.SessionFrom(c)
		var req SubmitTransferRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// A player submitting without a player id means themselves
		if req.PlayerID == 0 && sess != nil && sess.PlayerID != nil {
			req.PlayerID = *sess.PlayerID
		}
		if req.PlayerID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player_id is required"})
			return
		}
		created, err := engine.SubmitTransfer(c.Request.Context(), sess, workflow.TransferInput{
			PlayerID:          req.PlayerID,
			DestinationClubID: req.DestinationClubID,
			Remarks:           req.Remarks,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, workflow.BuildTransferView(created))
	}
}

// ApproveTransferHandler lists a pending request on the market at the given fee
func ApproveTransferHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req ApproveTransferRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidFee.Error()})
			return
		}
		updated, err := engine.ApproveTransfer(c.Request.Context(), middleware.SessionFrom(c), id, req.Fee)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, workflow.BuildTransferView(updated))
	}
}

// CancelTransferHandler withdraws a pending or listed request
func CancelTransferHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req CancelTransferRequest
		_ = c.ShouldBindJSON(&req) // Body is optional
		updated, err := engine.CancelTransfer(c.Request.Context(), middleware.SessionFrom(c), id, req.Remarks)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, workflow.BuildTransferView(updated))
	}
}

// PurchaseTransferHandler completes a listed request for the buying club
func PurchaseTransferHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		sess := middleware.SessionFrom(c)
		var req PurchaseTransferRequest
		_ = c.ShouldBindJSON(&req) // Body is optional for managers
		if req.ClubID == nil && sess != nil {
			req.ClubID = sess.ClubID
		}
		if req.ClubID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "club_id is required"})
			return
		}
		updated, err := engine.PurchaseTransfer(c.Request.Context(), sess, id, *req.ClubID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, workflow.BuildTransferView(updated))
	}
}

// MarketHandler returns every listed request, optionally filtered by ?position=
func MarketHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var position *domain.Position
		if q := c.Query("position"); q != "" {
			p, ok := domain.ParsePosition(q)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown position"})
				return
			}
			position = &p
		}
		entries, err := engine.Market(c.Request.Context(), position)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"market": entries, "total": len(entries)})
	}
}
