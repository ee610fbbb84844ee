package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"club_system/internal/domain"     // Domain models
	"club_system/internal/middleware" // Session access
	"club_system/internal/workflow"   // Workflow engine

	"github.com/gin-gonic/gin" // Gin web framework
)

// CreateClubRequest names a new club
type CreateClubRequest struct {
	Name string `json:"name" binding:"required"` // Unique club name
}

// RejectRegistrationRequest carries the rejection reason shown to the registrant
type RejectRegistrationRequest struct {
	Reason string `json:"reason"`
}

// ListRegistrationsHandler returns registration requests with the pending count, optional ?status=
func ListRegistrationsHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *domain.RegistrationStatus
		if q := c.Query("status"); q != "" {
			s := domain.RegistrationStatus(strings.ToUpper(q))
			switch s {
			case domain.RegistrationPending, domain.RegistrationApproved, domain.RegistrationRejected:
				status = &s
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
				return
			}
		}
		list, err := engine.ListRegistrations(c.Request.Context(), middleware.SessionFrom(c), status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// ApproveRegistrationHandler creates the profile and account of a pending request
func ApproveRegistrationHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		res, err := engine.ApproveRegistration(c.Request.Context(), middleware.SessionFrom(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// RejectRegistrationHandler closes a pending request
func RejectRegistrationHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req RejectRegistrationRequest
		_ = c.ShouldBindJSON(&req) // Reason is optional
		res, err := engine.RejectRegistration(c.Request.Context(), middleware.SessionFrom(c), id, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, workflow.BuildRegistrationView(res, ""))
	}
}

// CreateClubHandler adds a club
func CreateClubHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateClubRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		club, err := engine.CreateClub(c.Request.Context(), middleware.SessionFrom(c), req.Name)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, club)
	}
}

// DeleteClubHandler removes a club, releasing its players
func DeleteClubHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := engine.DeleteClub(c.Request.Context(), middleware.SessionFrom(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Club deleted"})
	}
}

// ListManagersHandler returns every manager profile
func ListManagersHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		managers, err := engine.ListManagers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"managers": managers, "total": len(managers)})
	}
}

// CreateManagerHandler appoints a manager to a club without one
func CreateManagerHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req workflow.NewManager // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		manager, err := engine.CreateManager(c.Request.Context(), middleware.SessionFrom(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, manager)
	}
}

// DeleteManagerHandler removes a manager profile
func DeleteManagerHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := engine.DeleteManager(c.Request.Context(), middleware.SessionFrom(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Manager deleted"})
	}
}
