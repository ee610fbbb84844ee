package api

import (
	"net/http" // HTTP status codes
	"time"

	"club_system/internal/domain"   // Domain models
	"club_system/internal/utils"    // Utility functions
	"club_system/internal/workflow" // Workflow engine

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterRequest is the self-service sign-up body
type RegisterRequest struct {
	Username      string `json:"username" binding:"required"`       // Username must be provided
	Password      string `json:"password" binding:"required"`       // Password must be provided
	FullName      string `json:"full_name"`                         // Defaults to the username
	RequestedRole string `json:"requested_role" binding:"required"` // CLUB_MANAGER or PLAYER
	ClubID        uint   `json:"club_id" binding:"required"`        // Target club
	Age           *int   `json:"age"`                               // Optional age
	Position      string `json:"position"`                          // Required for players
}

// Request struct for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token    string      `json:"token"`    // JWT token
	UserID   uint        `json:"user_id"`  // Authenticated user
	Role     domain.Role `json:"role"`     // Role gate
	ClubID   *uint       `json:"club_id"`  // Current club
	Expires  time.Time   `json:"expires"`  // Token expiry
	Username string      `json:"username"` // Normalized username
}

// RegisterHandler stores a registration request awaiting admin approval
func RegisterHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill in all required fields"})
			return
		}
		created, err := engine.SubmitRegistration(c.Request.Context(), workflow.RegistrationForm{
			Username:      req.Username,
			Password:      req.Password,
			FullName:      req.FullName,
			RequestedRole: domain.Role(req.RequestedRole),
			ClubID:        req.ClubID,
			Age:           req.Age,
			Position:      req.Position,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		// Return the request, the account exists only after approval
		c.JSON(http.StatusCreated, gin.H{
			"message":      "Registration submitted, awaiting admin approval",
			"registration": workflow.BuildRegistrationView(created, ""),
		})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(engine *workflow.Engine, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, _, err := engine.Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		now := time.Now()
		token, err := utils.GenerateJWT(user.ID, string(user.Role), jwtSecret, now)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, AuthResponse{
			Token:    token,
			UserID:   user.ID,
			Role:     user.Role,
			ClubID:   user.ClubID,
			Expires:  now.Add(utils.TokenTTL),
			Username: user.Username,
		})
	}
}
