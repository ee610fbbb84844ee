package api

import (
	"club_system/internal/domain"     // Domain models
	"club_system/internal/middleware" // Auth and logging middleware
	"club_system/internal/workflow"   // Workflow engine

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Request logging
)

// NewRouter wires every route of the club API onto a fresh gin engine
func NewRouter(engine *workflow.Engine, jwtSecret string, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	auth := middleware.JWTAuthMiddleware(jwtSecret, engine)

	// Public routes
	r.POST("/auth/register", RegisterHandler(engine))            // Registration request endpoint
	r.POST("/auth/login", LoginHandler(engine, jwtSecret))       // Login endpoint
	r.GET("/clubs", ListClubsHandler(engine))                    // Club list endpoint
	r.GET("/clubs/:id/players", auth, ClubRosterHandler(engine)) // Club roster endpoint

	// Transfer routes (protected by JWT)
	transfers := r.Group("/transfers")
	transfers.Use(auth)
	transfers.GET("", ListTransfersHandler(engine))                  // Role based request list
	transfers.POST("", SubmitTransferHandler(engine))                // Submit request endpoint
	transfers.POST("/:id/approve", ApproveTransferHandler(engine))   // Approve and set fee
	transfers.POST("/:id/cancel", CancelTransferHandler(engine))     // Cancel request
	transfers.POST("/:id/purchase", PurchaseTransferHandler(engine)) // Buy listed player
	r.GET("/market", auth, MarketHandler(engine))                    // Transfer market listing

	// Player routes (protected by JWT)
	players := r.Group("/players")
	players.Use(auth)
	staff := middleware.RequireRoles(domain.RoleSystemAdmin, domain.RoleClubManager)
	players.GET("", ListPlayersHandler(engine))                // Player list endpoint
	players.POST("", staff, CreatePlayerHandler(engine))       // Add player endpoint
	players.PATCH("/:id", staff, UpdatePlayerHandler(engine))  // Edit player endpoint
	players.DELETE("/:id", staff, DeletePlayerHandler(engine)) // Delete player endpoint
	players.GET("/:id/history", PlayerHistoryHandler(engine))  // Transfer history endpoint

	// Admin routes (protected, admin only)
	admin := r.Group("/admin")
	admin.Use(auth, middleware.AdminOnlyMiddleware())
	admin.POST("/clubs", CreateClubHandler(engine))                              // Create club endpoint
	admin.DELETE("/clubs/:id", DeleteClubHandler(engine))                        // Delete club endpoint
	admin.GET("/managers", ListManagersHandler(engine))                          // Manager list endpoint
	admin.POST("/managers", CreateManagerHandler(engine))                        // Create manager endpoint
	admin.DELETE("/managers/:id", DeleteManagerHandler(engine))                  // Delete manager endpoint
	admin.GET("/registrations", ListRegistrationsHandler(engine))                // Registration list endpoint
	admin.POST("/registrations/:id/approve", ApproveRegistrationHandler(engine)) // Approve registration
	admin.POST("/registrations/:id/reject", RejectRegistrationHandler(engine))   // Reject registration
	return r
}
