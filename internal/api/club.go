package api

import (
	"net/http" // HTTP status codes

	"club_system/internal/middleware" // Session access
	"club_system/internal/workflow"   // Workflow engine

	"github.com/gin-gonic/gin" // Gin web framework
)

// ListClubsHandler returns every club, served from the read-model cache
func ListClubsHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		clubs, err := engine.ListClubs(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"clubs": clubs, "total": len(clubs)})
	}
}

// ClubRosterHandler returns the players of one club
func ClubRosterHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		players, err := engine.ClubRoster(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"players": players, "total": len(players)})
	}
}

// ListPlayersHandler returns every player including free agents
func ListPlayersHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		players, err := engine.ListPlayers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"players": players, "total": len(players)})
	}
}

// UpdatePlayerHandler edits a player's profile
func UpdatePlayerHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req workflow.PlayerUpdate // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		player, err := engine.UpdatePlayer(c.Request.Context(), middleware.SessionFrom(c), id, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, workflow.BuildPlayerCard(player))
	}
}

// PlayerHistoryHandler returns a player's past club changes
func PlayerHistoryHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		history, err := engine.PlayerHistory(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": history, "total": len(history)})
	}
}

// CreatePlayerHandler adds a player to a club, or a free agent for admins
func CreatePlayerHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req workflow.NewPlayer // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		player, err := engine.CreatePlayer(c.Request.Context(), middleware.SessionFrom(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, workflow.BuildPlayerCard(player))
	}
}

// DeletePlayerHandler removes a player without an active transfer
func DeletePlayerHandler(engine *workflow.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := engine.DeletePlayer(c.Request.Context(), middleware.SessionFrom(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Player deleted"})
	}
}
