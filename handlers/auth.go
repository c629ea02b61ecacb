package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"eliteexplore/database"
	"eliteexplore/models"
)

func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Elite Travels server is running")
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// IssueToken signs the posted identity into an access token.
func (h *Handler) IssueToken(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email is required"})
		return
	}

	token, err := h.tokens.Issue(req.Email)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) IsAdmin(c *gin.Context) {
	h.hasRole(c, models.RoleAdmin, "admin")
}

func (h *Handler) IsGuide(c *gin.Context) {
	h.hasRole(c, models.RoleGuide, "guide")
}

// hasRole answers {key: bool} for the :email user. Unknown users are simply
// not in the role.
func (h *Handler) hasRole(c *gin.Context, role models.Role, key string) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.FindOne(ctx, bson.M{"email": c.Param("email")})
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		h.fail(c, http.StatusInternalServerError, "Database error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: models.RoleOf(user) == role})
}
