package handlers

import (
	"errors"
	"math"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"eliteexplore/database"
	"eliteexplore/models"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// CreateUser registers a user once per email. Registration always stores
// the plain user role.
func (h *Handler) CreateUser(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindBodyWith(&user, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email is required"})
		return
	}
	var doc bson.M
	if err := c.ShouldBindBodyWith(&doc, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	delete(doc, "_id")
	doc["role"] = string(models.RoleUser)

	ctx, cancel := requestContext(c)
	defer cancel()

	_, err := h.users.FindOne(ctx, bson.M{"email": user.Email})
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"message": "user already exists", "insertedId": nil})
		return
	}
	if !errors.Is(err, database.ErrNotFound) {
		h.fail(c, http.StatusInternalServerError, "Database error", err)
		return
	}

	res, err := h.users.InsertOne(ctx, doc)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to create user", err)
		return
	}
	c.JSON(http.StatusOK, insertResult(res))
}

// usersFilter matches name case-insensitively as a literal substring and
// role exactly. Empty values are not filtered on.
func usersFilter(search, role string) bson.M {
	filter := bson.M{}
	if search != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
	}
	if role != "" {
		filter["role"] = role
	}
	return filter
}

func positiveOr(raw string, fallback int64) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// pagination returns the page, limit and skip for the page/limit query
// values. page is capped so that skip never overflows.
func pagination(pageRaw, limitRaw string) (page, limit, skip int64) {
	page = positiveOr(pageRaw, defaultPage)
	limit = positiveOr(limitRaw, defaultLimit)
	if maxPage := math.MaxInt64/limit + 1; page > maxPage {
		page = maxPage
	}
	return page, limit, (page - 1) * limit
}

func totalPages(total, limit int64) int64 {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}

func (h *Handler) ListUsers(c *gin.Context) {
	filter := usersFilter(c.Query("search"), c.Query("role"))
	page, limit, skip := pagination(c.Query("page"), c.Query("limit"))

	ctx, cancel := requestContext(c)
	defer cancel()

	total, err := h.users.CountDocuments(ctx, filter)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to count users", err)
		return
	}

	users, err := h.users.Find(ctx, filter, options.Find().SetSkip(skip).SetLimit(limit))
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch users", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":       users,
		"total":       total,
		"currentPage": page,
		"totalPages":  totalPages(total, limit),
	})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	h.deleteByID(c, h.users, "Failed to delete user")
}

func (h *Handler) GetUser(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.FindOne(ctx, bson.M{"email": c.Param("email")})
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Database error", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var req models.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"name": req.Name, "photo": req.Photo},
	})
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to update profile", err)
		return
	}
	c.JSON(http.StatusOK, updateResult(res))
}
