package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.mongodb.org/mongo-driver/bson"

	"eliteexplore/models"
)

// bindApplication reads an application body, requiring its email.
func bindApplication(c *gin.Context) (string, bson.M, bool) {
	var app models.Application
	if err := c.ShouldBindBodyWith(&app, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email is required"})
		return "", nil, false
	}
	var doc bson.M
	if err := c.ShouldBindBodyWith(&doc, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return "", nil, false
	}
	delete(doc, "_id")
	return app.Email, doc, true
}

func (h *Handler) CreateApplication(c *gin.Context) {
	_, doc, ok := bindApplication(c)
	if !ok {
		return
	}
	h.insert(c, h.applications, doc, "Failed to submit application")
}

func (h *Handler) ListApplications(c *gin.Context) {
	h.findAll(c, h.applications, bson.M{}, "Failed to fetch applications")
}

// AcceptGuide promotes the applicant: role guide on the user and the
// application, then the application body becomes a guide profile. The
// writes are independent; a failure part way leaves the earlier ones in
// place.
func (h *Handler) AcceptGuide(c *gin.Context) {
	email, doc, ok := bindApplication(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	filter := bson.M{"email": email}
	promote := bson.M{"$set": bson.M{"role": string(models.RoleGuide)}}

	userRes, err := h.users.UpdateOne(ctx, filter, promote)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to update user role", err)
		return
	}

	appRes, err := h.applications.UpdateOne(ctx, filter, promote)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to update application", err)
		return
	}

	res, err := h.guides.InsertOne(ctx, doc)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to create guide", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":                  insertResult(res),
		"updateUserStatus":        updateResult(userRes),
		"updateApplicationStatus": updateResult(appRes),
	})
}

func (h *Handler) RejectGuide(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.applications.DeleteOne(ctx, bson.M{"email": c.Param("email")})
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to delete application", err)
		return
	}
	c.JSON(http.StatusOK, deleteResult(res))
}
