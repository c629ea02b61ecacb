package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"eliteexplore/models"
)

const randomStoryCount = 4

func (h *Handler) RandomStories(c *gin.Context) {
	h.findSample(c, h.stories, randomStoryCount, "Failed to fetch stories")
}

func (h *Handler) AllStories(c *gin.Context) {
	h.findAll(c, h.stories, bson.M{}, "Failed to fetch stories")
}

func (h *Handler) StoriesByEmail(c *gin.Context) {
	h.findAll(c, h.stories, bson.M{"email": c.Param("email")}, "Failed to fetch stories")
}

func (h *Handler) GetStory(c *gin.Context) {
	h.findByID(c, h.stories, "Story not found")
}

func (h *Handler) DeleteStory(c *gin.Context) {
	h.deleteByID(c, h.stories, "Failed to delete story")
}

func (h *Handler) AddStory(c *gin.Context) {
	var doc bson.M
	if !bindDocument(c, &doc) {
		return
	}
	h.insert(c, h.stories, doc, "Failed to add story")
}

// UpdateStory sets title and excerpt, then pulls removed photos and pushes
// new ones. The three writes are separate; the story counts as updated if
// any of them modified it.
func (h *Handler) UpdateStory(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var req models.StoryUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	filter := bson.M{"_id": id}
	updates := []bson.M{
		{"$set": bson.M{"title": req.Title, "excerpt": req.Excerpt}},
	}
	if len(req.RemovedPhotos) > 0 {
		updates = append(updates, bson.M{"$pull": bson.M{"photo": bson.M{"$in": req.RemovedPhotos}}})
	}
	if len(req.NewPhotos) > 0 {
		updates = append(updates, bson.M{"$push": bson.M{"photo": bson.M{"$each": req.NewPhotos}}})
	}

	var modified int64
	for _, update := range updates {
		res, err := h.stories.UpdateOne(ctx, filter, update)
		if err != nil {
			h.fail(c, http.StatusInternalServerError, "Failed to update story", err)
			return
		}
		modified += res.ModifiedCount
	}

	if modified == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No changes were made to the story."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Story updated successfully."})
}
