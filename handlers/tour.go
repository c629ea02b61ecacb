package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	randomTourCount  = 3
	randomGuideCount = 6
)

func (h *Handler) RandomTours(c *gin.Context) {
	h.findSample(c, h.tours, randomTourCount, "Failed to fetch tours")
}

func (h *Handler) AllTours(c *gin.Context) {
	h.findAll(c, h.tours, bson.M{}, "Failed to fetch tours")
}

func (h *Handler) TourDetails(c *gin.Context) {
	h.findByID(c, h.tours, "Tour not found")
}

func (h *Handler) AddPackage(c *gin.Context) {
	var doc bson.M
	if !bindDocument(c, &doc) {
		return
	}
	h.insert(c, h.tours, doc, "Failed to add package")
}

func (h *Handler) RandomGuides(c *gin.Context) {
	h.findSample(c, h.guides, randomGuideCount, "Failed to fetch guides")
}

func (h *Handler) AllGuides(c *gin.Context) {
	h.findAll(c, h.guides, bson.M{}, "Failed to fetch guides")
}

func (h *Handler) GetGuide(c *gin.Context) {
	h.findByID(c, h.guides, "Guide not found")
}
