package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"eliteexplore/models"
)

func (h *Handler) AdminStats(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	tiles := []struct {
		name   string
		coll   Collection
		filter bson.M
	}{
		{"Guides", h.guides, bson.M{}},
		{"Packages", h.tours, bson.M{}},
		{"Clients", h.users, bson.M{"role": string(models.RoleUser)}},
		{"Stories", h.stories, bson.M{}},
	}

	stats := make([]models.StatEntry, 0, len(tiles))
	for _, tile := range tiles {
		n, err := tile.coll.CountDocuments(ctx, tile.filter)
		if err != nil {
			h.fail(c, http.StatusInternalServerError, "Failed to load statistics", err)
			return
		}
		stats = append(stats, models.StatEntry{Name: tile.name, Value: float64(n)})
	}
	c.JSON(http.StatusOK, stats)
}

var paymentTotalPipeline = mongo.Pipeline{
	{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: nil},
		{Key: "total", Value: bson.D{{Key: "$sum", Value: "$price"}}},
	}}},
}

func (h *Handler) TotalPayment(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	groups, err := h.payments.Aggregate(ctx, paymentTotalPipeline)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to total payments", err)
		return
	}

	var total float64
	if len(groups) > 0 {
		total = number(groups[0]["total"])
	}
	c.JSON(http.StatusOK, []models.StatEntry{{Name: "Payment", Value: total}})
}

// number reads a numeric BSON value; $sum yields int32, int64 or double
// depending on the stored prices.
func number(v interface{}) float64 {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
