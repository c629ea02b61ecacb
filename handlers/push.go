package handlers

import (
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"eliteexplore/middleware"
	"eliteexplore/models"
)

func (h *Handler) VAPIDPublicKey(c *gin.Context) {
	if h.vapidPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": h.vapidPublicKey})
}

// Subscribe stores the caller's push subscription, replacing any earlier
// one.
func (h *Handler) Subscribe(c *gin.Context) {
	var req models.PushSubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint and keys are required"})
		return
	}

	email := middleware.CallerEmail(c)
	sub := models.PushSubscription{
		Email: email,
		Sub: webpush.Subscription{
			Endpoint: req.Endpoint,
			Keys: webpush.Keys{
				P256dh: req.Keys.P256dh,
				Auth:   req.Keys.Auth,
			},
		},
		UpdatedAt: time.Now().Unix(),
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	_, err := h.pushSubs.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": sub},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to save subscription", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscribed to push notifications"})
}
