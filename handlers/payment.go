package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"eliteexplore/models"
	"eliteexplore/payments"
)

func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var req models.PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A positive price is required"})
		return
	}

	amount, err := payments.ToMinorUnits(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A positive price is required"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	secret, err := h.intents.CreateIntent(ctx, amount, payments.CurrencyUSD)
	if errors.Is(err, payments.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payments are not available"})
		return
	}
	if err != nil {
		h.fail(c, http.StatusBadGateway, "Payment processor error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clientSecret": secret})
}

// SavePayment stores a confirmed payment and moves its booking to review.
// The two writes are not atomic.
func (h *Handler) SavePayment(c *gin.Context) {
	var record models.PaymentRecord
	if err := c.ShouldBindBodyWith(&record, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment: bookingsId is required"})
		return
	}
	bookingID, err := primitive.ObjectIDFromHex(record.BookingsID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bookingsId"})
		return
	}

	var doc bson.M
	if err := c.ShouldBindBodyWith(&doc, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	delete(doc, "_id")

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.payments.InsertOne(ctx, doc)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to save payment", err)
		return
	}

	updated, err := h.bookings.UpdateOne(ctx, bson.M{"_id": bookingID}, bson.M{
		"$set": bson.M{"status": string(models.BookingInReview)},
	})
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to update booking", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":       insertResult(res),
		"updateResult": updateResult(updated),
	})
}

func (h *Handler) PaymentsByEmail(c *gin.Context) {
	h.findAll(c, h.payments, bson.M{"email": c.Param("email")}, "Failed to fetch payments")
}
