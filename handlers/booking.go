package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"eliteexplore/database"
	"eliteexplore/models"
	"eliteexplore/notify"
)

func (h *Handler) CreateBooking(c *gin.Context) {
	var doc bson.M
	if !bindDocument(c, &doc) {
		return
	}
	if status, _ := doc["status"].(string); status == "" {
		doc["status"] = string(models.BookingPending)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.bookings.InsertOne(ctx, doc)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to create booking", err)
		return
	}

	h.notifier.Notify(models.EmailAt(doc, "guide"), notify.Notification{
		Type:  notify.EventBookingCreated,
		Title: "New booking",
		Body:  "A tourist booked a tour with you",
		Payload: gin.H{
			"bookingId": res.InsertedID,
			"status":    doc["status"],
			"user":      models.EmailAt(doc, "user"),
		},
	})

	c.JSON(http.StatusOK, insertResult(res))
}

func (h *Handler) BookingsByEmail(c *gin.Context) {
	h.findAll(c, h.bookings, bson.M{"user.email": c.Param("email")}, "Failed to fetch bookings")
}

func (h *Handler) GetBooking(c *gin.Context) {
	h.findByID(c, h.bookings, "Booking not found")
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	h.deleteByID(c, h.bookings, "Failed to delete booking")
}

func (h *Handler) GuideAssignedTours(c *gin.Context) {
	h.findAll(c, h.bookings, bson.M{"guide.email": c.Param("email")}, "Failed to fetch assigned tours")
}

func (h *Handler) AcceptBooking(c *gin.Context) {
	h.setBookingStatus(c, models.BookingAccepted)
}

func (h *Handler) RejectBooking(c *gin.Context) {
	h.setBookingStatus(c, models.BookingRejected)
}

// setBookingStatus updates the status and tells the tourist.
func (h *Handler) setBookingStatus(c *gin.Context, status models.BookingStatus) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	filter := bson.M{"_id": id}
	res, err := h.bookings.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to update booking", err)
		return
	}

	if res.ModifiedCount > 0 {
		booking, err := h.bookings.FindOne(ctx, filter)
		switch {
		case err == nil:
			h.notifier.Notify(models.EmailAt(booking, "user"), notify.Notification{
				Type:  notify.EventBookingStatus,
				Title: "Booking " + string(status),
				Body:  "Your guide " + string(status) + " your booking",
				Payload: gin.H{
					"bookingId": id.Hex(),
					"status":    status,
				},
			})
		case !errors.Is(err, database.ErrNotFound):
			h.log.Warn("booking lookup for notification failed",
				zap.String("booking_id", id.Hex()), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, updateResult(res))
}
