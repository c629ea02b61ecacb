package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"eliteexplore/database"
	"eliteexplore/media"
	"eliteexplore/middleware"
	"eliteexplore/notify"
	"eliteexplore/payments"
)

const requestTimeout = 10 * time.Second

// Collection is the set of document operations the handlers issue.
// *database.Collection implements it.
type Collection interface {
	InsertOne(ctx context.Context, doc interface{}) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter interface{}) (bson.M, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]bson.M, error)
	UpdateOne(ctx context.Context, filter, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}) ([]bson.M, error)
}

// Stores groups one Collection per stored entity.
type Stores struct {
	Users             Collection
	Tours             Collection
	Guides            Collection
	Stories           Collection
	Bookings          Collection
	Applications      Collection
	Payments          Collection
	PushSubscriptions Collection
}

// Notifier delivers booking events to a user.
type Notifier interface {
	Notify(email string, note notify.Notification)
}

type Deps struct {
	Stores         Stores
	Tokens         *middleware.Tokens
	Intents        payments.IntentCreator
	Uploader       media.Uploader
	Notifier       Notifier
	Ping           func(ctx context.Context) error
	VAPIDPublicKey string
	Log            *zap.Logger
}

type Handler struct {
	users        Collection
	tours        Collection
	guides       Collection
	stories      Collection
	bookings     Collection
	applications Collection
	payments     Collection
	pushSubs     Collection

	tokens         *middleware.Tokens
	intents        payments.IntentCreator
	uploader       media.Uploader
	notifier       Notifier
	ping           func(ctx context.Context) error
	vapidPublicKey string
	log            *zap.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		users:          d.Stores.Users,
		tours:          d.Stores.Tours,
		guides:         d.Stores.Guides,
		stories:        d.Stores.Stories,
		bookings:       d.Stores.Bookings,
		applications:   d.Stores.Applications,
		payments:       d.Stores.Payments,
		pushSubs:       d.Stores.PushSubscriptions,
		tokens:         d.Tokens,
		intents:        d.Intents,
		uploader:       d.Uploader,
		notifier:       d.Notifier,
		ping:           d.Ping,
		vapidPublicKey: d.VAPIDPublicKey,
		log:            d.Log,
	}
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// fail logs err against the request's trace id and answers with a short
// message.
func (h *Handler) fail(c *gin.Context, status int, message string, err error) {
	h.log.Error(message,
		zap.String("trace_id", middleware.TraceID(c)),
		zap.String("route", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(status, gin.H{"error": message})
}

// objectIDParam parses a hex ObjectID path parameter, answering 400 when it
// is malformed.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// bindDocument decodes a free-form JSON object. Any client supplied _id is
// dropped so the database assigns one.
func bindDocument(c *gin.Context, doc *bson.M) bool {
	if err := c.ShouldBindJSON(doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	delete(*doc, "_id")
	return true
}

func insertResult(res *mongo.InsertOneResult) gin.H {
	return gin.H{"acknowledged": true, "insertedId": res.InsertedID}
}

func updateResult(res *mongo.UpdateResult) gin.H {
	return gin.H{
		"acknowledged":  true,
		"matchedCount":  res.MatchedCount,
		"modifiedCount": res.ModifiedCount,
		"upsertedCount": res.UpsertedCount,
		"upsertedId":    res.UpsertedID,
	}
}

func deleteResult(res *mongo.DeleteResult) gin.H {
	return gin.H{"acknowledged": true, "deletedCount": res.DeletedCount}
}

func sample(size int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: size}}}},
	}
}

func (h *Handler) findAll(c *gin.Context, coll Collection, filter bson.M, message string) {
	ctx, cancel := requestContext(c)
	defer cancel()

	docs, err := coll.Find(ctx, filter)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, message, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) findSample(c *gin.Context, coll Collection, size int, message string) {
	ctx, cancel := requestContext(c)
	defer cancel()

	docs, err := coll.Aggregate(ctx, sample(size))
	if err != nil {
		h.fail(c, http.StatusInternalServerError, message, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) findByID(c *gin.Context, coll Collection, notFound string) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	doc, err := coll.FindOne(ctx, bson.M{"_id": id})
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Database error", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) insert(c *gin.Context, coll Collection, doc bson.M, message string) {
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, message, err)
		return
	}
	c.JSON(http.StatusOK, insertResult(res))
}

func (h *Handler) deleteByID(c *gin.Context, coll Collection, message string) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		h.fail(c, http.StatusInternalServerError, message, err)
		return
	}
	c.JSON(http.StatusOK, deleteResult(res))
}
