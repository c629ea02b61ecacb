package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	connectAttempts = 3
	retryDelay      = 2 * time.Second
	connectTimeout  = 15 * time.Second
)

// Collection names.
const (
	UsersCollection             = "users"
	ToursCollection             = "tours"
	GuidesCollection            = "guides"
	StoriesCollection           = "stories"
	BookingsCollection          = "bookings"
	ApplicationsCollection      = "applications"
	PaymentsCollection          = "payments"
	PushSubscriptionsCollection = "push_subscriptions"
)

// Connect dials MongoDB with the Stable API v1 and pings it, retrying a few
// times before giving up.
func Connect(ctx context.Context, uri string, log *zap.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		client, err := connectOnce(ctx, opts)
		if err == nil {
			log.Info("connected to mongodb", zap.Int("attempt", attempt))
			return client, nil
		}
		lastErr = err
		log.Warn("mongodb connection attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("connect to mongodb: %w", lastErr)
}

func connectOnce(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func Disconnect(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return client.Disconnect(ctx)
}

// Collections holds one wrapper per collection the service touches.
type Collections struct {
	Users             *Collection
	Tours             *Collection
	Guides            *Collection
	Stories           *Collection
	Bookings          *Collection
	Applications      *Collection
	Payments          *Collection
	PushSubscriptions *Collection
}

func NewCollections(db *mongo.Database) *Collections {
	return &Collections{
		Users:             NewCollection(db.Collection(UsersCollection)),
		Tours:             NewCollection(db.Collection(ToursCollection)),
		Guides:            NewCollection(db.Collection(GuidesCollection)),
		Stories:           NewCollection(db.Collection(StoriesCollection)),
		Bookings:          NewCollection(db.Collection(BookingsCollection)),
		Applications:      NewCollection(db.Collection(ApplicationsCollection)),
		Payments:          NewCollection(db.Collection(PaymentsCollection)),
		PushSubscriptions: NewCollection(db.Collection(PushSubscriptionsCollection)),
	}
}

// EnsureIndexes creates the lookup indexes used by the email-keyed routes.
// Failures are logged and do not stop startup: legacy data may hold
// duplicate emails.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{UsersCollection, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}}},
		{BookingsCollection, mongo.IndexModel{Keys: bson.D{{Key: "user.email", Value: 1}}}},
		{BookingsCollection, mongo.IndexModel{Keys: bson.D{{Key: "guide.email", Value: 1}}}},
		{StoriesCollection, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}}},
		{PaymentsCollection, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}}},
		{PushSubscriptionsCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}

	for _, idx := range indexes {
		if _, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			log.Warn("failed to create index", zap.String("collection", idx.collection), zap.Error(err))
		}
	}
}
