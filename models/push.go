package models

import (
	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PushSubscription struct {
	ID    primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Email string               `bson:"email" json:"email"`
	Sub   webpush.Subscription `bson:"sub" json:"sub"`
	// Unix seconds.
	UpdatedAt int64 `bson:"updatedAt" json:"updatedAt"`
}

type PushSubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}
