package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"eliteexplore/database"
	"eliteexplore/models"
	"eliteexplore/websocket"
)

const (
	EventBookingCreated = "booking_created"
	EventBookingStatus  = "booking_status"

	deliverTimeout = 10 * time.Second
	pushTTL        = 60
)

// Notification is one booking event addressed to a single email.
type Notification struct {
	Type    string
	Title   string
	Body    string
	Payload interface{}
}

// Sender delivers live events; the websocket hub implements it.
type Sender interface {
	SendTo(email string, event websocket.Event)
}

// SubscriptionStore is the part of the push_subscriptions collection used
// here.
type SubscriptionStore interface {
	FindOne(ctx context.Context, filter interface{}) (bson.M, error)
	DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
}

// Pusher sends one web-push message and reports the push service status.
type Pusher interface {
	Push(ctx context.Context, sub *webpush.Subscription, payload []byte) (int, error)
}

type WebPush struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

func (w WebPush) Push(ctx context.Context, sub *webpush.Subscription, payload []byte) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &webpush.Options{
		Subscriber:      w.Subject,
		VAPIDPublicKey:  w.PublicKey,
		VAPIDPrivateKey: w.PrivateKey,
		TTL:             pushTTL,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, fmt.Errorf("push service answered %s", resp.Status)
	}
	return resp.StatusCode, nil
}

type Notifier struct {
	live   Sender
	subs   SubscriptionStore
	pusher Pusher
	log    *zap.Logger
}

// New builds a Notifier. pusher may be nil when VAPID keys are not
// configured; live events are still delivered.
func New(live Sender, subs SubscriptionStore, pusher Pusher, log *zap.Logger) *Notifier {
	return &Notifier{live: live, subs: subs, pusher: pusher, log: log}
}

// Notify delivers in the background; failures are only logged.
func (n *Notifier) Notify(email string, note Notification) {
	if email == "" {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				n.log.Error("panic delivering notification", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		defer cancel()
		n.Deliver(ctx, email, note)
	}()
}

// Deliver sends the live event and, if the user has a push subscription,
// the web-push message.
func (n *Notifier) Deliver(ctx context.Context, email string, note Notification) {
	n.live.SendTo(email, websocket.Event{Type: note.Type, Payload: note.Payload})

	if n.pusher == nil {
		return
	}

	sub, err := n.subscription(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return
	}
	if err != nil {
		n.log.Warn("push subscription lookup failed", zap.String("email", email), zap.Error(err))
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title": note.Title,
		"body":  note.Body,
		"data": map[string]interface{}{
			"type":      note.Type,
			"payload":   note.Payload,
			"timestamp": time.Now().Unix(),
		},
	})
	if err != nil {
		n.log.Error("marshal push payload", zap.Error(err))
		return
	}

	status, err := n.pusher.Push(ctx, &sub.Sub, payload)
	if status == http.StatusGone || status == http.StatusNotFound {
		if _, delErr := n.subs.DeleteOne(ctx, bson.M{"email": email}); delErr != nil {
			n.log.Warn("failed to delete expired push subscription", zap.String("email", email), zap.Error(delErr))
		} else {
			n.log.Info("deleted expired push subscription", zap.String("email", email))
		}
		return
	}
	if err != nil {
		n.log.Warn("push notification failed", zap.String("email", email), zap.Error(err))
	}
}

func (n *Notifier) subscription(ctx context.Context, email string) (*models.PushSubscription, error) {
	doc, err := n.subs.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("re-encode subscription: %w", err)
	}
	var sub models.PushSubscription
	if err := bson.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}
	return &sub, nil
}

// GenerateVAPIDKeys returns a fresh (private, public) key pair.
func GenerateVAPIDKeys() (string, string, error) {
	return webpush.GenerateVAPIDKeys()
}
