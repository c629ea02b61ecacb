package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"eliteexplore/database"
	"eliteexplore/websocket"
)

type recordingSender struct {
	emails []string
	events []websocket.Event
}

func (r *recordingSender) SendTo(email string, event websocket.Event) {
	r.emails = append(r.emails, email)
	r.events = append(r.events, event)
}

type mockSubs struct {
	doc     bson.M
	err     error
	deleted []interface{}
}

func (m *mockSubs) FindOne(ctx context.Context, filter interface{}) (bson.M, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.doc == nil {
		return nil, database.ErrNotFound
	}
	return m.doc, nil
}

func (m *mockSubs) DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	m.deleted = append(m.deleted, filter)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

type mockPusher struct {
	status  int
	err     error
	sub     *webpush.Subscription
	payload []byte
	calls   int
}

func (m *mockPusher) Push(ctx context.Context, sub *webpush.Subscription, payload []byte) (int, error) {
	m.calls++
	m.sub = sub
	m.payload = payload
	return m.status, m.err
}

func storedSubscription() bson.M {
	return bson.M{
		"email": "ana@example.com",
		"sub": bson.M{
			"endpoint": "https://push.example/abc",
			"keys":     bson.M{"p256dh": "p256", "auth": "secret"},
		},
	}
}

var accepted = Notification{
	Type:    EventBookingStatus,
	Title:   "Booking accepted",
	Body:    "Your guide accepted the booking",
	Payload: map[string]string{"status": "accepted"},
}

func TestDeliverLiveAndPush(t *testing.T) {
	live := &recordingSender{}
	pusher := &mockPusher{status: http.StatusCreated}
	n := New(live, &mockSubs{doc: storedSubscription()}, pusher, zap.NewNop())

	n.Deliver(context.Background(), "ana@example.com", accepted)

	if len(live.events) != 1 || live.emails[0] != "ana@example.com" || live.events[0].Type != EventBookingStatus {
		t.Fatalf("live events = %v to %v", live.events, live.emails)
	}
	if pusher.calls != 1 {
		t.Fatalf("push calls = %d, want 1", pusher.calls)
	}
	if pusher.sub.Endpoint != "https://push.example/abc" || pusher.sub.Keys.Auth != "secret" || pusher.sub.Keys.P256dh != "p256" {
		t.Errorf("subscription = %+v", pusher.sub)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(pusher.payload, &payload); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if payload["title"] != "Booking accepted" {
		t.Errorf("title = %v", payload["title"])
	}
}

func TestDeliverWithoutSubscription(t *testing.T) {
	live := &recordingSender{}
	pusher := &mockPusher{}
	n := New(live, &mockSubs{}, pusher, zap.NewNop())

	n.Deliver(context.Background(), "ana@example.com", accepted)

	if len(live.events) != 1 {
		t.Errorf("live events = %d, want 1", len(live.events))
	}
	if pusher.calls != 0 {
		t.Errorf("push calls = %d, want 0", pusher.calls)
	}
}

func TestDeliverDeletesExpiredSubscription(t *testing.T) {
	subs := &mockSubs{doc: storedSubscription()}
	pusher := &mockPusher{status: http.StatusGone, err: errors.New("410 Gone")}
	n := New(&recordingSender{}, subs, pusher, zap.NewNop())

	n.Deliver(context.Background(), "ana@example.com", accepted)

	if len(subs.deleted) != 1 {
		t.Fatalf("deletes = %d, want 1", len(subs.deleted))
	}
	if filter := subs.deleted[0].(bson.M); filter["email"] != "ana@example.com" {
		t.Errorf("delete filter = %v", filter)
	}
}

func TestDeliverPushDisabled(t *testing.T) {
	live := &recordingSender{}
	subs := &mockSubs{err: errors.New("should not be queried")}
	n := New(live, subs, nil, zap.NewNop())

	n.Deliver(context.Background(), "ana@example.com", accepted)

	if len(live.events) != 1 {
		t.Errorf("live events = %d, want 1", len(live.events))
	}
}

func TestGenerateVAPIDKeys(t *testing.T) {
	priv, pub, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("GenerateVAPIDKeys failed: %v", err)
	}
	if priv == "" || pub == "" || priv == pub {
		t.Errorf("keys = %q / %q", priv, pub)
	}
}
