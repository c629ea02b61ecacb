package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
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

func init() {
	gin.SetMode(gin.TestMode)
}

type update struct {
	filter interface{}
	update interface{}
	opts   []*options.UpdateOptions
}

// fakeCollection records every call. Unset funcs fall back to benign
// defaults: nothing found, one document written.
type fakeCollection struct {
	InsertOneFunc      func(doc interface{}) (*mongo.InsertOneResult, error)
	FindOneFunc        func(filter interface{}) (bson.M, error)
	FindFunc           func(filter interface{}, opts ...*options.FindOptions) ([]bson.M, error)
	UpdateOneFunc      func(filter, update interface{}) (*mongo.UpdateResult, error)
	DeleteOneFunc      func(filter interface{}) (*mongo.DeleteResult, error)
	CountDocumentsFunc func(filter interface{}) (int64, error)
	AggregateFunc      func(pipeline interface{}) ([]bson.M, error)

	inserted   []interface{}
	findOnes   []interface{}
	finds      []interface{}
	findOpts   []*options.FindOptions
	updates    []update
	deletes    []interface{}
	counts     []interface{}
	aggregates []interface{}
}

func (f *fakeCollection) InsertOne(ctx context.Context, doc interface{}) (*mongo.InsertOneResult, error) {
	f.inserted = append(f.inserted, doc)
	if f.InsertOneFunc != nil {
		return f.InsertOneFunc(doc)
	}
	return &mongo.InsertOneResult{InsertedID: primitive.NewObjectID()}, nil
}

func (f *fakeCollection) FindOne(ctx context.Context, filter interface{}) (bson.M, error) {
	f.findOnes = append(f.findOnes, filter)
	if f.FindOneFunc != nil {
		return f.FindOneFunc(filter)
	}
	return nil, database.ErrNotFound
}

func (f *fakeCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]bson.M, error) {
	f.finds = append(f.finds, filter)
	f.findOpts = append(f.findOpts, opts...)
	if f.FindFunc != nil {
		return f.FindFunc(filter, opts...)
	}
	return []bson.M{}, nil
}

func (f *fakeCollection) UpdateOne(ctx context.Context, filter, upd interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	f.updates = append(f.updates, update{filter: filter, update: upd, opts: opts})
	if f.UpdateOneFunc != nil {
		return f.UpdateOneFunc(filter, upd)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeCollection) DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	f.deletes = append(f.deletes, filter)
	if f.DeleteOneFunc != nil {
		return f.DeleteOneFunc(filter)
	}
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (f *fakeCollection) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	f.counts = append(f.counts, filter)
	if f.CountDocumentsFunc != nil {
		return f.CountDocumentsFunc(filter)
	}
	return 0, nil
}

func (f *fakeCollection) Aggregate(ctx context.Context, pipeline interface{}) ([]bson.M, error) {
	f.aggregates = append(f.aggregates, pipeline)
	if f.AggregateFunc != nil {
		return f.AggregateFunc(pipeline)
	}
	return []bson.M{}, nil
}

type sentNote struct {
	email string
	note  notify.Notification
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNote
}

func (f *fakeNotifier) Notify(email string, note notify.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNote{email: email, note: note})
}

type fakeIntents struct {
	CreateIntentFunc func(amount int64, currency string) (string, error)
	amounts          []int64
	currencies       []string
}

func (f *fakeIntents) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	f.amounts = append(f.amounts, amount)
	f.currencies = append(f.currencies, currency)
	if f.CreateIntentFunc != nil {
		return f.CreateIntentFunc(amount, currency)
	}
	return "pi_secret", nil
}

type fakeUploader struct {
	UploadFunc func(data []byte) (string, error)
	uploaded   [][]byte
}

func (f *fakeUploader) Upload(ctx context.Context, file io.Reader, publicID string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	f.uploaded = append(f.uploaded, data)
	if f.UploadFunc != nil {
		return f.UploadFunc(data)
	}
	return "https://res.cloudinary.com/demo/photo.jpg", nil
}

type testEnv struct {
	users, tours, guides, stories, bookings, applications, payments, pushSubs *fakeCollection

	notifier *fakeNotifier
	intents  *fakeIntents
	uploader *fakeUploader
	pingErr  error
	h        *Handler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:        &fakeCollection{},
		tours:        &fakeCollection{},
		guides:       &fakeCollection{},
		stories:      &fakeCollection{},
		bookings:     &fakeCollection{},
		applications: &fakeCollection{},
		payments:     &fakeCollection{},
		pushSubs:     &fakeCollection{},
		notifier:     &fakeNotifier{},
		intents:      &fakeIntents{},
		uploader:     &fakeUploader{},
	}
	env.h = New(Deps{
		Stores: Stores{
			Users:             env.users,
			Tours:             env.tours,
			Guides:            env.guides,
			Stories:           env.stories,
			Bookings:          env.bookings,
			Applications:      env.applications,
			Payments:          env.payments,
			PushSubscriptions: env.pushSubs,
		},
		Tokens:         middleware.NewTokens("test-secret", time.Hour),
		Intents:        env.intents,
		Uploader:       env.uploader,
		Notifier:       env.notifier,
		Ping:           func(context.Context) error { return env.pingErr },
		VAPIDPublicKey: "BPublicKey",
		Log:            zap.NewNop(),
	})
	return env
}

var (
	_ payments.IntentCreator = (*fakeIntents)(nil)
	_ media.Uploader         = (*fakeUploader)(nil)
	_ Collection             = (*database.Collection)(nil)
)

// serve registers handler at route, runs one request against it as caller
// (empty for anonymous) and returns the recorder.
func serve(method, route, target string, body interface{}, caller string, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, func(c *gin.Context) {
		if caller != "" {
			c.Set(middleware.EmailKey, caller)
		}
		c.Next()
	}, handler)

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}

func mustUpdate(t *testing.T, u update) bson.M {
	t.Helper()
	doc, ok := u.update.(bson.M)
	if !ok {
		t.Fatalf("update is %T, want bson.M", u.update)
	}
	return doc
}
