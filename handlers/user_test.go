package handlers

import (
	"errors"
	"math"
	"net/http"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestUsersFilter(t *testing.T) {
	tests := []struct {
		name   string
		search string
		role   string
		want   bson.M
	}{
		{"empty", "", "", bson.M{}},
		{"search", "ann", "", bson.M{"name": bson.M{"$regex": "ann", "$options": "i"}}},
		{"role", "", "guide", bson.M{"role": "guide"}},
		{"escaped", "a.b(c", "user", bson.M{
			"name": bson.M{"$regex": `a\.b\(c`, "$options": "i"},
			"role": "user",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := usersFilter(tt.search, tt.role); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("usersFilter(%q, %q) = %v, want %v", tt.search, tt.role, got, tt.want)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		page, limit         string
		wantPage, wantLimit int64
		wantSkip            int64
	}{
		{"", "", 1, 10, 0},
		{"3", "5", 3, 5, 10},
		{"0", "-2", 1, 10, 0},
		{"abc", "7", 1, 7, 0},
		{"9223372036854775807", "10", math.MaxInt64/10 + 1, 10, math.MaxInt64 / 10 * 10},
		{"2", "9223372036854775807", 2, math.MaxInt64, math.MaxInt64},
		{"3", "9223372036854775807", 2, math.MaxInt64, math.MaxInt64},
	}

	for _, tt := range tests {
		page, limit, skip := pagination(tt.page, tt.limit)
		if skip < 0 {
			t.Errorf("pagination(%q, %q) skip = %d, want non-negative", tt.page, tt.limit, skip)
		}
		if page != tt.wantPage || limit != tt.wantLimit || skip != tt.wantSkip {
			t.Errorf("pagination(%q, %q) = %d, %d, %d; want %d, %d, %d",
				tt.page, tt.limit, page, limit, skip, tt.wantPage, tt.wantLimit, tt.wantSkip)
		}
	}

	if got := totalPages(21, 10); got != 3 {
		t.Errorf("totalPages(21, 10) = %d, want 3", got)
	}
	if got := totalPages(0, 10); got != 0 {
		t.Errorf("totalPages(0, 10) = %d, want 0", got)
	}
	if got := totalPages(5, math.MaxInt64); got != 1 {
		t.Errorf("totalPages(5, MaxInt64) = %d, want 1", got)
	}
}

func TestListUsers(t *testing.T) {
	env := newTestEnv()
	env.users.CountDocumentsFunc = func(interface{}) (int64, error) { return 12, nil }
	env.users.FindFunc = func(interface{}, ...*options.FindOptions) ([]bson.M, error) {
		return []bson.M{{"name": "Ann"}}, nil
	}

	w := serve(http.MethodGet, "/users", "/users?search=an&role=user&page=2&limit=5", nil, "admin@x.com", env.h.ListUsers)
	expectStatus(t, w, http.StatusOK)

	var body struct {
		Users       []map[string]interface{} `json:"users"`
		Total       int64                    `json:"total"`
		CurrentPage int64                    `json:"currentPage"`
		TotalPages  int64                    `json:"totalPages"`
	}
	decode(t, w, &body)

	if body.Total != 12 || body.CurrentPage != 2 || body.TotalPages != 3 || len(body.Users) != 1 {
		t.Errorf("body = %+v", body)
	}

	opts := env.users.findOpts[0]
	if *opts.Skip != 5 || *opts.Limit != 5 {
		t.Errorf("skip/limit = %d/%d, want 5/5", *opts.Skip, *opts.Limit)
	}
	if !reflect.DeepEqual(env.users.counts[0], env.users.finds[0]) {
		t.Errorf("count filter %v differs from find filter %v", env.users.counts[0], env.users.finds[0])
	}
}

func TestCreateUser(t *testing.T) {
	t.Run("inserts with user role", func(t *testing.T) {
		env := newTestEnv()
		w := serve(http.MethodPost, "/users", "/users", map[string]interface{}{
			"_id":   "client-chosen",
			"email": "ann@x.com",
			"name":  "Ann",
			"role":  "admin",
		}, "", env.h.CreateUser)
		expectStatus(t, w, http.StatusOK)

		if len(env.users.inserted) != 1 {
			t.Fatalf("inserts = %d, want 1", len(env.users.inserted))
		}
		doc := env.users.inserted[0].(bson.M)
		if _, ok := doc["_id"]; ok {
			t.Error("client _id was stored")
		}
		if doc["role"] != "user" || doc["name"] != "Ann" || doc["email"] != "ann@x.com" {
			t.Errorf("stored = %v", doc)
		}
	})

	t.Run("existing email", func(t *testing.T) {
		env := newTestEnv()
		env.users.FindOneFunc = func(interface{}) (bson.M, error) { return bson.M{"email": "ann@x.com"}, nil }

		w := serve(http.MethodPost, "/users", "/users", map[string]string{"email": "ann@x.com"}, "", env.h.CreateUser)
		expectStatus(t, w, http.StatusOK)

		var body map[string]interface{}
		decode(t, w, &body)
		if v, ok := body["insertedId"]; !ok || v != nil {
			t.Errorf("insertedId = %v, want null", v)
		}
		if len(env.users.inserted) != 0 {
			t.Error("existing user was inserted again")
		}
	})

	t.Run("missing email", func(t *testing.T) {
		env := newTestEnv()
		w := serve(http.MethodPost, "/users", "/users", map[string]string{"name": "Ann"}, "", env.h.CreateUser)
		expectStatus(t, w, http.StatusBadRequest)
	})

	t.Run("lookup failure", func(t *testing.T) {
		env := newTestEnv()
		env.users.FindOneFunc = func(interface{}) (bson.M, error) { return nil, errors.New("boom") }

		w := serve(http.MethodPost, "/users", "/users", map[string]string{"email": "ann@x.com"}, "", env.h.CreateUser)
		expectStatus(t, w, http.StatusInternalServerError)
	})
}

func TestGetUser(t *testing.T) {
	env := newTestEnv()
	w := serve(http.MethodGet, "/user/:email", "/user/ghost@x.com", nil, "ann@x.com", env.h.GetUser)
	expectStatus(t, w, http.StatusNotFound)

	env.users.FindOneFunc = func(interface{}) (bson.M, error) { return bson.M{"email": "ann@x.com"}, nil }
	w = serve(http.MethodGet, "/user/:email", "/user/ann@x.com", nil, "ann@x.com", env.h.GetUser)
	expectStatus(t, w, http.StatusOK)
	if filter := env.users.findOnes[1].(bson.M); filter["email"] != "ann@x.com" {
		t.Errorf("filter = %v", filter)
	}
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv()

	w := serve(http.MethodDelete, "/delete-user/:id", "/delete-user/not-an-id", nil, "admin@x.com", env.h.DeleteUser)
	expectStatus(t, w, http.StatusBadRequest)
	if len(env.users.deletes) != 0 {
		t.Fatal("malformed id reached the database")
	}

	id := primitive.NewObjectID()
	w = serve(http.MethodDelete, "/delete-user/:id", "/delete-user/"+id.Hex(), nil, "admin@x.com", env.h.DeleteUser)
	expectStatus(t, w, http.StatusOK)

	var body map[string]interface{}
	decode(t, w, &body)
	if body["deletedCount"] != float64(1) || body["acknowledged"] != true {
		t.Errorf("body = %v", body)
	}
	if filter := env.users.deletes[0].(bson.M); filter["_id"] != id {
		t.Errorf("filter = %v", filter)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv()
	id := primitive.NewObjectID()

	w := serve(http.MethodPatch, "/update-profile/:id", "/update-profile/"+id.Hex(),
		map[string]string{"name": "Ann B", "photo": "https://img/x.jpg"}, "ann@x.com", env.h.UpdateProfile)
	expectStatus(t, w, http.StatusOK)

	set := mustUpdate(t, env.users.updates[0])["$set"].(bson.M)
	if set["name"] != "Ann B" || set["photo"] != "https://img/x.jpg" {
		t.Errorf("$set = %v", set)
	}
}

func TestIsAdminAndIsGuide(t *testing.T) {
	env := newTestEnv()
	env.users.FindOneFunc = func(interface{}) (bson.M, error) { return bson.M{"role": "guide"}, nil }

	w := serve(http.MethodGet, "/users/admin/:email", "/users/admin/g@x.com", nil, "g@x.com", env.h.IsAdmin)
	expectStatus(t, w, http.StatusOK)
	var admin map[string]bool
	decode(t, w, &admin)
	if admin["admin"] {
		t.Error("guide reported as admin")
	}

	w = serve(http.MethodGet, "/users/guide/:email", "/users/guide/g@x.com", nil, "g@x.com", env.h.IsGuide)
	expectStatus(t, w, http.StatusOK)
	var guide map[string]bool
	decode(t, w, &guide)
	if !guide["guide"] {
		t.Error("guide not reported as guide")
	}

	env.users.FindOneFunc = nil
	w = serve(http.MethodGet, "/users/guide/:email", "/users/guide/new@x.com", nil, "new@x.com", env.h.IsGuide)
	expectStatus(t, w, http.StatusOK)
}
