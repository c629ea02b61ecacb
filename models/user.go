package models

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleGuide Role = "guide"
	RoleAdmin Role = "admin"
)

// User is the typed view of a users document. Stored documents may carry
// extra fields; handlers that pass documents through use bson.M instead.
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email string             `bson:"email" json:"email" binding:"required,email"`
	Name  string             `bson:"name" json:"name"`
	Photo string             `bson:"photo" json:"photo"`
	Role  Role               `bson:"role,omitempty" json:"role,omitempty"`
}

type ProfileUpdate struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// RoleOf reads the role string of a loosely typed user document.
func RoleOf(doc bson.M) Role {
	role, _ := doc["role"].(string)
	return Role(role)
}

// EmailAt reads doc[key].email, the convention used by booking sub-documents.
func EmailAt(doc bson.M, key string) string {
	switch sub := doc[key].(type) {
	case bson.M:
		email, _ := sub["email"].(string)
		return email
	case map[string]interface{}:
		email, _ := sub["email"].(string)
		return email
	case bson.D:
		for _, e := range sub {
			if e.Key == "email" {
				email, _ := e.Value.(string)
				return email
			}
		}
	}
	return ""
}
