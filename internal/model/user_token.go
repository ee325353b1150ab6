package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenProvider names an external storage provider
type TokenProvider string

const (
	ProviderGoogleDrive TokenProvider = "google_drive"
)

// UserToken stores OAuth credentials (access + refresh tokens) per user and
// provider so catalog requests can act on the user's behalf.
type UserToken struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID       string             `bson:"user_id" json:"user_id"`
	Provider     TokenProvider      `bson:"provider" json:"provider"`
	AccessToken  string             `bson:"access_token" json:"-"`
	RefreshToken string             `bson:"refresh_token,omitempty" json:"-"`
	TokenType    string             `bson:"token_type,omitempty" json:"token_type,omitempty"`
	Scope        string             `bson:"scope,omitempty" json:"scope,omitempty"`
	Expiry       time.Time          `bson:"expiry,omitempty" json:"expiry,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Expired reports whether the access token is past its expiry
func (t *UserToken) Expired() bool {
	return !t.Expiry.IsZero() && time.Now().After(t.Expiry)
}
