package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opsatya/cinemaSync/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrTokenNotFound = errors.New("user token not found")

const tokensCollection = "user_tokens"

type TokenRepository struct {
	coll *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{coll: db.Collection(tokensCollection)}
}

// Save upserts tokens keyed by user_id + provider
func (r *TokenRepository) Save(ctx context.Context, token *model.UserToken) error {
	now := time.Now().UTC()
	token.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"access_token":  token.AccessToken,
			"refresh_token": token.RefreshToken,
			"token_type":    token.TokenType,
			"scope":         token.Scope,
			"expiry":        token.Expiry,
			"updated_at":    token.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}

	filter := bson.M{"user_id": token.UserID, "provider": token.Provider}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save user token: %w", err)
	}
	return nil
}

// Get fetches tokens for a user and provider
func (r *TokenRepository) Get(ctx context.Context, userID string, provider model.TokenProvider) (*model.UserToken, error) {
	var token model.UserToken
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "provider": provider}).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get user token: %w", err)
	}
	return &token, nil
}

// Delete removes tokens for a user and provider
func (r *TokenRepository) Delete(ctx context.Context, userID string, provider model.TokenProvider) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID, "provider": provider})
	if err != nil {
		return fmt.Errorf("failed to delete user token: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrTokenNotFound
	}
	return nil
}
