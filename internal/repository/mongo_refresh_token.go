package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/mansoorceksport/aegis/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRefreshTokenStore implements domain.RefreshTokenStore using MongoDB
type MongoRefreshTokenStore struct {
	collection *mongo.Collection
}

// NewMongoRefreshTokenStore creates a new MongoDB refresh token store
func NewMongoRefreshTokenStore(db *mongo.Database) *MongoRefreshTokenStore {
	collection := db.Collection("refresh_tokens")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Index on token_hash for fast lookups
	collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token_hash", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	// Index on user_id for revoking all tokens
	collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})

	// TTL index for automatic cleanup of expired tokens
	collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})

	return &MongoRefreshTokenStore{
		collection: collection,
	}
}

// Save hashes the plaintext token and persists a new non-revoked record.
func (r *MongoRefreshTokenStore) Save(ctx context.Context, plainToken, userID string, device domain.DeviceInfo, expiresAt time.Time) (*domain.RefreshToken, error) {
	now := time.Now()
	if !expiresAt.After(now) {
		return nil, fmt.Errorf("refresh token expiry must be in the future")
	}
	if expiresAt.After(now.Add(domain.MaxRefreshTokenLifetime)) {
		return nil, fmt.Errorf("refresh token expiry exceeds maximum lifetime")
	}

	token := &domain.RefreshToken{
		ID:        ulid.Make().String(),
		UserID:    userID,
		TokenHash: hashToken(plainToken),
		DeviceID:  device.DeviceID,
		UserAgent: device.UserAgent,
		IPAddress: device.IPAddress,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}

	if _, err := r.collection.InsertOne(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to insert refresh token: %w", err)
	}
	return token, nil
}

// FindByToken hashes the presented token and looks up the record by hash.
// Revoked records are still returned so the caller can distinguish revoked
// from expired after the lookup.
func (r *MongoRefreshTokenStore) FindByToken(ctx context.Context, plainToken string) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	err := r.collection.FindOne(ctx, bson.M{
		"token_hash": hashToken(plainToken),
	}).Decode(&token)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	return &token, nil
}

// RevokeByToken transitions the matching non-revoked record to revoked in a
// single conditional update. The revoked:false filter makes concurrent
// rotations of the same token resolve to exactly one winner.
func (r *MongoRefreshTokenStore) RevokeByToken(ctx context.Context, plainToken, reason string) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"token_hash": hashToken(plainToken), "revoked": false},
		bson.M{"$set": bson.M{
			"revoked":        true,
			"revoked_at":     time.Now(),
			"revoked_reason": reason,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// RevokeAllByUserID revokes all non-revoked refresh tokens for a user.
func (r *MongoRefreshTokenStore) RevokeAllByUserID(ctx context.Context, userID, reason string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "revoked": false},
		bson.M{"$set": bson.M{
			"revoked":        true,
			"revoked_at":     time.Now(),
			"revoked_reason": reason,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpired removes expired tokens (manual backstop for the TTL index).
func (r *MongoRefreshTokenStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now()},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return res.DeletedCount, nil
}

// DeleteRevokedBefore removes revoked tokens whose revocation predates cutoff.
func (r *MongoRefreshTokenStore) DeleteRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{
		"revoked":    true,
		"revoked_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete revoked tokens: %w", err)
	}
	return res.DeletedCount, nil
}

// hashToken creates a SHA256 hash of the token
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
