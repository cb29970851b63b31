package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TokenBlacklist records revoked refresh-token jtis. A revoked jti stays
// listed until the token it belongs to would have expired anyway.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MongoTokenBlacklist keeps revoked jtis in a collection with a TTL index,
// so entries disappear once the underlying token expires.
type MongoTokenBlacklist struct {
	collection *mongo.Collection
}

func NewMongoTokenBlacklist(collection *mongo.Collection) *MongoTokenBlacklist {
	return &MongoTokenBlacklist{collection: collection}
}

// EnsureIndexes creates the jti lookup index and the TTL index. Called once
// at startup.
func (b *MongoTokenBlacklist) EnsureIndexes(ctx context.Context) error {
	_, err := b.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "jti", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create blacklist indexes: %v", err)
	}
	return nil
}

func (b *MongoTokenBlacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := b.collection.UpdateOne(ctx,
		bson.M{"jti": jti},
		bson.M{"$set": bson.M{"jti": jti, "expiresAt": expiresAt}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to blacklist token: %v", err)
	}
	return nil
}

func (b *MongoTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	count, err := b.collection.CountDocuments(ctx, bson.M{"jti": jti})
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %v", err)
	}
	return count > 0, nil
}
