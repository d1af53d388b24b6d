package store

import (
	"context"
	"fmt"
	"time"

	"shopify-product-editor/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists shop tokens in a shops collection, one document per
// shop domain, upserted on every OAuth exchange.
type MongoStore struct {
	shops *mongo.Collection
}

// NewMongoStore creates a MongoDB-backed token store.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{shops: db.Collection("shops")}
}

// Get returns the stored token for shop, or domain.ErrTokenNotFound.
func (s *MongoStore) Get(ctx context.Context, shop string) (string, error) {
	var doc domain.Shop
	err := s.shops.FindOne(ctx, bson.M{"domain": shop}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", domain.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get shop: %w", err)
	}
	if doc.AccessToken == "" {
		return "", domain.ErrTokenNotFound
	}
	return doc.AccessToken, nil
}

// Set upserts the shop document, replacing any previous token.
func (s *MongoStore) Set(ctx context.Context, shop string, accessToken string) error {
	doc := domain.Shop{
		Domain:      shop,
		AccessToken: accessToken,
		UpdatedAt:   time.Now(),
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"domain": shop}
	update := bson.M{"$set": doc}

	if _, err := s.shops.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}
	return nil
}
