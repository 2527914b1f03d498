package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Kipngetichbrian48/Bidance/internal/config"
	"github.com/Kipngetichbrian48/Bidance/internal/models"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInactiveToken = errors.New("token is inactive")
	ErrDatabaseError = errors.New("database error")
)

// TokenVerifier verifies bearer tokens against a MongoDB collection
type TokenVerifier struct {
	db         *mongo.Database
	collection *mongo.Collection
	config     *config.MongoDBConfig
}

// NewTokenVerifier creates a token verifier with pooled MongoDB connections
func NewTokenVerifier(cfg *config.MongoDBConfig) (*TokenVerifier, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	clientOptions.SetMinPoolSize(cfg.MaxPoolSize / 4)
	clientOptions.SetMaxConnIdleTime(30 * time.Minute)
	clientOptions.SetConnectTimeout(cfg.ConnectTimeout)
	clientOptions.SetServerSelectionTimeout(5 * time.Second)
	clientOptions.SetRetryWrites(true)
	clientOptions.SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.Database)
	collection := db.Collection(cfg.TokenCollection)

	// Unique index on the token field for fast lookups. An AlreadyExists
	// error here is fine.
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = collection.Indexes().CreateOne(ctx, indexModel)

	return &TokenVerifier{
		db:         db,
		collection: collection,
		config:     cfg,
	}, nil
}

// VerifyToken validates a bearer token against the token collection
func (v *TokenVerifier) VerifyToken(ctx context.Context, token string) (*models.APIToken, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var apiToken models.APIToken
	err := v.collection.FindOne(ctx, bson.M{"token": token}).Decode(&apiToken)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrInvalidToken
		}
		return nil, ErrDatabaseError
	}

	if !apiToken.Active {
		return nil, ErrInactiveToken
	}

	// Last-used bookkeeping happens off the request path
	go v.updateLastUsed(apiToken.ID)

	return &apiToken, nil
}

// updateLastUsed updates the last_used timestamp for a token
func (v *TokenVerifier) updateLastUsed(id interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now()
	_, _ = v.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_used": now}},
	)
}

// Close closes the MongoDB connection
func (v *TokenVerifier) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return v.db.Client().Disconnect(ctx)
}
