package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Kipngetichbrian48/Bidance/internal/config"
	"github.com/Kipngetichbrian48/Bidance/internal/models"
)

func main() {
	var (
		initDB   = flag.Bool("init", false, "Create the token collection indexes")
		seedData = flag.Bool("seed", false, "Seed the token store with test tokens")
		issue    = flag.String("issue", "", "Issue one new token with the given name")
		all      = flag.Bool("all", false, "Run init and seed")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.LoadConfig()

	if !*initDB && !*seedData && *issue == "" && !*all {
		fmt.Println("Token Store Setup Utility")
		fmt.Println("Usage:")
		fmt.Println("  -init         Create the token collection indexes")
		fmt.Println("  -seed         Seed the token store with test tokens")
		fmt.Println("  -issue <name> Issue one new token with the given name")
		fmt.Println("  -all          Run init and seed")
		fmt.Println()
		fmt.Println("Environment Variables:")
		fmt.Println("  MONGODB_URI              MongoDB connection string")
		fmt.Println("  MONGODB_DATABASE         Database name")
		fmt.Println("  MONGODB_TOKEN_COLLECTION Token collection name")
		os.Exit(1)
	}

	store, err := NewTokenStore(&cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to token store: %v", err)
	}
	defer store.Close()

	if *initDB || *all {
		if err := store.EnsureIndexes(); err != nil {
			log.Fatalf("Index creation failed: %v", err)
		}
	}

	if *seedData || *all {
		if err := store.SeedTestTokens(); err != nil {
			log.Fatalf("Token seeding failed: %v", err)
		}
	}

	if *issue != "" {
		token, err := store.IssueToken(*issue)
		if err != nil {
			log.Fatalf("Token issuance failed: %v", err)
		}
		log.Printf("Issued token for %q: %s", *issue, token)
	}

	log.Println("Token store setup completed successfully!")
}

// TokenStore handles token collection setup and seeding
type TokenStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	config     *config.MongoDBConfig
}

// NewTokenStore connects to MongoDB and verifies the connection
func NewTokenStore(cfg *config.MongoDBConfig) (*TokenStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	clientOptions.SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &TokenStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.TokenCollection),
		config:     cfg,
	}, nil
}

// EnsureIndexes creates the indexes the verifier queries against
func (ts *TokenStore) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Println("Setting up token collection indexes...")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "active", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "token", Value: 1},
				{Key: "active", Value: 1},
			},
		},
	}

	if _, err := ts.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Token collection indexes created successfully")
	return nil
}

// SeedTestTokens creates sample bearer tokens when the collection is empty
func (ts *TokenStore) SeedTestTokens() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Println("Creating test tokens...")

	count, err := ts.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count existing documents: %w", err)
	}

	if count > 0 {
		log.Printf("Found %d existing tokens, skipping seed data creation", count)
		return nil
	}

	testTokens := []models.APIToken{
		{
			Token:     "test-token-1",
			Name:      "Test Token 1",
			Active:    true,
			CreatedAt: time.Now(),
		},
		{
			Token:     "test-token-2",
			Name:      "Test Token 2",
			Active:    true,
			CreatedAt: time.Now(),
		},
		{
			Token:     "inactive-test-token",
			Name:      "Inactive Test Token",
			Active:    false,
			CreatedAt: time.Now(),
		},
	}

	for i := 0; i < 5; i++ {
		randomToken, err := generateRandomToken()
		if err != nil {
			return fmt.Errorf("failed to generate random token: %w", err)
		}

		testTokens = append(testTokens, models.APIToken{
			Token:     randomToken,
			Name:      fmt.Sprintf("Generated Test Token %d", i+1),
			Active:    true,
			CreatedAt: time.Now(),
		})
	}

	documents := make([]interface{}, 0, len(testTokens))
	for _, token := range testTokens {
		documents = append(documents, token)
	}

	result, err := ts.collection.InsertMany(ctx, documents)
	if err != nil {
		return fmt.Errorf("failed to insert test tokens: %w", err)
	}

	log.Printf("Successfully created %d test tokens", len(result.InsertedIDs))

	log.Println("Test tokens created:")
	for _, token := range testTokens {
		status := "active"
		if !token.Active {
			status = "inactive"
		}
		log.Printf("  - %s (%s) [%s]", token.Token, token.Name, status)
	}

	return nil
}

// IssueToken inserts one new active token and returns its value
func (ts *TokenStore) IssueToken(name string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	token, err := generateRandomToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	_, err = ts.collection.InsertOne(ctx, models.APIToken{
		Token:     token,
		Name:      name,
		Active:    true,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert token: %w", err)
	}

	return token, nil
}

// generateRandomToken generates a cryptographically secure random bearer token
func generateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Close closes the database connection
func (ts *TokenStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return ts.client.Disconnect(ctx)
}
