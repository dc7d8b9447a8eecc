package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

const documentID = "main"

// storedDocument wraps the document with the fixed key it is stored under.
type storedDocument struct {
	ID        string          `bson:"_id"`
	Document  models.Document `bson:"document"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

// MongoDBRepository keeps the whole document as one MongoDB record.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository connects and pings the server.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "documents",
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// Load reads the stored document; no record yields a fresh document.
func (r *MongoDBRepository) Load(ctx context.Context) (*models.Document, error) {
	var stored storedDocument
	err := r.collection().FindOne(ctx, bson.M{"_id": documentID}).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &stored.Document, nil
}

// Save replaces the stored document in a single upsert.
func (r *MongoDBRepository) Save(ctx context.Context, doc *models.Document) error {
	stored := storedDocument{ID: documentID, Document: *doc, UpdatedAt: time.Now().UTC()}
	_, err := r.collection().ReplaceOne(ctx, bson.M{"_id": documentID}, stored, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
