package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/agromarket/auction-service/internal/app/config"
	"github.com/agromarket/auction-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const userCollectionName = "users"

type userDirectory struct {
	collection *mongo.Collection
}

// NewUserDirectory reads display names from the shared users collection. The
// collection is owned by the user service; this adapter never writes to it.
func NewUserDirectory(client *mongo.Client, cfg config.MongoDBConfig) repository.UserDirectory {
	database := client.Database(cfg.Database)
	return &userDirectory{
		collection: database.Collection(userCollectionName),
	}
}

func (d *userDirectory) GetNameByID(ctx context.Context, userID string) (string, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return "", fmt.Errorf("invalid user ID format: %w", repository.ErrNotFound)
	}

	var userDoc struct {
		Name string `bson:"name"`
	}
	err = d.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&userDoc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	return userDoc.Name, nil
}
