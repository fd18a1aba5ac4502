package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agromarket/auction-service/internal/app/config"
	"github.com/agromarket/auction-service/internal/domain/entity"
	"github.com/agromarket/auction-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auctionCollectionName = "auctions"

type auctionRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewAuctionRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.AuctionRepository {
	database := client.Database(cfg.Database)
	return &auctionRepository{
		db:         database,
		collection: database.Collection(auctionCollectionName),
	}
}

func (r *auctionRepository) Create(ctx context.Context, auction *entity.Auction) (string, error) {
	now := time.Now().UTC()
	auction.CreatedAt = now
	auction.UpdatedAt = now
	if auction.Version == 0 {
		auction.Version = 1
	}
	if auction.CurrentHighestBid < auction.StartingPrice {
		auction.CurrentHighestBid = auction.StartingPrice
	}

	res, err := r.collection.InsertOne(ctx, auction)
	if err != nil {
		return "", fmt.Errorf("failed to create auction: %w", err)
	}

	objectID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted ID to ObjectID")
	}
	return objectID.Hex(), nil
}

func (r *auctionRepository) GetByID(ctx context.Context, auctionID string) (*entity.Auction, error) {
	objID, err := primitive.ObjectIDFromHex(auctionID)
	if err != nil {
		return nil, fmt.Errorf("invalid auction ID format: %w", repository.ErrNotFound)
	}

	var auction entity.Auction
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&auction)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get auction by ID %s: %w", auctionID, err)
	}
	return &auction, nil
}

func (r *auctionRepository) UpdateHighestBid(ctx context.Context, params repository.UpdateHighestBidParams) error {
	objID, err := primitive.ObjectIDFromHex(params.AuctionID)
	if err != nil {
		return fmt.Errorf("invalid auction ID format for highest bid update: %w", repository.ErrUpdateFailed)
	}

	filter := bson.M{
		"_id":     objID,
		"version": params.ExpectedVersion,
	}
	update := bson.M{
		"$set": bson.M{
			"current_highest_bid":       params.Amount,
			"current_highest_bidder_id": params.BidderID,
			"updated_at":                time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update highest bid for auction %s: %w", params.AuctionID, err)
	}
	if result.MatchedCount == 0 {
		return r.classifyMissedWrite(ctx, objID, params.ExpectedVersion)
	}
	return nil
}

func (r *auctionRepository) UpdateStatus(ctx context.Context, params repository.UpdateAuctionStatusParams) error {
	objID, err := primitive.ObjectIDFromHex(params.AuctionID)
	if err != nil {
		return fmt.Errorf("invalid auction ID format for status update: %w", repository.ErrUpdateFailed)
	}

	filter := bson.M{
		"_id":     objID,
		"version": params.ExpectedVersion,
	}
	update := bson.M{
		"$set": bson.M{
			"status":     params.Status,
			"updated_at": time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update status for auction %s: %w", params.AuctionID, err)
	}
	if result.MatchedCount == 0 {
		return r.classifyMissedWrite(ctx, objID, params.ExpectedVersion)
	}
	return nil
}

// classifyMissedWrite distinguishes a vanished document from a stale version
// after a conditional update matched nothing.
func (r *auctionRepository) classifyMissedWrite(ctx context.Context, objID primitive.ObjectID, expectedVersion int) error {
	var existing entity.Auction
	errFind := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&existing)
	if errors.Is(errFind, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if errFind == nil && existing.Version != expectedVersion {
		return repository.ErrOptimisticLock
	}
	return repository.ErrUpdateFailed
}

func (r *auctionRepository) ListExpiredApproved(ctx context.Context, now time.Time) ([]entity.Auction, error) {
	filter := bson.M{
		"status":       entity.AuctionStatusApproved,
		"bid_end_time": bson.M{"$lt": now},
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "bid_end_time", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired auctions: %w", err)
	}
	defer cursor.Close(ctx)

	var auctions []entity.Auction
	if err = cursor.All(ctx, &auctions); err != nil {
		return nil, fmt.Errorf("failed to decode expired auctions: %w", err)
	}
	return auctions, nil
}
