package mongo

import (
	"context"
	"fmt"

	"github.com/agromarket/auction-service/internal/app/config"
	"github.com/agromarket/auction-service/internal/domain/entity"
	"github.com/agromarket/auction-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bidCollectionName = "bids"

type bidRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewBidRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.BidRepository {
	database := client.Database(cfg.Database)
	return &bidRepository{
		db:         database,
		collection: database.Collection(bidCollectionName),
	}
}

func (r *bidRepository) Create(ctx context.Context, params repository.CreateBidParams) (*entity.Bid, error) {
	bid := entity.Bid{
		AuctionID:       params.AuctionID,
		BidderID:        params.BidderID,
		Amount:          params.Amount,
		PreviousAmount:  params.PreviousAmount,
		IncrementAmount: params.IncrementAmount,
		Mode:            params.Mode,
		BidTime:         params.BidTime,
		IsWinning:       true,
		Status:          entity.BidStatusActive,
	}

	res, err := r.collection.InsertOne(ctx, bid)
	if err != nil {
		return nil, fmt.Errorf("failed to create bid: %w", err)
	}

	objectID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to convert inserted bid ID to ObjectID")
	}
	bid.ID = objectID.Hex()
	return &bid, nil
}

func (r *bidRepository) ListByAuction(ctx context.Context, auctionID string) ([]entity.Bid, error) {
	filter := bson.M{"auction_id": auctionID}
	findOptions := options.Find().SetSort(bson.D{{Key: "bid_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids for auction %s: %w", auctionID, err)
	}
	defer cursor.Close(ctx)

	var bids []entity.Bid
	if err = cursor.All(ctx, &bids); err != nil {
		return nil, fmt.Errorf("failed to decode bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

func (r *bidRepository) List(ctx context.Context, params repository.ListBidsParams) (*repository.ListBidsResult, error) {
	filter := bson.M{"auction_id": params.AuctionID}
	if params.Status != "" {
		filter["status"] = params.Status
	}

	sortField := "bid_time"
	if params.SortBy == "amount" {
		sortField = "amount"
	}
	sortOrder := -1
	if params.SortOrder == "asc" {
		sortOrder = 1
	}

	findOptions := options.Find().SetSort(bson.D{{Key: sortField, Value: sortOrder}})
	if params.Limit > 0 {
		if params.Page <= 0 {
			params.Page = 1
		}
		findOptions.SetSkip(int64((params.Page - 1) * params.Limit))
		findOptions.SetLimit(int64(params.Limit))
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer cursor.Close(ctx)

	var bids []entity.Bid
	if err = cursor.All(ctx, &bids); err != nil {
		return nil, fmt.Errorf("failed to decode listed bids: %w", err)
	}

	totalCount, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count bids: %w", err)
	}

	return &repository.ListBidsResult{
		Bids:       bids,
		TotalCount: totalCount,
	}, nil
}

func (r *bidRepository) ClearWinning(ctx context.Context, auctionID, keepBidID string) error {
	filter := bson.M{
		"auction_id":     auctionID,
		"is_winning_bid": true,
		"status":         entity.BidStatusActive,
	}
	if keepBidID != "" {
		keepObjID, err := primitive.ObjectIDFromHex(keepBidID)
		if err != nil {
			return fmt.Errorf("invalid bid ID format for clear winning: %w", repository.ErrUpdateFailed)
		}
		filter["_id"] = bson.M{"$ne": keepObjID}
	}

	update := bson.M{"$set": bson.M{"is_winning_bid": false}}
	if _, err := r.collection.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to clear winning bids for auction %s: %w", auctionID, err)
	}
	return nil
}

func (r *bidRepository) CloseLosing(ctx context.Context, auctionID string) error {
	filter := bson.M{
		"auction_id":     auctionID,
		"is_winning_bid": false,
		"status":         entity.BidStatusActive,
	}
	update := bson.M{"$set": bson.M{"status": entity.BidStatusClosed}}

	if _, err := r.collection.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to close losing bids for auction %s: %w", auctionID, err)
	}
	return nil
}
