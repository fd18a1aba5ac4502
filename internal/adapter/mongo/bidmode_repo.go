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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bidModeCollectionName = "bid_modes"

type bidModeRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

func NewBidModeRepository(client *mongo.Client, cfg config.MongoDBConfig) repository.BidModeRepository {
	database := client.Database(cfg.Database)
	return &bidModeRepository{
		db:         database,
		collection: database.Collection(bidModeCollectionName),
	}
}

func (r *bidModeRepository) Upsert(ctx context.Context, setting *entity.BidModeSetting) (*entity.BidModeSetting, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"bidder_id":  setting.BidderID,
		"auction_id": setting.AuctionID,
	}

	setFields := bson.M{
		"bid_mode":   setting.Mode,
		"updated_at": now,
	}
	update := bson.M{
		"$set":         setFields,
		"$setOnInsert": bson.M{"created_at": now},
	}
	if setting.Mode == entity.BidModeAuto {
		setFields["auto_increment_amount"] = setting.AutoIncrement
	} else {
		// Switching to manual removes the stored increment, not merely
		// ignores it: the field's absence is part of the contract.
		update["$unset"] = bson.M{"auto_increment_amount": ""}
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored entity.BidModeSetting
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert bid mode for bidder %s on auction %s: %w",
			setting.BidderID, setting.AuctionID, err)
	}
	return &stored, nil
}

func (r *bidModeRepository) Find(ctx context.Context, bidderID, auctionID string) (*entity.BidModeSetting, error) {
	filter := bson.M{
		"bidder_id":  bidderID,
		"auction_id": auctionID,
	}

	var setting entity.BidModeSetting
	err := r.collection.FindOne(ctx, filter).Decode(&setting)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bid mode for bidder %s on auction %s: %w", bidderID, auctionID, err)
	}
	return &setting, nil
}
