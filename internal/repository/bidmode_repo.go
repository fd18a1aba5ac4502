package repository

import (
	"context"

	"github.com/agromarket/auction-service/internal/domain/entity"
)

type BidModeRepository interface {
	// Upsert stores the setting keyed by (bidder, auction). Storing a manual
	// setting removes any previously stored auto increment.
	Upsert(ctx context.Context, setting *entity.BidModeSetting) (*entity.BidModeSetting, error)
	// Find returns ErrNotFound when no setting exists for the pair; callers
	// treat absence as manual mode.
	Find(ctx context.Context, bidderID, auctionID string) (*entity.BidModeSetting, error)
}
