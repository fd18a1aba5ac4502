package repository

import (
	"context"
	"time"

	"github.com/agromarket/auction-service/internal/domain/entity"
)

// UpdateHighestBidParams is the version-conditioned pointer update for an
// auction. The write only matches when the stored version equals
// ExpectedVersion; a mismatch surfaces as ErrOptimisticLock.
type UpdateHighestBidParams struct {
	AuctionID       string
	Amount          float64
	BidderID        string
	ExpectedVersion int
}

type UpdateAuctionStatusParams struct {
	AuctionID       string
	Status          entity.AuctionStatus
	ExpectedVersion int
}

type AuctionRepository interface {
	Create(ctx context.Context, auction *entity.Auction) (string, error)
	GetByID(ctx context.Context, auctionID string) (*entity.Auction, error)
	UpdateHighestBid(ctx context.Context, params UpdateHighestBidParams) error
	UpdateStatus(ctx context.Context, params UpdateAuctionStatusParams) error
	ListExpiredApproved(ctx context.Context, now time.Time) ([]entity.Auction, error)
}
