package repository

import (
	"context"
	"time"

	"github.com/agromarket/auction-service/internal/domain/entity"
)

type CreateBidParams struct {
	AuctionID       string
	BidderID        string
	Amount          float64
	PreviousAmount  *float64
	IncrementAmount *float64
	Mode            entity.BidMode
	BidTime         time.Time
}

type ListBidsParams struct {
	AuctionID string
	Status    entity.BidStatus
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

type ListBidsResult struct {
	Bids       []entity.Bid
	TotalCount int64
}

type BidRepository interface {
	// Create inserts a new bid marked winning and active.
	Create(ctx context.Context, params CreateBidParams) (*entity.Bid, error)
	// ListByAuction returns every bid for the auction in chronological order.
	ListByAuction(ctx context.Context, auctionID string) ([]entity.Bid, error)
	List(ctx context.Context, params ListBidsParams) (*ListBidsResult, error)
	// ClearWinning drops the winning flag on all active bids of the auction
	// except the one identified by keepBidID.
	ClearWinning(ctx context.Context, auctionID, keepBidID string) error
	// CloseLosing marks every active non-winning bid of the auction closed.
	CloseLosing(ctx context.Context, auctionID string) error
}
