package service

import (
	"context"
	"time"

	"github.com/agromarket/auction-service/internal/domain/entity"
)

// AuctionView is the read-only projection of an auction for API and
// real-time consumers. Time-derived fields (TimeRemainingSeconds, IsActive,
// per-bid TimeAgo) are recomputed on every read, including cache hits.
type AuctionView struct {
	AuctionID              string            `json:"auction_id"`
	SellerID               string            `json:"seller_id"`
	Name                   string            `json:"name"`
	Status                 string            `json:"status"`
	StartingPrice          float64           `json:"starting_price"`
	CurrentHighestBid      float64           `json:"current_highest_bid"`
	CurrentHighestBidderID string            `json:"current_highest_bidder_id,omitempty"`
	TotalBids              int               `json:"total_bids"`
	BidStartTime           time.Time         `json:"bid_start_time"`
	BidEndTime             time.Time         `json:"bid_end_time"`
	TimeRemainingSeconds   int64             `json:"time_remaining_seconds"`
	IsActive               bool              `json:"is_active"`
	Bids                   []BidHistoryEntry `json:"bids"`
}

// BidHistoryEntry is one bid as displayed: previous and increment amounts
// are relative to the chronologically preceding bid, with the starting price
// standing in as the first bid's predecessor.
type BidHistoryEntry struct {
	BidID           string    `json:"bid_id"`
	AuctionID       string    `json:"auction_id"`
	BidderID        string    `json:"bidder_id"`
	BidderName      string    `json:"bidder_name,omitempty"`
	BidderInitials  string    `json:"bidder_initials"`
	Amount          float64   `json:"amount"`
	PreviousAmount  *float64  `json:"previous_amount,omitempty"`
	IncrementAmount *float64  `json:"increment_amount,omitempty"`
	Mode            string    `json:"bid_mode"`
	BidTime         time.Time `json:"bid_time"`
	TimeAgo         string    `json:"time_ago"`
	IsWinning       bool      `json:"is_winning_bid"`
	Status          string    `json:"status"`
}

// refresh recomputes the time-sensitive fields against now. Cached views go
// through this before being returned.
func (v *AuctionView) refresh(now time.Time) {
	remaining := v.BidEndTime.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	v.TimeRemainingSeconds = int64(remaining.Seconds())
	v.IsActive = entity.AuctionStatus(v.Status) == entity.AuctionStatusApproved &&
		!now.Before(v.BidStartTime) && now.Before(v.BidEndTime)
	for i := range v.Bids {
		v.Bids[i].TimeAgo = timeAgo(now, v.Bids[i].BidTime)
	}
}

// AuctionViewCache holds projected views for a short TTL; bid placement and
// finalization invalidate the entry.
type AuctionViewCache interface {
	Get(ctx context.Context, auctionID string) (*AuctionView, error)
	Set(ctx context.Context, auctionID string, view *AuctionView, ttl time.Duration) error
	Delete(ctx context.Context, auctionID string) error
}
