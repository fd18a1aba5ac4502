package entity

import (
	"errors"
	"fmt"
	"time"
)

type AuctionStatus string

const (
	AuctionStatusPending   AuctionStatus = "PENDING"
	AuctionStatusApproved  AuctionStatus = "APPROVED"
	AuctionStatusRejected  AuctionStatus = "REJECTED"
	AuctionStatusActive    AuctionStatus = "ACTIVE"
	AuctionStatusSold      AuctionStatus = "SOLD"
	AuctionStatusNoBids    AuctionStatus = "NO_BIDS"
	AuctionStatusCancelled AuctionStatus = "CANCELLED"
)

// WindowPolicy bounds the length of an auction's bidding window. The values
// are configuration, not business law.
type WindowPolicy struct {
	MinBidWindow time.Duration
	MaxBidWindow time.Duration
}

type Auction struct {
	ID                     string        `bson:"_id,omitempty"`
	SellerID               string        `bson:"seller_id"`
	Name                   string        `bson:"name"`
	StartingPrice          float64       `bson:"starting_price"`
	CurrentHighestBid      float64       `bson:"current_highest_bid"`
	CurrentHighestBidderID string        `bson:"current_highest_bidder_id,omitempty"`
	BidStartTime           time.Time     `bson:"bid_start_time"`
	BidEndTime             time.Time     `bson:"bid_end_time"`
	Status                 AuctionStatus `bson:"status"`
	CreatedAt              time.Time     `bson:"created_at"`
	UpdatedAt              time.Time     `bson:"updated_at"`
	Version                int           `bson:"version"`
}

func NewAuction(sellerID, name string, startingPrice float64, bidStart, bidEnd time.Time, policy WindowPolicy) (*Auction, error) {
	if sellerID == "" {
		return nil, errors.New("seller ID cannot be empty")
	}
	if name == "" {
		return nil, errors.New("auction name cannot be empty")
	}
	if startingPrice < 0 {
		return nil, errors.New("starting price cannot be negative")
	}
	if !bidEnd.After(bidStart) {
		return nil, errors.New("bid end time must be after bid start time")
	}
	window := bidEnd.Sub(bidStart)
	if policy.MinBidWindow > 0 && window < policy.MinBidWindow {
		return nil, fmt.Errorf("bidding window %s is shorter than the allowed minimum %s", window, policy.MinBidWindow)
	}
	if policy.MaxBidWindow > 0 && window > policy.MaxBidWindow {
		return nil, fmt.Errorf("bidding window %s is longer than the allowed maximum %s", window, policy.MaxBidWindow)
	}

	now := time.Now().UTC()
	return &Auction{
		SellerID:          sellerID,
		Name:              name,
		StartingPrice:     startingPrice,
		CurrentHighestBid: startingPrice,
		BidStartTime:      bidStart.UTC(),
		BidEndTime:        bidEnd.UTC(),
		Status:            AuctionStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
		Version:           1,
	}, nil
}

// HasBids reports whether at least one bid has been accepted. The highest
// bidder is set iff a bid exists.
func (a *Auction) HasBids() bool {
	return a.CurrentHighestBidderID != ""
}

// InWindow reports whether now falls inside the half-open interval
// [BidStartTime, BidEndTime).
func (a *Auction) InWindow(now time.Time) bool {
	return !now.Before(a.BidStartTime) && now.Before(a.BidEndTime)
}

func (a *Auction) Ended(now time.Time) bool {
	return now.After(a.BidEndTime)
}

func (a *Auction) TimeRemaining(now time.Time) time.Duration {
	if !now.Before(a.BidEndTime) {
		return 0
	}
	return a.BidEndTime.Sub(now)
}

func (a *Auction) IsFinalized() bool {
	return a.Status == AuctionStatusSold || a.Status == AuctionStatusNoBids
}

// RegisterHighestBid applies an accepted bid to the in-memory auction. The
// durable update goes through the repository's version-conditioned write.
func (a *Auction) RegisterHighestBid(amount float64, bidderID string, now time.Time) {
	a.CurrentHighestBid = amount
	a.CurrentHighestBidderID = bidderID
	a.UpdatedAt = now
	a.Version++
}

func (a *Auction) MarkSold() error {
	if a.Status != AuctionStatusApproved {
		return fmt.Errorf("cannot mark auction %s as sold from status %s", a.ID, a.Status)
	}
	if !a.HasBids() {
		return fmt.Errorf("cannot mark auction %s as sold without bids", a.ID)
	}
	a.Status = AuctionStatusSold
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (a *Auction) MarkNoBids() error {
	if a.Status != AuctionStatusApproved {
		return fmt.Errorf("cannot mark auction %s as no-bids from status %s", a.ID, a.Status)
	}
	if a.HasBids() {
		return fmt.Errorf("cannot mark auction %s as no-bids: bids exist", a.ID)
	}
	a.Status = AuctionStatusNoBids
	a.UpdatedAt = time.Now().UTC()
	return nil
}
