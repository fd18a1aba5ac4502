package entity

import (
	"fmt"
	"time"
)

// BidModeSetting holds a bidder's standing bidding rule for one auction.
// Mode and AutoIncrement form a tagged variant: the increment is present iff
// the mode is Auto. Switching to Manual clears any stored increment.
type BidModeSetting struct {
	ID            string    `bson:"_id,omitempty"`
	BidderID      string    `bson:"bidder_id"`
	AuctionID     string    `bson:"auction_id"`
	Mode          BidMode   `bson:"bid_mode"`
	AutoIncrement *float64  `bson:"auto_increment_amount,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func NewBidModeSetting(bidderID, auctionID string, mode BidMode, autoIncrement *float64) (*BidModeSetting, error) {
	if bidderID == "" {
		return nil, fmt.Errorf("%w: bidder ID cannot be empty", ErrInvalidInput)
	}
	if auctionID == "" {
		return nil, fmt.Errorf("%w: auction ID cannot be empty", ErrInvalidInput)
	}

	switch mode {
	case BidModeAuto:
		if autoIncrement == nil || *autoIncrement <= 0 {
			return nil, fmt.Errorf("%w: auto increment amount must be greater than 0 for automatic bidding", ErrInvalidInput)
		}
	case BidModeManual:
		if autoIncrement != nil {
			return nil, fmt.Errorf("%w: auto increment amount must not be provided for manual bidding", ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: unknown bid mode %q", ErrInvalidInput, mode)
	}

	now := time.Now().UTC()
	return &BidModeSetting{
		BidderID:      bidderID,
		AuctionID:     auctionID,
		Mode:          mode,
		AutoIncrement: autoIncrement,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Increment returns the configured auto increment, if the setting is in auto
// mode and carries one.
func (s *BidModeSetting) Increment() (float64, bool) {
	if s.Mode != BidModeAuto || s.AutoIncrement == nil || *s.AutoIncrement <= 0 {
		return 0, false
	}
	return *s.AutoIncrement, true
}
