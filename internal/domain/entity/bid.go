package entity

import "time"

type BidMode string

const (
	BidModeManual BidMode = "MANUAL"
	BidModeAuto   BidMode = "AUTO"
)

type BidStatus string

const (
	BidStatusActive BidStatus = "ACTIVE"
	BidStatusClosed BidStatus = "CLOSED"
)

type Bid struct {
	ID              string    `bson:"_id,omitempty"`
	AuctionID       string    `bson:"auction_id"`
	BidderID        string    `bson:"bidder_id"`
	Amount          float64   `bson:"amount"`
	PreviousAmount  *float64  `bson:"previous_amount,omitempty"`
	IncrementAmount *float64  `bson:"increment_amount,omitempty"`
	Mode            BidMode   `bson:"bid_mode"`
	BidTime         time.Time `bson:"bid_time"`
	IsWinning       bool      `bson:"is_winning_bid"`
	Status          BidStatus `bson:"status"`
}
