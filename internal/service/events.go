package service

import "time"

const (
	bidPlacedSubjectPrefix  = "auction.bid.placed."
	subjectAuctionFinalized = "auction.finalized"

	// SubjectBidPlacedWildcard matches bid events for every auction.
	SubjectBidPlacedWildcard = "auction.bid.placed.*"
)

// BidPlacedSubject returns the per-auction subject bid events are published
// on; live-feed subscribers filter by it.
func BidPlacedSubject(auctionID string) string {
	return bidPlacedSubjectPrefix + auctionID
}

// AuctionIDFromBidSubject extracts the auction ID from a bid event subject.
func AuctionIDFromBidSubject(subject string) string {
	if len(subject) <= len(bidPlacedSubjectPrefix) {
		return ""
	}
	return subject[len(bidPlacedSubjectPrefix):]
}

type BidPlacedEvent struct {
	EventID        string    `json:"event_id"`
	AuctionID      string    `json:"auction_id"`
	BidID          string    `json:"bid_id"`
	BidderID       string    `json:"bidder_id"`
	Amount         float64   `json:"amount"`
	PreviousAmount *float64  `json:"previous_amount,omitempty"`
	Mode           string    `json:"bid_mode"`
	BidTime        time.Time `json:"bid_time"`
}

type AuctionFinalizedEvent struct {
	EventID         string    `json:"event_id"`
	AuctionID       string    `json:"auction_id"`
	Outcome         string    `json:"outcome"`
	WinningBidderID string    `json:"winning_bidder_id,omitempty"`
	FinalPrice      float64   `json:"final_price"`
	FinalizedAt     time.Time `json:"finalized_at"`
}
