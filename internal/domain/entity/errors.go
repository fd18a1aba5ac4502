package entity

import "errors"

var (
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrNotBiddable          = errors.New("auction is not open for bidding")
	ErrTooEarly             = errors.New("auction has not started yet")
	ErrTooLate              = errors.New("auction has already ended")
	ErrInvalidInput         = errors.New("invalid input")
	ErrMisconfiguredAutoBid = errors.New("auto increment amount not configured for automatic bidding")
	ErrAlreadyHighestBidder = errors.New("bidder already holds the highest bid")
	ErrBidTooLow            = errors.New("bid amount below the minimum acceptable bid")
	ErrContention           = errors.New("bid rejected due to concurrent updates")
)
