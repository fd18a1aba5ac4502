package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuction_Valid(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	auction, err := NewAuction("seller-1", "Vintage tractor", 100, start, end, WindowPolicy{
		MinBidWindow: 30 * time.Minute,
		MaxBidWindow: 2 * time.Hour,
	})

	require.NoError(t, err)
	assert.Equal(t, AuctionStatusPending, auction.Status)
	assert.Equal(t, 100.0, auction.CurrentHighestBid)
	assert.Empty(t, auction.CurrentHighestBidderID)
	assert.Equal(t, 1, auction.Version)
	assert.False(t, auction.HasBids())
}

func TestNewAuction_WindowPolicy(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := WindowPolicy{MinBidWindow: 30 * time.Minute, MaxBidWindow: 2 * time.Hour}

	_, err := NewAuction("seller-1", "Item", 100, start, start.Add(10*time.Minute), policy)
	assert.Error(t, err)

	_, err = NewAuction("seller-1", "Item", 100, start, start.Add(3*time.Hour), policy)
	assert.Error(t, err)

	_, err = NewAuction("seller-1", "Item", 100, start, start.Add(30*time.Minute), policy)
	assert.NoError(t, err)

	_, err = NewAuction("seller-1", "Item", 100, start.Add(time.Hour), start, policy)
	assert.Error(t, err)
}

func TestNewAuction_Invalid(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	_, err := NewAuction("", "Item", 100, start, end, WindowPolicy{})
	assert.Error(t, err)

	_, err = NewAuction("seller-1", "", 100, start, end, WindowPolicy{})
	assert.Error(t, err)

	_, err = NewAuction("seller-1", "Item", -1, start, end, WindowPolicy{})
	assert.Error(t, err)
}

func TestAuction_InWindowBoundaries(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	auction := &Auction{BidStartTime: start, BidEndTime: end}

	assert.False(t, auction.InWindow(start.Add(-time.Second)))
	assert.True(t, auction.InWindow(start))
	assert.True(t, auction.InWindow(end.Add(-time.Second)))
	assert.False(t, auction.InWindow(end))
	assert.False(t, auction.InWindow(end.Add(time.Second)))
}

func TestAuction_RegisterHighestBid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	auction := &Auction{CurrentHighestBid: 100, Version: 3}

	auction.RegisterHighestBid(150, "bidder-1", now)

	assert.Equal(t, 150.0, auction.CurrentHighestBid)
	assert.Equal(t, "bidder-1", auction.CurrentHighestBidderID)
	assert.Equal(t, 4, auction.Version)
	assert.True(t, auction.HasBids())
}

func TestAuction_MarkSold(t *testing.T) {
	auction := &Auction{ID: "a1", Status: AuctionStatusApproved, CurrentHighestBidderID: "bidder-1"}
	require.NoError(t, auction.MarkSold())
	assert.Equal(t, AuctionStatusSold, auction.Status)
	assert.True(t, auction.IsFinalized())

	noBids := &Auction{ID: "a2", Status: AuctionStatusApproved}
	assert.Error(t, noBids.MarkSold())

	pending := &Auction{ID: "a3", Status: AuctionStatusPending, CurrentHighestBidderID: "bidder-1"}
	assert.Error(t, pending.MarkSold())
}

func TestAuction_MarkNoBids(t *testing.T) {
	auction := &Auction{ID: "a1", Status: AuctionStatusApproved}
	require.NoError(t, auction.MarkNoBids())
	assert.Equal(t, AuctionStatusNoBids, auction.Status)

	withBids := &Auction{ID: "a2", Status: AuctionStatusApproved, CurrentHighestBidderID: "bidder-1"}
	assert.Error(t, withBids.MarkNoBids())
}

func TestAuction_TimeRemaining(t *testing.T) {
	end := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	auction := &Auction{BidEndTime: end}

	assert.Equal(t, time.Hour, auction.TimeRemaining(end.Add(-time.Hour)))
	assert.Equal(t, time.Duration(0), auction.TimeRemaining(end))
	assert.Equal(t, time.Duration(0), auction.TimeRemaining(end.Add(time.Minute)))
}
