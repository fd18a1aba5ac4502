package service

import (
	"context"
	"testing"
	"time"

	"github.com/agromarket/auction-service/internal/domain/entity"
	"github.com/agromarket/auction-service/internal/platform/logger"
	"github.com/agromarket/auction-service/internal/platform/metrics"
	"github.com/agromarket/auction-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type finalizerFixture struct {
	auctionRepo *MockAuctionRepository
	bidRepo     *MockBidRepository
	tx          *MockTxRunner
	cache       *MockViewCache
	publisher   *MockMessagePublisher
	clk         *fakeClock
	svc         FinalizerService
}

func newFinalizerFixture(now time.Time) *finalizerFixture {
	f := &finalizerFixture{
		auctionRepo: new(MockAuctionRepository),
		bidRepo:     new(MockBidRepository),
		tx:          new(MockTxRunner),
		cache:       new(MockViewCache),
		publisher:   new(MockMessagePublisher),
		clk:         &fakeClock{now: now},
	}
	f.svc = NewFinalizerService(
		f.auctionRepo, f.bidRepo, f.tx, f.cache, f.publisher,
		f.clk, metrics.NewManager("test"), logger.NoOp(),
	)
	return f
}

func (f *finalizerFixture) expectSideEffects(auctionID string) {
	f.cache.On("Delete", mock.Anything, auctionID).Return(nil)
	f.publisher.On("Publish", mock.Anything, "auction.finalized", mock.Anything).Return(nil)
}

func expiredAuction(now time.Time) *entity.Auction {
	return &entity.Auction{
		ID:                "auction-1",
		SellerID:          "seller-1",
		Name:              "Vintage tractor",
		StartingPrice:     100,
		CurrentHighestBid: 100,
		BidStartTime:      now.Add(-3 * time.Hour),
		BidEndTime:        now.Add(-time.Hour),
		Status:            entity.AuctionStatusApproved,
		Version:           5,
	}
}

func TestFinalizeIfExpired_SoldWithBids(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFinalizerFixture(now)
	auction := expiredAuction(now)
	auction.CurrentHighestBid = 250
	auction.CurrentHighestBidderID = "bidder-9"

	f.auctionRepo.On("GetByID", mock.Anything, "auction-1").Return(auction, nil)
	f.tx.On("WithinTransaction", mock.Anything).Return(nil)
	f.auctionRepo.On("UpdateStatus", mock.Anything, repository.UpdateAuctionStatusParams{
		AuctionID:       "auction-1",
		Status:          entity.AuctionStatusSold,
		ExpectedVersion: 5,
	}).Return(nil)
	f.bidRepo.On("CloseLosing", mock.Anything, "auction-1").Return(nil)
	f.expectSideEffects("auction-1")

	result, err := f.svc.FinalizeIfExpired(context.Background(), "auction-1")

	require.NoError(t, err)
	assert.Equal(t, FinalizeOutcomeSold, result.Outcome)
	assert.Equal(t, "bidder-9", result.WinningBidderID)
	assert.Equal(t, 250.0, result.FinalPrice)
}

func TestFinalizeIfExpired_NoBids(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFinalizerFixture(now)
	auction := expiredAuction(now)

	f.auctionRepo.On("GetByID", mock.Anything, "auction-1").Return(auction, nil)
	f.tx.On("WithinTransaction", mock.Anything).Return(nil)
	f.auctionRepo.On("UpdateStatus", mock.Anything, repository.UpdateAuctionStatusParams{
		AuctionID:       "auction-1",
		Status:          entity.AuctionStatusNoBids,
		ExpectedVersion: 5,
	}).Return(nil)
	f.expectSideEffects("auction-1")

	result, err := f.svc.FinalizeIfExpired(context.Background(), "auction-1")

	require.NoError(t, err)
	assert.Equal(t, FinalizeOutcomeNoBids, result.Outcome)
	assert.Empty(t, result.WinningBidderID)
	f.bidRepo.AssertNotCalled(t, "CloseLosing", mock.Anything, mock.Anything)
}

func TestFinalizeIfExpired_StillOpen(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFinalizerFixture(now)
	auction := expiredAuction(now)
	auction.BidEndTime = now.Add(time.Hour)

	f.auctionRepo.On("GetByID", mock.Anything, "auction-1").Return(auction, nil)

	_, err := f.svc.FinalizeIfExpired(context.Background(), "auction-1")

	assert.ErrorIs(t, err, entity.ErrTooEarly)
	f.tx.AssertNotCalled(t, "WithinTransaction", mock.Anything)
}

func TestFinalizeIfExpired_AlreadyFinalizedIsNoOp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFinalizerFixture(now)
	auction := expiredAuction(now)
	auction.Status = entity.AuctionStatusSold
	auction.CurrentHighestBid = 300
	auction.CurrentHighestBidderID = "bidder-9"

	f.auctionRepo.On("GetByID", mock.Anything, "auction-1").Return(auction, nil)

	result, err := f.svc.FinalizeIfExpired(context.Background(), "auction-1")

	require.NoError(t, err)
	assert.Equal(t, FinalizeOutcomeAlreadyFinalized, result.Outcome)
	assert.Equal(t, "bidder-9", result.WinningBidderID)
	f.tx.AssertNotCalled(t, "WithinTransaction", mock.Anything)
}

func TestFinalizeIfExpired_NotApproved(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFinalizerFixture(now)
	auction := expiredAuction(now)
	auction.Status = entity.AuctionStatusCancelled

	f.auctionRepo.On("GetByID", mock.Anything, "auction-1").Return(auction, nil)

	_, err := f.svc.FinalizeIfExpired(context.Background(), "auction-1")

	assert.ErrorIs(t, err, entity.ErrNotBiddable)
}

func TestFinalizeIfExpired_ConflictResolvedByReRead(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFinalizerFixture(now)
	auction := expiredAuction(now)
	settled := expiredAuction(now)
	settled.Status = entity.AuctionStatusNoBids

	f.auctionRepo.On("GetByID", mock.Anything, "auction-1").Return(auction, nil).Once()
	f.tx.On("WithinTransaction", mock.Anything).Return(nil)
	f.auctionRepo.On("UpdateStatus", mock.Anything, mock.Anything).Return(repository.ErrOptimisticLock)
	f.auctionRepo.On("GetByID", mock.Anything, "auction-1").Return(settled, nil).Once()

	result, err := f.svc.FinalizeIfExpired(context.Background(), "auction-1")

	require.NoError(t, err)
	assert.Equal(t, FinalizeOutcomeAlreadyFinalized, result.Outcome)
}

func TestFinalizeIfExpired_ConflictFromLateBid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFinalizerFixture(now)
	auction := expiredAuction(now)
	bumped := expiredAuction(now)
	bumped.Version = 6

	f.auctionRepo.On("GetByID", mock.Anything, "auction-1").Return(auction, nil).Once()
	f.tx.On("WithinTransaction", mock.Anything).Return(nil)
	f.auctionRepo.On("UpdateStatus", mock.Anything, mock.Anything).Return(repository.ErrOptimisticLock)
	f.auctionRepo.On("GetByID", mock.Anything, "auction-1").Return(bumped, nil).Once()

	_, err := f.svc.FinalizeIfExpired(context.Background(), "auction-1")

	assert.ErrorIs(t, err, entity.ErrContention)
}

func TestFinalizeExpiredAuctions_OneFailureDoesNotAbortSweep(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFinalizerFixture(now)

	healthy := expiredAuction(now)
	broken := expiredAuction(now)
	broken.ID = "auction-2"

	f.auctionRepo.On("ListExpiredApproved", mock.Anything, now).Return([]entity.Auction{*broken, *healthy}, nil)
	f.tx.On("WithinTransaction", mock.Anything).Return(nil)
	f.auctionRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(p repository.UpdateAuctionStatusParams) bool {
		return p.AuctionID == "auction-2"
	})).Return(repository.ErrUpdateFailed)
	f.auctionRepo.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(p repository.UpdateAuctionStatusParams) bool {
		return p.AuctionID == "auction-1"
	})).Return(nil)
	f.expectSideEffects("auction-1")

	sweep, err := f.svc.FinalizeExpiredAuctions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, sweep.ProcessedCount)
	assert.Equal(t, 1, sweep.FailedCount)
	require.Len(t, sweep.Failures, 1)
	assert.Equal(t, "auction-2", sweep.Failures[0].AuctionID)
	require.Len(t, sweep.Results, 1)
	assert.Equal(t, "auction-1", sweep.Results[0].AuctionID)
	assert.Equal(t, FinalizeOutcomeNoBids, sweep.Results[0].Outcome)
}
