package service

import (
	"context"
	"time"

	"github.com/agromarket/auction-service/internal/domain/entity"
	"github.com/agromarket/auction-service/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockAuctionRepository struct {
	mock.Mock
}

func (m *MockAuctionRepository) Create(ctx context.Context, auction *entity.Auction) (string, error) {
	args := m.Called(ctx, auction)
	return args.String(0), args.Error(1)
}

func (m *MockAuctionRepository) GetByID(ctx context.Context, auctionID string) (*entity.Auction, error) {
	args := m.Called(ctx, auctionID)
	if auction, ok := args.Get(0).(*entity.Auction); ok {
		return auction, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuctionRepository) UpdateHighestBid(ctx context.Context, params repository.UpdateHighestBidParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockAuctionRepository) UpdateStatus(ctx context.Context, params repository.UpdateAuctionStatusParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockAuctionRepository) ListExpiredApproved(ctx context.Context, now time.Time) ([]entity.Auction, error) {
	args := m.Called(ctx, now)
	if auctions, ok := args.Get(0).([]entity.Auction); ok {
		return auctions, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockBidRepository struct {
	mock.Mock
}

func (m *MockBidRepository) Create(ctx context.Context, params repository.CreateBidParams) (*entity.Bid, error) {
	args := m.Called(ctx, params)
	if bid, ok := args.Get(0).(*entity.Bid); ok {
		return bid, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBidRepository) ListByAuction(ctx context.Context, auctionID string) ([]entity.Bid, error) {
	args := m.Called(ctx, auctionID)
	if bids, ok := args.Get(0).([]entity.Bid); ok {
		return bids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBidRepository) List(ctx context.Context, params repository.ListBidsParams) (*repository.ListBidsResult, error) {
	args := m.Called(ctx, params)
	if result, ok := args.Get(0).(*repository.ListBidsResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBidRepository) ClearWinning(ctx context.Context, auctionID, keepBidID string) error {
	args := m.Called(ctx, auctionID, keepBidID)
	return args.Error(0)
}

func (m *MockBidRepository) CloseLosing(ctx context.Context, auctionID string) error {
	args := m.Called(ctx, auctionID)
	return args.Error(0)
}

type MockBidModeRepository struct {
	mock.Mock
}

func (m *MockBidModeRepository) Upsert(ctx context.Context, setting *entity.BidModeSetting) (*entity.BidModeSetting, error) {
	args := m.Called(ctx, setting)
	if stored, ok := args.Get(0).(*entity.BidModeSetting); ok {
		return stored, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBidModeRepository) Find(ctx context.Context, bidderID, auctionID string) (*entity.BidModeSetting, error) {
	args := m.Called(ctx, bidderID, auctionID)
	if setting, ok := args.Get(0).(*entity.BidModeSetting); ok {
		return setting, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) GetNameByID(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// MockTxRunner executes the callback inline so repository expectations can be
// asserted directly.
type MockTxRunner struct {
	mock.Mock
}

func (m *MockTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockViewCache struct {
	mock.Mock
}

func (m *MockViewCache) Get(ctx context.Context, auctionID string) (*AuctionView, error) {
	args := m.Called(ctx, auctionID)
	if view, ok := args.Get(0).(*AuctionView); ok {
		return view, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockViewCache) Set(ctx context.Context, auctionID string, view *AuctionView, ttl time.Duration) error {
	args := m.Called(ctx, auctionID, view, ttl)
	return args.Error(0)
}

func (m *MockViewCache) Delete(ctx context.Context, auctionID string) error {
	args := m.Called(ctx, auctionID)
	return args.Error(0)
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, subject string, message interface{}) error {
	args := m.Called(ctx, subject, message)
	return args.Error(0)
}

func (m *MockMessagePublisher) PublishRaw(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

// fakeClock pins "now" for deterministic window checks.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}
