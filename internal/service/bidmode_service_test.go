package service

import (
	"context"
	"testing"

	"github.com/agromarket/auction-service/internal/domain/entity"
	"github.com/agromarket/auction-service/internal/platform/logger"
	"github.com/agromarket/auction-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func bidModeFixture() (*MockBidModeRepository, *MockAuctionRepository, BidModeService) {
	modeRepo := new(MockBidModeRepository)
	auctionRepo := new(MockAuctionRepository)
	svc := NewBidModeService(modeRepo, auctionRepo, logger.NoOp())
	return modeRepo, auctionRepo, svc
}

func TestSetBidMode_AutoRequiresIncrement(t *testing.T) {
	modeRepo, auctionRepo, svc := bidModeFixture()
	auctionRepo.On("GetByID", mock.Anything, "auction-1").Return(&entity.Auction{ID: "auction-1"}, nil)

	_, err := svc.SetBidMode(context.Background(), "bidder-1", "auction-1", entity.BidModeAuto, nil)

	assert.ErrorIs(t, err, entity.ErrInvalidInput)
	modeRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSetBidMode_ManualRejectsIncrement(t *testing.T) {
	_, auctionRepo, svc := bidModeFixture()
	auctionRepo.On("GetByID", mock.Anything, "auction-1").Return(&entity.Auction{ID: "auction-1"}, nil)

	_, err := svc.SetBidMode(context.Background(), "bidder-1", "auction-1", entity.BidModeManual, float64Ptr(10))

	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestSetBidMode_AutoStoresIncrement(t *testing.T) {
	modeRepo, auctionRepo, svc := bidModeFixture()
	auctionRepo.On("GetByID", mock.Anything, "auction-1").Return(&entity.Auction{ID: "auction-1"}, nil)
	modeRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *entity.BidModeSetting) bool {
		return s.Mode == entity.BidModeAuto && s.AutoIncrement != nil && *s.AutoIncrement == 25
	})).Return(&entity.BidModeSetting{
		ID:            "mode-1",
		BidderID:      "bidder-1",
		AuctionID:     "auction-1",
		Mode:          entity.BidModeAuto,
		AutoIncrement: float64Ptr(25),
	}, nil)

	result, err := svc.SetBidMode(context.Background(), "bidder-1", "auction-1", entity.BidModeAuto, float64Ptr(25))

	require.NoError(t, err)
	assert.Equal(t, "Bid mode set successfully", result.Message)
	increment, ok := result.Setting.Increment()
	require.True(t, ok)
	assert.Equal(t, 25.0, increment)
}

func TestSetBidMode_UnknownAuction(t *testing.T) {
	_, auctionRepo, svc := bidModeFixture()
	auctionRepo.On("GetByID", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	_, err := svc.SetBidMode(context.Background(), "bidder-1", "missing", entity.BidModeManual, nil)

	assert.ErrorIs(t, err, entity.ErrAuctionNotFound)
}

func TestGetBidMode_AbsenceDefaultsToManual(t *testing.T) {
	modeRepo, _, svc := bidModeFixture()
	modeRepo.On("Find", mock.Anything, "bidder-1", "auction-1").Return(nil, repository.ErrNotFound)

	result, err := svc.GetBidMode(context.Background(), "bidder-1", "auction-1")

	require.NoError(t, err)
	assert.Nil(t, result.Setting)
	assert.Equal(t, "No bid mode set for this auction. Defaulting to manual bidding.", result.Message)
}

func TestGetBidMode_ReturnsStoredSetting(t *testing.T) {
	modeRepo, _, svc := bidModeFixture()
	modeRepo.On("Find", mock.Anything, "bidder-1", "auction-1").Return(&entity.BidModeSetting{
		BidderID:      "bidder-1",
		AuctionID:     "auction-1",
		Mode:          entity.BidModeAuto,
		AutoIncrement: float64Ptr(5),
	}, nil)

	result, err := svc.GetBidMode(context.Background(), "bidder-1", "auction-1")

	require.NoError(t, err)
	require.NotNil(t, result.Setting)
	assert.Equal(t, entity.BidModeAuto, result.Setting.Mode)
}
