package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/agromarket/auction-service/internal/domain/entity"
	"github.com/agromarket/auction-service/internal/platform/logger"
	"github.com/agromarket/auction-service/internal/repository"
)

type BidModeService interface {
	// SetBidMode upserts the bidder's standing rule for the auction.
	// autoIncrement is required for auto mode and must be absent for manual.
	SetBidMode(ctx context.Context, bidderID, auctionID string, mode entity.BidMode, autoIncrement *float64) (*BidModeResult, error)
	// GetBidMode returns the stored setting, or a nil setting when none
	// exists; absence means the bidder defaults to manual bidding.
	GetBidMode(ctx context.Context, bidderID, auctionID string) (*BidModeResult, error)
}

type BidModeResult struct {
	Message string
	Setting *entity.BidModeSetting
}

type bidModeService struct {
	modeRepo    repository.BidModeRepository
	auctionRepo repository.AuctionRepository
	log         logger.Logger
}

func NewBidModeService(modeRepo repository.BidModeRepository, auctionRepo repository.AuctionRepository, log logger.Logger) BidModeService {
	return &bidModeService{
		modeRepo:    modeRepo,
		auctionRepo: auctionRepo,
		log:         log,
	}
}

func (s *bidModeService) SetBidMode(ctx context.Context, bidderID, auctionID string, mode entity.BidMode, autoIncrement *float64) (*BidModeResult, error) {
	s.log.Infof("Setting bid mode %s for bidder %s on auction %s", mode, bidderID, auctionID)

	if _, err := s.auctionRepo.GetByID(ctx, auctionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: auction %s", entity.ErrAuctionNotFound, auctionID)
		}
		return nil, fmt.Errorf("failed to load auction %s: %w", auctionID, err)
	}

	setting, err := entity.NewBidModeSetting(bidderID, auctionID, mode, autoIncrement)
	if err != nil {
		return nil, err
	}

	stored, err := s.modeRepo.Upsert(ctx, setting)
	if err != nil {
		return nil, fmt.Errorf("failed to store bid mode for bidder %s on auction %s: %w", bidderID, auctionID, err)
	}

	return &BidModeResult{
		Message: "Bid mode set successfully",
		Setting: stored,
	}, nil
}

func (s *bidModeService) GetBidMode(ctx context.Context, bidderID, auctionID string) (*BidModeResult, error) {
	setting, err := s.modeRepo.Find(ctx, bidderID, auctionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &BidModeResult{
				Message: "No bid mode set for this auction. Defaulting to manual bidding.",
				Setting: nil,
			}, nil
		}
		return nil, fmt.Errorf("failed to load bid mode for bidder %s on auction %s: %w", bidderID, auctionID, err)
	}

	return &BidModeResult{
		Message: "Bid mode retrieved successfully",
		Setting: setting,
	}, nil
}
