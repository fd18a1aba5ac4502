package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agromarket/auction-service/internal/adapter/nats"
	"github.com/agromarket/auction-service/internal/domain/entity"
	"github.com/agromarket/auction-service/internal/platform/clock"
	"github.com/agromarket/auction-service/internal/platform/logger"
	"github.com/agromarket/auction-service/internal/platform/metrics"
	"github.com/agromarket/auction-service/internal/repository"
	"github.com/google/uuid"
)

type BidService interface {
	// PlaceBid validates and executes a single bid attempt. amount must be
	// present for manual bidding and absent for automatic bidding.
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount *float64) (*PlaceBidResult, error)
}

type PlaceBidResult struct {
	Message string
	Bid     *entity.Bid
}

type BidServiceConfig struct {
	// MinIncrement is the smallest amount a new bid must exceed the current
	// highest bid by.
	MinIncrement float64
	// MaxRetries bounds the optimistic-concurrency retry loop.
	MaxRetries int
}

type bidService struct {
	auctionRepo  repository.AuctionRepository
	bidRepo      repository.BidRepository
	modeRepo     repository.BidModeRepository
	tx           repository.TxRunner
	viewCache    AuctionViewCache
	msgPublisher nats.MessagePublisher
	clk          clock.Clock
	metrics      *metrics.Manager
	log          logger.Logger
	cfg          BidServiceConfig
}

func NewBidService(
	auctionRepo repository.AuctionRepository,
	bidRepo repository.BidRepository,
	modeRepo repository.BidModeRepository,
	tx repository.TxRunner,
	viewCache AuctionViewCache,
	msgPublisher nats.MessagePublisher,
	clk clock.Clock,
	m *metrics.Manager,
	log logger.Logger,
	cfg BidServiceConfig,
) BidService {
	if cfg.MinIncrement <= 0 {
		cfg.MinIncrement = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &bidService{
		auctionRepo:  auctionRepo,
		bidRepo:      bidRepo,
		modeRepo:     modeRepo,
		tx:           tx,
		viewCache:    viewCache,
		msgPublisher: msgPublisher,
		clk:          clk,
		metrics:      m,
		log:          log,
		cfg:          cfg,
	}
}

func (s *bidService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount *float64) (*PlaceBidResult, error) {
	s.log.Infof("Placing bid on auction %s by bidder %s", auctionID, bidderID)

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		result, err := s.tryPlaceBid(ctx, auctionID, bidderID, amount)
		if errors.Is(err, repository.ErrOptimisticLock) {
			s.metrics.BidConflictRetriesTotal.Inc()
			s.log.Warnf("Concurrent update on auction %s, retrying bid by %s (attempt %d)", auctionID, bidderID, attempt+1)
			continue
		}
		if err != nil {
			s.metrics.BidsRejectedTotal.WithLabelValues(rejectionReason(err)).Inc()
			return nil, err
		}
		return result, nil
	}

	s.metrics.BidsRejectedTotal.WithLabelValues("contention").Inc()
	return nil, fmt.Errorf("%w: auction %s is receiving too many concurrent bids", entity.ErrContention, auctionID)
}

// tryPlaceBid runs one full validation-and-write pass against a fresh read
// of the auction. A repository.ErrOptimisticLock return means the auction
// moved underneath us and the caller should retry.
func (s *bidService) tryPlaceBid(ctx context.Context, auctionID, bidderID string, amount *float64) (*PlaceBidResult, error) {
	auction, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: auction %s", entity.ErrAuctionNotFound, auctionID)
		}
		return nil, fmt.Errorf("failed to load auction %s: %w", auctionID, err)
	}

	if auction.Status != entity.AuctionStatusApproved {
		return nil, fmt.Errorf("%w: auction %s is in status %s", entity.ErrNotBiddable, auctionID, auction.Status)
	}

	// The window is half-open: a bid exactly at the start instant is valid,
	// a bid exactly at the end instant is not.
	now := s.clk.Now()
	if now.Before(auction.BidStartTime) {
		return nil, fmt.Errorf("%w: it starts in %s", entity.ErrTooEarly, humanDuration(auction.BidStartTime.Sub(now)))
	}
	if !now.Before(auction.BidEndTime) {
		return nil, fmt.Errorf("%w: it ended %s ago", entity.ErrTooLate, humanDuration(now.Sub(auction.BidEndTime)))
	}

	mode, actualAmount, incrementForRecord, err := s.resolveAmount(ctx, auction, bidderID, amount)
	if err != nil {
		return nil, err
	}

	if auction.HasBids() && auction.CurrentHighestBidderID == bidderID {
		return nil, fmt.Errorf("%w: bidder %s", entity.ErrAlreadyHighestBidder, bidderID)
	}

	minimum := auction.StartingPrice
	if auction.HasBids() {
		minimum = auction.CurrentHighestBid + s.cfg.MinIncrement
	}
	if actualAmount < minimum {
		return nil, fmt.Errorf("%w: bid amount must be at least %v", entity.ErrBidTooLow, minimum)
	}
	if actualAmount < auction.StartingPrice {
		return nil, fmt.Errorf("%w: bid amount must be at least the starting price of %v", entity.ErrBidTooLow, auction.StartingPrice)
	}

	var previousAmount *float64
	if auction.HasBids() {
		prev := auction.CurrentHighestBid
		previousAmount = &prev
	}

	// Insert the bid, demote the previous winner and move the auction's
	// highest-bid pointer as one unit. The pointer update is conditioned on
	// the version the auction was read with; a mismatch aborts the whole
	// transaction before any bid document lands.
	var bid *entity.Bid
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.auctionRepo.UpdateHighestBid(txCtx, repository.UpdateHighestBidParams{
			AuctionID:       auctionID,
			Amount:          actualAmount,
			BidderID:        bidderID,
			ExpectedVersion: auction.Version,
		}); err != nil {
			return err
		}

		created, err := s.bidRepo.Create(txCtx, repository.CreateBidParams{
			AuctionID:       auctionID,
			BidderID:        bidderID,
			Amount:          actualAmount,
			PreviousAmount:  previousAmount,
			IncrementAmount: incrementForRecord,
			Mode:            mode,
			BidTime:         now,
		})
		if err != nil {
			return err
		}
		bid = created

		if auction.HasBids() {
			return s.bidRepo.ClearWinning(txCtx, auctionID, created.ID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrOptimisticLock) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record bid on auction %s: %w", auctionID, err)
	}

	auction.RegisterHighestBid(actualAmount, bidderID, now)
	s.afterAccepted(ctx, auction, bid, previousAmount)

	s.metrics.BidsPlacedTotal.WithLabelValues(strings.ToLower(string(mode))).Inc()
	s.log.Infof("Bid %s accepted on auction %s: amount %v by %s (%s)", bid.ID, auctionID, actualAmount, bidderID, mode)

	return &PlaceBidResult{
		Message: fmt.Sprintf("Bid placed successfully using %s bidding", strings.ToLower(string(mode))),
		Bid:     bid,
	}, nil
}

// resolveAmount picks the manual or automatic path and computes the amount
// the bid will be placed at.
func (s *bidService) resolveAmount(ctx context.Context, auction *entity.Auction, bidderID string, amount *float64) (entity.BidMode, float64, *float64, error) {
	setting, err := s.modeRepo.Find(ctx, bidderID, auction.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", 0, nil, fmt.Errorf("failed to resolve bid mode for bidder %s: %w", bidderID, err)
	}

	// Absence of a setting means manual bidding.
	mode := entity.BidModeManual
	if setting != nil {
		mode = setting.Mode
	}

	switch mode {
	case entity.BidModeManual:
		if amount == nil {
			return "", 0, nil, fmt.Errorf("%w: bid amount is required for manual bidding", entity.ErrInvalidInput)
		}
		if *amount <= 0 {
			return "", 0, nil, fmt.Errorf("%w: bid amount must be positive", entity.ErrInvalidInput)
		}
		return entity.BidModeManual, *amount, nil, nil

	case entity.BidModeAuto:
		if amount != nil {
			return "", 0, nil, fmt.Errorf("%w: bid amount must not be provided for automatic bidding", entity.ErrInvalidInput)
		}
		increment, ok := setting.Increment()
		if !ok {
			return "", 0, nil, fmt.Errorf("%w: bidder %s on auction %s", entity.ErrMisconfiguredAutoBid, bidderID, auction.ID)
		}
		return entity.BidModeAuto, auction.CurrentHighestBid + increment, &increment, nil

	default:
		return "", 0, nil, fmt.Errorf("%w: unknown bid mode %q", entity.ErrInvalidInput, mode)
	}
}

// afterAccepted handles the best-effort side effects of an accepted bid;
// failures here never fail the placement.
func (s *bidService) afterAccepted(ctx context.Context, auction *entity.Auction, bid *entity.Bid, previousAmount *float64) {
	if err := s.viewCache.Delete(ctx, auction.ID); err != nil {
		s.log.Warnf("Failed to invalidate view cache for auction %s: %v", auction.ID, err)
	}

	event := BidPlacedEvent{
		EventID:        uuid.New().String(),
		AuctionID:      auction.ID,
		BidID:          bid.ID,
		BidderID:       bid.BidderID,
		Amount:         bid.Amount,
		PreviousAmount: previousAmount,
		Mode:           string(bid.Mode),
		BidTime:        bid.BidTime,
	}
	if err := s.msgPublisher.Publish(ctx, BidPlacedSubject(auction.ID), event); err != nil {
		s.log.Warnf("Failed to publish bid placed event for auction %s: %v", auction.ID, err)
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, entity.ErrAuctionNotFound):
		return "not_found"
	case errors.Is(err, entity.ErrNotBiddable):
		return "not_biddable"
	case errors.Is(err, entity.ErrTooEarly):
		return "too_early"
	case errors.Is(err, entity.ErrTooLate):
		return "too_late"
	case errors.Is(err, entity.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, entity.ErrMisconfiguredAutoBid):
		return "misconfigured_auto_bid"
	case errors.Is(err, entity.ErrAlreadyHighestBidder):
		return "already_highest_bidder"
	case errors.Is(err, entity.ErrBidTooLow):
		return "bid_too_low"
	case errors.Is(err, entity.ErrContention):
		return "contention"
	default:
		return "internal"
	}
}
