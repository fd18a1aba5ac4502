package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agromarket/auction-service/internal/adapter/nats"
	"github.com/agromarket/auction-service/internal/domain/entity"
	"github.com/agromarket/auction-service/internal/platform/clock"
	"github.com/agromarket/auction-service/internal/platform/logger"
	"github.com/agromarket/auction-service/internal/platform/metrics"
	"github.com/agromarket/auction-service/internal/repository"
	"github.com/google/uuid"
)

type FinalizeOutcome string

const (
	FinalizeOutcomeSold             FinalizeOutcome = "SOLD"
	FinalizeOutcomeNoBids           FinalizeOutcome = "NO_BIDS"
	FinalizeOutcomeAlreadyFinalized FinalizeOutcome = "ALREADY_FINALIZED"
)

type FinalizeResult struct {
	AuctionID       string          `json:"auction_id"`
	Outcome         FinalizeOutcome `json:"outcome"`
	WinningBidderID string          `json:"winning_bidder_id,omitempty"`
	FinalPrice      float64         `json:"final_price,omitempty"`
}

type SweepFailure struct {
	AuctionID string `json:"auction_id"`
	Error     string `json:"error"`
}

type SweepResult struct {
	ProcessedCount int              `json:"processed_count"`
	FailedCount    int              `json:"failed_count"`
	Results        []FinalizeResult `json:"results,omitempty"`
	Failures       []SweepFailure   `json:"failures,omitempty"`
}

// FinalizerService settles auctions whose bidding window has closed.
type FinalizerService interface {
	// FinalizeIfExpired settles one auction. Calling it on an already
	// finalized auction is a no-op reporting the settled outcome.
	FinalizeIfExpired(ctx context.Context, auctionID string) (*FinalizeResult, error)
	// FinalizeExpiredAuctions sweeps every approved auction whose window has
	// closed. One auction failing never aborts the rest of the batch.
	FinalizeExpiredAuctions(ctx context.Context) (*SweepResult, error)
}

type finalizerService struct {
	auctionRepo  repository.AuctionRepository
	bidRepo      repository.BidRepository
	tx           repository.TxRunner
	viewCache    AuctionViewCache
	msgPublisher nats.MessagePublisher
	clk          clock.Clock
	metrics      *metrics.Manager
	log          logger.Logger
}

func NewFinalizerService(
	auctionRepo repository.AuctionRepository,
	bidRepo repository.BidRepository,
	tx repository.TxRunner,
	viewCache AuctionViewCache,
	msgPublisher nats.MessagePublisher,
	clk clock.Clock,
	m *metrics.Manager,
	log logger.Logger,
) FinalizerService {
	return &finalizerService{
		auctionRepo:  auctionRepo,
		bidRepo:      bidRepo,
		tx:           tx,
		viewCache:    viewCache,
		msgPublisher: msgPublisher,
		clk:          clk,
		metrics:      m,
		log:          log,
	}
}

func (s *finalizerService) FinalizeIfExpired(ctx context.Context, auctionID string) (*FinalizeResult, error) {
	auction, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: auction %s", entity.ErrAuctionNotFound, auctionID)
		}
		return nil, fmt.Errorf("failed to load auction %s: %w", auctionID, err)
	}
	return s.finalize(ctx, auction)
}

func (s *finalizerService) finalize(ctx context.Context, auction *entity.Auction) (*FinalizeResult, error) {
	if auction.IsFinalized() {
		return &FinalizeResult{
			AuctionID:       auction.ID,
			Outcome:         FinalizeOutcomeAlreadyFinalized,
			WinningBidderID: auction.CurrentHighestBidderID,
			FinalPrice:      auction.CurrentHighestBid,
		}, nil
	}
	if auction.Status != entity.AuctionStatusApproved {
		return nil, fmt.Errorf("%w: auction %s is in status %s", entity.ErrNotBiddable, auction.ID, auction.Status)
	}

	now := s.clk.Now()
	if now.Before(auction.BidEndTime) {
		return nil, fmt.Errorf("%w: auction %s is still open for %s", entity.ErrTooEarly, auction.ID, humanDuration(auction.BidEndTime.Sub(now)))
	}

	status := entity.AuctionStatusNoBids
	outcome := FinalizeOutcomeNoBids
	if auction.HasBids() {
		status = entity.AuctionStatusSold
		outcome = FinalizeOutcomeSold
	}

	// The status flip is version-conditioned so two concurrent finalizers
	// cannot both settle the auction; losing bids are closed in the same
	// transaction.
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.auctionRepo.UpdateStatus(txCtx, repository.UpdateAuctionStatusParams{
			AuctionID:       auction.ID,
			Status:          status,
			ExpectedVersion: auction.Version,
		}); err != nil {
			return err
		}
		if auction.HasBids() {
			return s.bidRepo.CloseLosing(txCtx, auction.ID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrOptimisticLock) {
			// Someone moved the auction between our read and write. Re-read
			// once: if it is now settled this call is an idempotent no-op,
			// otherwise a late bid slipped in and the caller should retry.
			fresh, readErr := s.auctionRepo.GetByID(ctx, auction.ID)
			if readErr != nil {
				return nil, fmt.Errorf("failed to re-read auction %s after conflict: %w", auction.ID, readErr)
			}
			if fresh.IsFinalized() {
				return &FinalizeResult{
					AuctionID:       fresh.ID,
					Outcome:         FinalizeOutcomeAlreadyFinalized,
					WinningBidderID: fresh.CurrentHighestBidderID,
					FinalPrice:      fresh.CurrentHighestBid,
				}, nil
			}
			return nil, fmt.Errorf("%w: auction %s changed during finalization", entity.ErrContention, auction.ID)
		}
		return nil, fmt.Errorf("failed to finalize auction %s: %w", auction.ID, err)
	}

	s.afterFinalized(ctx, auction, outcome, now)

	s.metrics.AuctionsFinalizedTotal.WithLabelValues(strings.ToLower(string(outcome))).Inc()
	s.log.Infof("Auction %s finalized as %s", auction.ID, outcome)

	result := &FinalizeResult{
		AuctionID: auction.ID,
		Outcome:   outcome,
	}
	if outcome == FinalizeOutcomeSold {
		result.WinningBidderID = auction.CurrentHighestBidderID
		result.FinalPrice = auction.CurrentHighestBid
	}
	return result, nil
}

func (s *finalizerService) FinalizeExpiredAuctions(ctx context.Context) (*SweepResult, error) {
	now := s.clk.Now()
	expired, err := s.auctionRepo.ListExpiredApproved(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired auctions: %w", err)
	}

	sweep := &SweepResult{}
	for i := range expired {
		auction := expired[i]
		result, err := s.finalize(ctx, &auction)
		if err != nil {
			sweep.FailedCount++
			sweep.Failures = append(sweep.Failures, SweepFailure{
				AuctionID: auction.ID,
				Error:     err.Error(),
			})
			s.log.Errorf("Failed to finalize auction %s during sweep: %v", auction.ID, err)
			continue
		}
		sweep.ProcessedCount++
		sweep.Results = append(sweep.Results, *result)
	}

	s.log.Infof("Finalization sweep complete: %d processed, %d failed", sweep.ProcessedCount, sweep.FailedCount)
	return sweep, nil
}

// afterFinalized handles the best-effort side effects of a settled auction;
// failures here never fail the finalization.
func (s *finalizerService) afterFinalized(ctx context.Context, auction *entity.Auction, outcome FinalizeOutcome, now time.Time) {
	if err := s.viewCache.Delete(ctx, auction.ID); err != nil {
		s.log.Warnf("Failed to invalidate view cache for auction %s: %v", auction.ID, err)
	}

	event := AuctionFinalizedEvent{
		EventID:     uuid.New().String(),
		AuctionID:   auction.ID,
		Outcome:     string(outcome),
		FinalizedAt: now,
	}
	if outcome == FinalizeOutcomeSold {
		event.WinningBidderID = auction.CurrentHighestBidderID
		event.FinalPrice = auction.CurrentHighestBid
	}
	if err := s.msgPublisher.Publish(ctx, subjectAuctionFinalized, event); err != nil {
		s.log.Warnf("Failed to publish finalized event for auction %s: %v", auction.ID, err)
	}
}
