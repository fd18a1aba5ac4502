package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agromarket/auction-service/internal/domain/entity"
	"github.com/agromarket/auction-service/internal/platform/clock"
	"github.com/agromarket/auction-service/internal/platform/logger"
	"github.com/agromarket/auction-service/internal/repository"
)

type BidHistoryParams struct {
	AuctionID string
	Page      int
	Limit     int
	SortBy    string // "amount" or "time"
	SortOrder string // "asc" or "desc"
	Status    entity.BidStatus
}

type Pagination struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalCount  int64 `json:"total_count"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

type BidHistoryResult struct {
	Message    string            `json:"message"`
	Bids       []BidHistoryEntry `json:"bids"`
	Pagination Pagination        `json:"pagination"`
}

// AuctionQueryService assembles read-only auction views. It performs no
// mutation and is safe under arbitrary concurrency.
type AuctionQueryService interface {
	GetAuctionState(ctx context.Context, auctionID string) (*AuctionView, error)
	GetBidHistory(ctx context.Context, params BidHistoryParams) (*BidHistoryResult, error)
}

type AuctionQueryConfig struct {
	ViewCacheTTL time.Duration
}

type auctionQueryService struct {
	auctionRepo repository.AuctionRepository
	bidRepo     repository.BidRepository
	users       repository.UserDirectory
	viewCache   AuctionViewCache
	clk         clock.Clock
	log         logger.Logger
	cfg         AuctionQueryConfig
}

func NewAuctionQueryService(
	auctionRepo repository.AuctionRepository,
	bidRepo repository.BidRepository,
	users repository.UserDirectory,
	viewCache AuctionViewCache,
	clk clock.Clock,
	log logger.Logger,
	cfg AuctionQueryConfig,
) AuctionQueryService {
	return &auctionQueryService{
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		users:       users,
		viewCache:   viewCache,
		clk:         clk,
		log:         log,
		cfg:         cfg,
	}
}

func (s *auctionQueryService) GetAuctionState(ctx context.Context, auctionID string) (*AuctionView, error) {
	now := s.clk.Now()

	if cached, err := s.viewCache.Get(ctx, auctionID); err == nil && cached != nil {
		cached.refresh(now)
		return cached, nil
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Warnf("View cache read failed for auction %s: %v", auctionID, err)
	}

	auction, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: auction %s", entity.ErrAuctionNotFound, auctionID)
		}
		return nil, fmt.Errorf("failed to load auction %s: %w", auctionID, err)
	}

	bids, err := s.bidRepo.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bids for auction %s: %w", auctionID, err)
	}

	names := s.resolveNames(ctx, bids)

	// Entries come back chronological; display increments are computed
	// against the predecessor, with the starting price as the first bid's
	// baseline, then the list is reversed so the latest bid leads.
	entries := make([]BidHistoryEntry, len(bids))
	for i, bid := range bids {
		previous := auction.StartingPrice
		if i > 0 {
			previous = bids[i-1].Amount
		}
		prevCopy := previous
		increment := bid.Amount - previous

		entries[i] = BidHistoryEntry{
			BidID:           bid.ID,
			AuctionID:       bid.AuctionID,
			BidderID:        bid.BidderID,
			BidderName:      names[bid.BidderID],
			BidderInitials:  initials(names[bid.BidderID]),
			Amount:          bid.Amount,
			PreviousAmount:  &prevCopy,
			IncrementAmount: &increment,
			Mode:            string(bid.Mode),
			BidTime:         bid.BidTime,
			IsWinning:       bid.IsWinning,
			Status:          string(bid.Status),
		}
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	view := &AuctionView{
		AuctionID:              auction.ID,
		SellerID:               auction.SellerID,
		Name:                   auction.Name,
		Status:                 string(auction.Status),
		StartingPrice:          auction.StartingPrice,
		CurrentHighestBid:      auction.CurrentHighestBid,
		CurrentHighestBidderID: auction.CurrentHighestBidderID,
		TotalBids:              len(bids),
		BidStartTime:           auction.BidStartTime,
		BidEndTime:             auction.BidEndTime,
		Bids:                   entries,
	}

	if err := s.viewCache.Set(ctx, auctionID, view, s.cfg.ViewCacheTTL); err != nil {
		s.log.Warnf("View cache write failed for auction %s: %v", auctionID, err)
	}

	view.refresh(now)
	return view, nil
}

func (s *auctionQueryService) GetBidHistory(ctx context.Context, params BidHistoryParams) (*BidHistoryResult, error) {
	if params.Page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", entity.ErrInvalidInput)
	}
	if params.Limit < 1 {
		return nil, fmt.Errorf("%w: limit must be at least 1", entity.ErrInvalidInput)
	}
	switch params.SortBy {
	case "", "time", "amount":
	default:
		return nil, fmt.Errorf("%w: sort_by must be 'amount' or 'time'", entity.ErrInvalidInput)
	}
	switch params.SortOrder {
	case "", "asc", "desc":
	default:
		return nil, fmt.Errorf("%w: sort_order must be 'asc' or 'desc'", entity.ErrInvalidInput)
	}

	if _, err := s.auctionRepo.GetByID(ctx, params.AuctionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: auction %s", entity.ErrAuctionNotFound, params.AuctionID)
		}
		return nil, fmt.Errorf("failed to load auction %s: %w", params.AuctionID, err)
	}

	result, err := s.bidRepo.List(ctx, repository.ListBidsParams{
		AuctionID: params.AuctionID,
		Status:    params.Status,
		Page:      params.Page,
		Limit:     params.Limit,
		SortBy:    params.SortBy,
		SortOrder: params.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bids for auction %s: %w", params.AuctionID, err)
	}

	now := s.clk.Now()
	names := s.resolveNames(ctx, result.Bids)

	entries := make([]BidHistoryEntry, len(result.Bids))
	for i, bid := range result.Bids {
		entries[i] = BidHistoryEntry{
			BidID:           bid.ID,
			AuctionID:       bid.AuctionID,
			BidderID:        bid.BidderID,
			BidderName:      names[bid.BidderID],
			BidderInitials:  initials(names[bid.BidderID]),
			Amount:          bid.Amount,
			PreviousAmount:  bid.PreviousAmount,
			IncrementAmount: bid.IncrementAmount,
			Mode:            string(bid.Mode),
			BidTime:         bid.BidTime,
			TimeAgo:         timeAgo(now, bid.BidTime),
			IsWinning:       bid.IsWinning,
			Status:          string(bid.Status),
		}
	}

	totalPages := int((result.TotalCount + int64(params.Limit) - 1) / int64(params.Limit))
	message := "Bids retrieved successfully"
	if len(entries) == 0 {
		message = "No bids found for this auction"
	}

	return &BidHistoryResult{
		Message: message,
		Bids:    entries,
		Pagination: Pagination{
			Page:        params.Page,
			Limit:       params.Limit,
			TotalCount:  result.TotalCount,
			TotalPages:  totalPages,
			HasNext:     params.Page < totalPages,
			HasPrevious: params.Page > 1,
		},
	}, nil
}

// resolveNames looks up bidder display names, once per bidder. Failures are
// swallowed: name resolution is cosmetic and must never fail a read.
func (s *auctionQueryService) resolveNames(ctx context.Context, bids []entity.Bid) map[string]string {
	names := make(map[string]string)
	for _, bid := range bids {
		if _, seen := names[bid.BidderID]; seen {
			continue
		}
		name, err := s.users.GetNameByID(ctx, bid.BidderID)
		if err != nil {
			names[bid.BidderID] = ""
			continue
		}
		names[bid.BidderID] = name
	}
	return names
}
