package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agromarket/auction-service/internal/repository"
	"github.com/agromarket/auction-service/internal/service"
	"github.com/redis/go-redis/v9"
)

const viewKeyPrefix = "auction_view:"

type auctionViewCache struct {
	client *redis.Client
}

func NewAuctionViewCache(client *redis.Client) service.AuctionViewCache {
	return &auctionViewCache{client: client}
}

func (c *auctionViewCache) key(auctionID string) string {
	return viewKeyPrefix + auctionID
}

func (c *auctionViewCache) Get(ctx context.Context, auctionID string) (*service.AuctionView, error) {
	data, err := c.client.Get(ctx, c.key(auctionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("%w: redis get: %v", repository.ErrQueryFailed, err)
	}

	var view service.AuctionView
	if err := json.Unmarshal(data, &view); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten on
		// the next Set.
		return nil, repository.ErrNotFound
	}
	return &view, nil
}

func (c *auctionViewCache) Set(ctx context.Context, auctionID string, view *service.AuctionView, ttl time.Duration) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal auction view %s: %w", auctionID, err)
	}
	if err := c.client.Set(ctx, c.key(auctionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", repository.ErrQueryFailed, err)
	}
	return nil
}

func (c *auctionViewCache) Delete(ctx context.Context, auctionID string) error {
	if err := c.client.Del(ctx, c.key(auctionID)).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %v", repository.ErrQueryFailed, err)
	}
	return nil
}
