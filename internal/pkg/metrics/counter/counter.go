package counter

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/lngifts/LightningGifts/internal/pkg/cache"
)

const (
	giftsCreatedKey  = "gifts:counters:created"
	giftsRedeemedKey = "gifts:counters:redeemed"
	satsGiftedKey    = "gifts:counters:sats_gifted"
	satsRedeemedKey  = "gifts:counters:sats_redeemed"
)

// Stats is the running total of gift activity since the counters were reset.
type Stats struct {
	GiftsCreated  int64 `json:"giftsCreated"`
	GiftsRedeemed int64 `json:"giftsRedeemed"`
	SatsGifted    int64 `json:"satsGifted"`
	SatsRedeemed  int64 `json:"satsRedeemed"`
}

// AddGiftCreated increments the creation counters in Redis
func AddGiftCreated(amountSats int64) error {
	ctx := context.Background()
	rdb := cache.GetClient()
	if err := rdb.IncrBy(ctx, giftsCreatedKey, 1).Err(); err != nil {
		return err
	}
	return rdb.IncrBy(ctx, satsGiftedKey, amountSats).Err()
}

// AddGiftRedeemed increments the redemption counters in Redis
func AddGiftRedeemed(amountSats int64) error {
	ctx := context.Background()
	rdb := cache.GetClient()
	if err := rdb.IncrBy(ctx, giftsRedeemedKey, 1).Err(); err != nil {
		return err
	}
	return rdb.IncrBy(ctx, satsRedeemedKey, amountSats).Err()
}

// GetStats reads all counters. Missing keys count as zero.
func GetStats() (Stats, error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	var stats Stats
	for _, c := range []struct {
		key  string
		dest *int64
	}{
		{giftsCreatedKey, &stats.GiftsCreated},
		{giftsRedeemedKey, &stats.GiftsRedeemed},
		{satsGiftedKey, &stats.SatsGifted},
		{satsRedeemedKey, &stats.SatsRedeemed},
	} {
		val, err := rdb.Get(ctx, c.key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return Stats{}, err
		}
		*c.dest = val
	}
	return stats, nil
}
