package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bankroll-tracker/internal/bankroll-service/dto"
)

// Cache guarda a última resposta de ledger montada por usuário.
// TTL curto: a invalidação explícita acontece em cada escrita que move dinheiro.
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

func New(r *redis.Client, ttl time.Duration) *Cache { return &Cache{R: r, TTL: ttl} }

func keyLedger(userID string) string { return "ledger:result:" + userID }

func (c *Cache) GetLedger(ctx context.Context, userID string) (dto.LedgerResponse, bool, error) {
	b, err := c.R.Get(ctx, keyLedger(userID)).Bytes()
	if err == redis.Nil {
		return dto.LedgerResponse{}, false, nil
	}
	if err != nil {
		return dto.LedgerResponse{}, false, err
	}
	var res dto.LedgerResponse
	if err := json.Unmarshal(b, &res); err != nil {
		return dto.LedgerResponse{}, false, err
	}
	return res, true, nil
}

func (c *Cache) SetLedger(ctx context.Context, userID string, res dto.LedgerResponse) error {
	b, _ := json.Marshal(res)
	return c.R.Set(ctx, keyLedger(userID), b, c.TTL).Err()
}

// Invalidate remove a resposta cacheada.
func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	return c.R.Del(ctx, keyLedger(userID)).Err()
}
