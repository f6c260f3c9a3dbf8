package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bankroll-tracker/pkg/contracts/events"
)

const ChannelBankBroadcast = "bank_updates_broadcast"

// RedisBroadcaster publica atualizações de banca para outros devices/abas do
// mesmo usuário (widgets Android, outra aba do navegador).
type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

func (b *RedisBroadcaster) PublishBankUpdated(ctx context.Context, channel string, e events.BankUpdated) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, channel, payload).Err()
}
