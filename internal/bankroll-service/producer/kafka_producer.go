package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/bankroll-tracker/pkg/contracts/events"
)

type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

// PublishSettleRequested publica o comando de liquidação. A chave é o betID:
// comandos da mesma aposta caem na mesma partição e são aplicados em ordem.
func (p *KafkaPublisher) PublishSettleRequested(ctx context.Context, e events.BetSettleRequested) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.BetID), Value: b})
}
