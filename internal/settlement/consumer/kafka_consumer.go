package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/bankroll-tracker/internal/bankroll-service/repo"
	"github.com/radieske/bankroll-tracker/internal/bankroll/lifecycle"
	"github.com/radieske/bankroll-tracker/pkg/contracts/events"
)

// Repo é a operação de persistência que o worker exercita: transição de status
// + ajuste de caixa como unidade atômica.
type Repo interface {
	ApplyTransition(ctx context.Context, betID string, newStatus lifecycle.Status) (repo.TransitionResult, error)
}

// Broadcaster avisa outros devices do usuário que o saldo mudou.
type Broadcaster interface {
	PublishBankUpdated(ctx context.Context, channel string, e events.BankUpdated) error
}

// Invalidator descarta resultados de ledger cacheados do usuário.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Processor consome comandos de liquidação do Kafka e aplica cada transição no
// banco. É o único escritor de caixa em regime: a API apenas enfileira.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa.
type Processor struct {
	Log         *zap.Logger
	Reader      *kafka.Reader
	Repo        Repo
	Broadcast   Broadcaster
	Cache       Invalidator
	DLQ         *kafka.Writer
	BankChannel string

	Retries      int           // tentativas antes da DLQ (0 = default 3)
	RetryBackoff time.Duration // espera entre tentativas (0 = default 250ms)

	OnConsumed func()       // métricas (counter++)
	OnApplied  func()       // métricas: transição efetivada
	OnNoop     func()       // métricas: apply duplicado ignorado
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e processamento dos comandos
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.countError("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var cmd events.BetSettleRequested
		if err := json.Unmarshal(m.Value, &cmd); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			p.countError("decode")
			p.deadLetter(ctx, m.Value, "decode")
			continue
		}

		p.ProcessOne(ctx, m.Value, cmd)
	}
}

// ProcessOne aplica um comando com retry. Conflito de transação volta do banco
// como erro e é tentado de novo com leituras frescas; esgotadas as tentativas,
// o comando vai para a DLQ em vez de ser descartado em silêncio. Escrita
// perdida aqui é dinheiro contabilizado errado.
func (p *Processor) ProcessOne(ctx context.Context, raw []byte, cmd events.BetSettleRequested) {
	retries := p.Retries
	if retries <= 0 {
		retries = 3
	}
	backoff := p.RetryBackoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		res, err := p.Repo.ApplyTransition(ctx, cmd.BetID, lifecycle.Status(cmd.NewStatus))
		if err == nil {
			p.afterApply(ctx, cmd, res)
			return
		}

		// Transição ilegal e aposta inexistente não melhoram com retry.
		if errors.Is(err, lifecycle.ErrIllegalTransition) || errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrInvalidStatus) {
			p.Log.Warn("settle rejected",
				zap.String("betId", cmd.BetID),
				zap.String("newStatus", cmd.NewStatus),
				zap.Error(err),
			)
			p.countError("rejected")
			p.deadLetter(ctx, raw, "rejected")
			return
		}

		lastErr = err
		p.countError("apply")
		time.Sleep(backoff)
	}

	p.Log.Error("settle failed after retries",
		zap.String("betId", cmd.BetID),
		zap.Error(lastErr),
	)
	p.countError("exhausted")
	p.deadLetter(ctx, raw, "exhausted")
}

func (p *Processor) afterApply(ctx context.Context, cmd events.BetSettleRequested, res repo.TransitionResult) {
	if !res.Applied {
		// Mensagem duplicada (retry do produtor, redelivery do Kafka): no-op.
		if p.OnNoop != nil {
			p.OnNoop()
		}
		return
	}

	if p.OnApplied != nil {
		p.OnApplied()
	}
	p.Log.Info("settle applied",
		zap.String("betId", cmd.BetID),
		zap.String("oldStatus", string(res.OldStatus)),
		zap.String("newStatus", string(res.NewStatus)),
		zap.Int64("deltaCents", res.DeltaCents),
		zap.Int64("newCashCents", res.NewCashCents),
	)

	if p.Cache != nil {
		if err := p.Cache.Invalidate(ctx, cmd.UserID); err != nil {
			p.Log.Warn("ledger cache invalidate failed", zap.Error(err))
		}
	}

	if p.Broadcast != nil {
		e := events.BankUpdated{
			UserID:       cmd.UserID,
			BetID:        cmd.BetID,
			OldStatus:    string(res.OldStatus),
			NewStatus:    string(res.NewStatus),
			DeltaCents:   res.DeltaCents,
			NewCashCents: res.NewCashCents,
			UpdatedAt:    time.Now(),
		}
		if err := p.Broadcast.PublishBankUpdated(ctx, p.BankChannel, e); err != nil {
			p.Log.Warn("bank broadcast publish failed", zap.Error(err))
		}
	}
}

func (p *Processor) deadLetter(ctx context.Context, raw []byte, reason string) {
	if p.DLQ == nil {
		return
	}
	msg := kafka.Message{
		Value:   raw,
		Headers: []kafka.Header{{Key: "dlq_reason", Value: []byte(reason)}},
		Time:    time.Now(),
	}
	if err := p.DLQ.WriteMessages(ctx, msg); err != nil {
		p.Log.Error("dlq write failed", zap.Error(err))
	}
}

func (p *Processor) countError(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
