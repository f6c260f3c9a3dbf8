package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	bcache "github.com/radieske/bankroll-tracker/internal/bankroll-service/cache"
	"github.com/radieske/bankroll-tracker/internal/bankroll-service/pubsub"
	brepo "github.com/radieske/bankroll-tracker/internal/bankroll-service/repo"
	"github.com/radieske/bankroll-tracker/internal/settlement/consumer"
	sharedcache "github.com/radieske/bankroll-tracker/internal/shared/cache"
	"github.com/radieske/bankroll-tracker/internal/shared/config"
	"github.com/radieske/bankroll-tracker/internal/shared/db"
	"github.com/radieske/bankroll-tracker/internal/shared/kafka"
	"github.com/radieske/bankroll-tracker/internal/shared/logger"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Conexão com banco de dados Postgres para aplicar as transições
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: invalidação de cache de ledger e broadcast de banca
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Kafka consumer: consome comandos bet_settle_requested
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetSettle, "settlement-worker")
	defer reader.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicBetSettleDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettleDLQ)
		defer dlqWriter.Close()
	}

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_messages_consumed_total", Help: "comandos consumidos"})
	applied := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_transitions_applied_total", Help: "transições efetivadas"})
	noops := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_duplicate_noops_total", Help: "applies duplicados ignorados"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, applied, noops, errorsBy)

	// Servidor HTTP para métricas Prometheus e healthcheck
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			if err := pg.PingContext(ctx); err != nil {
				http.Error(w, "pg", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		addr := ":" + cfg.MetricsPort
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, mux)
	}()

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicBetSettle),
		zap.String("dlq", cfg.TopicBetSettleDLQ),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		Repo:        brepo.NewPostgres(pg),
		Broadcast:   pubsub.NewRedisBroadcaster(redisClient),
		Cache:       bcache.New(redisClient, time.Duration(cfg.SummaryCacheTTLSec)*time.Second),
		DLQ:         dlqWriter,
		BankChannel: cfg.RedisBankChannel,

		OnConsumed: func() { consumed.Inc() },
		OnApplied:  func() { applied.Inc() },
		OnNoop:     func() { noops.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped", zap.Error(err))
	}
	log.Info("settlement-worker stopped")
}
