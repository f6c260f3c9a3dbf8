package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	bcache "github.com/radieske/bankroll-tracker/internal/bankroll-service/cache"
	bhttp "github.com/radieske/bankroll-tracker/internal/bankroll-service/http"
	"github.com/radieske/bankroll-tracker/internal/bankroll-service/producer"
	"github.com/radieske/bankroll-tracker/internal/bankroll-service/pubsub"
	brepo "github.com/radieske/bankroll-tracker/internal/bankroll-service/repo"
	prepo "github.com/radieske/bankroll-tracker/internal/plan-service/repo"
	sharedcache "github.com/radieske/bankroll-tracker/internal/shared/cache"
	"github.com/radieske/bankroll-tracker/internal/shared/config"
	"github.com/radieske/bankroll-tracker/internal/shared/db"
	"github.com/radieske/bankroll-tracker/internal/shared/kafka"
	"github.com/radieske/bankroll-tracker/internal/shared/logger"
	"github.com/radieske/bankroll-tracker/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New("bankroll-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "bankroll-service"), zap.String("env", cfg.Env))

	// Conexão com Postgres para apostas e banca
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: plano de alavancagem, cache de ledger e broadcast de banca
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Kafka producer: comandos de liquidação para o settlement-worker
	settleWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettle)
	defer settleWriter.Close()

	repo := brepo.NewPostgres(pg)
	plans := prepo.NewRedis(redisClient)
	ledgerCache := bcache.New(redisClient, time.Duration(cfg.SummaryCacheTTLSec)*time.Second)
	broadcaster := pubsub.NewRedisBroadcaster(redisClient)
	publ := producer.NewKafkaPublisher(settleWriter)

	api := bhttp.NewServer(log, repo, plans, ledgerCache, broadcaster, publ, cfg.DefaultCurrency, cfg.RedisBankChannel)

	// Servidor HTTP público (API do bankroll)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8084
		Handler: api.Router(),
	}

	// Servidor de métricas e health check (goroutine própria)
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	// Inicia servidor principal da API
	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
