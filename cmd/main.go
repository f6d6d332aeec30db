package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"intellimatch/config"
	"intellimatch/domain"
	"intellimatch/infrastructure"
	"intellimatch/interfaces"
	"intellimatch/logger"
	"intellimatch/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := infrastructure.NewMySQL(cfg.DBDSN)
	if err != nil {
		return err
	}

	rdb, err := infrastructure.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	sessions := infrastructure.NewSessionStore(rdb, cfg.SessionTTL)

	blobs, err := infrastructure.NewFSBlobStore(cfg.BlobDir, cfg.BaseURL)
	if err != nil {
		return err
	}

	var scorer domain.Scorer
	switch cfg.Scorer {
	case config.ScorerGemini:
		scorer, err = infrastructure.NewGeminiScorer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			return err
		}
	default:
		scorer = infrastructure.NewNLPClient(cfg.NLPAPIURL, log)
	}

	queue, err := infrastructure.NewRabbitMQ(cfg.AMQPURL, cfg.QueueName, log)
	if err != nil {
		return err
	}
	defer queue.Close()

	matches := infrastructure.NewMatchStore(db)
	results := infrastructure.NewResultStore(db)
	users := infrastructure.NewUserStore(db)

	matchSvc := service.NewMatchService(blobs, scorer, matches, results, queue, log)
	if err := queue.Consume(ctx, matchSvc.ProcessMatch); err != nil {
		return err
	}

	sweeper := service.NewSweeper(matches, matchSvc, cfg.SweepInterval, cfg.MaxPending, log)
	if err := sweeper.Start(ctx); err != nil {
		return err
	}
	defer sweeper.Stop()

	handler := &interfaces.HTTPHandler{
		Matches:    matchSvc,
		History:    service.NewHistory(matches, results, log),
		Users:      service.NewUsers(users, log),
		Sessions:   sessions,
		AdminToken: cfg.AdminToken,
		CookieTTL:  int(cfg.SessionTTL.Seconds()),
		Logger:     log,
	}

	router := gin.Default()
	router.MaxMultipartMemory = 16 << 20
	router.Static("/files", blobs.Dir())
	interfaces.Register(router, handler)

	log.Info("server listening", zap.String("addr", cfg.Addr), zap.String("scorer", cfg.Scorer))
	return router.Run(cfg.Addr)
}
