package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	myPostgresRepo "github.com/enquestor/dreamer/internal/adapters/db/postgres"
	myRedisRepo "github.com/enquestor/dreamer/internal/adapters/db/redis"
	transporthttp "github.com/enquestor/dreamer/internal/adapters/transport/http"
	"github.com/enquestor/dreamer/internal/app/auth/jwt"
	appsvc "github.com/enquestor/dreamer/internal/app/auth/service"
	"github.com/enquestor/dreamer/internal/domain/auth/repo"
	"github.com/enquestor/dreamer/internal/infra/config"
	lg "github.com/enquestor/dreamer/internal/infra/log"
	"github.com/enquestor/dreamer/internal/infra/migrate"
	"github.com/enquestor/dreamer/internal/infra/server"
	"github.com/enquestor/dreamer/internal/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	var tokenRepo repo.TokenRepo = myPostgresRepo.NewPostgresTokenRepo(db)
	if cfg.RedisAddress != "" {
		redisCli := redisv9.NewClient(&redisv9.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()
		tokenRepo = myRedisRepo.NewRedisTokenRepo(redisCli)
		zapLog.Info("using redis refresh-token store", zap.String("addr", cfg.RedisAddress))
	}

	userRepo := myPostgresRepo.NewPostgresUserRepo(db)
	tokenUtil, err := jwt.NewTokenUtil(cfg)
	if err != nil {
		zapLog.Fatal("failed to init token util", zap.Error(err))
	}
	svc := appsvc.New(userRepo, tokenRepo, tokenUtil, validator.New())

	reg := prometheus.NewRegistry()
	handler := transporthttp.NewHandler(svc, cfg, metrics.NewCollector(reg))
	router := transporthttp.NewRouter(handler, zapLog, reg)

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}
	rootCtx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return server.RunHTTPServer(ctx, srv, zapLog)
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")
	cancel()

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
