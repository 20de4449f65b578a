package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ndmlinh/campusmeet-gateway/config"
	httpDelivery "github.com/ndmlinh/campusmeet-gateway/internal/delivery/http"
	"github.com/ndmlinh/campusmeet-gateway/internal/delivery/kafka/consumer"
	"github.com/ndmlinh/campusmeet-gateway/internal/delivery/kafka/producer"
	wsDelivery "github.com/ndmlinh/campusmeet-gateway/internal/delivery/ws"
	"github.com/ndmlinh/campusmeet-gateway/internal/discovery"
	"github.com/ndmlinh/campusmeet-gateway/internal/gateway"
	"github.com/ndmlinh/campusmeet-gateway/internal/infra/redis"
	repo "github.com/ndmlinh/campusmeet-gateway/internal/repository/redis"
	"github.com/ndmlinh/campusmeet-gateway/internal/service"
	pkgKafka "github.com/ndmlinh/campusmeet-gateway/pkg/kafka"
	pkgLog "github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	redisCli, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer redis.Disconnect(redisCli)

	userRepo := repo.NewRedisUserRepository(redisCli, l)
	chRepo := repo.NewRedisChannelRepository(redisCli, l)

	// Kafka producer and consumer
	var prod producer.Producer
	var cons *consumer.Consumer
	if cfg.Kafka.Enabled {
		kafkaSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod = producer.NewProducer(kafkaSyncProd, l)
		defer prod.Close()
	}

	// Initialize services
	authSvc := service.NewAuthService(userRepo, cfg.JWT, l)
	profileSvc := service.NewProfileService(userRepo, chRepo, l)
	chSvc := service.NewChannelService(chRepo, cfg.JWT, l)

	// Gateway core
	registry := gateway.NewRegistry()
	mgr := gateway.NewManager(registry, authSvc, prod, cfg.Gateway, l)

	queue := discovery.NewQueue(profileSvc, chSvc, cfg.Discovery.EventUserIDs, l)
	bridge := discovery.NewBridge(queue, mgr, prod, l)
	mgr.BindMatchmaker(bridge)

	// Message-event consumer feeding the gateway broadcast path
	if cfg.Kafka.Enabled {
		kafkaConsGr, err := pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.ConsumerGroupID,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
		}
		cons = consumer.NewConsumer(kafkaConsGr, mgr, l)
		cons.Start(ctx)
		defer cons.Close()
	}

	// HTTP server: websocket upgrade endpoint plus REST glue
	wsHandler := wsDelivery.NewHandler(mgr, cfg.Gateway, l)
	apiHandler := httpDelivery.NewHandler(mgr, queue, l)

	r := chi.NewRouter()
	r.Get("/ws", wsHandler.ServeWS)
	apiHandler.Routes(r)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof(gCtx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		mgr.Run(gCtx)
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info(ctx, "Server shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Errorf(ctx, "HTTP server shutdown: %v", err)
	}

	if err := g.Wait(); err != nil {
		l.Errorf(ctx, "Server error: %v", err)
	}

	l.Info(ctx, "Server exited")
}
