package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cartify/internal/auth"
	"cartify/internal/config"
	httpctrl "cartify/internal/controllers/http"
	"cartify/internal/infra/database"
	"cartify/internal/infra/payment"
	"cartify/internal/infra/rabbitmq"
	rediscache "cartify/internal/infra/redis"
	"cartify/internal/logging"
	"cartify/internal/realtime"
	"cartify/internal/repository/gormrepo"
	"cartify/internal/services"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	catalogCacheTTL = 5 * time.Minute
	idempotencyTTL  = 24 * time.Hour
)

type closer interface {
	Close() error
}

// app owns everything that has to be stopped, in reverse start order.
type app struct {
	log       *slog.Logger
	srv       *http.Server
	orders    *services.OrderService
	hub       *realtime.Hub
	stopHub   context.CancelFunc
	stopRelay context.CancelFunc
	relayDone chan struct{}
	publisher closer
	redis     *goredis.Client
	db        *gorm.DB
}

// setServer installs srv. Shutdown does not wait for hijacked or streaming
// connections to go idle, so closing the hub sessions is hooked onto it.
func (a *app) setServer(srv *http.Server) {
	srv.RegisterOnShutdown(a.stopHub)
	a.srv = srv
}

func (a *app) Stop(ctx context.Context) error {
	var errs []error
	if err := a.srv.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.orders != nil {
		a.orders.Wait()
	}

	if a.stopRelay != nil {
		a.stopRelay()
		<-a.relayDone
	}
	a.stopHub()
	a.hub.Wait()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatalf("db: connect: %v", err)
	}

	productRepo := gormrepo.NewProductRepository(db)
	orderRepo := gormrepo.NewOrderRepository(db)
	userRepo := gormrepo.NewUserRepository(db)

	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:         cfg.RedisAddr,
			DB:           0,
			PoolSize:     200,
			MinIdleConns: 20,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		})
	}

	var publisher rabbitmq.PublisherInterface = rabbitmq.NopPublisher{}
	var amqpCloser closer
	if cfg.RabbitMQURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.OrderExchange, logger)
		if err != nil {
			log.Fatalf("failed to init publisher: %v", err)
		}
		publisher, amqpCloser = p, p
	}

	var processor payment.ProcessorInterface
	switch cfg.PaymentMode {
	case config.PaymentStripe:
		processor = payment.NewStripeProcessor(cfg.StripeSecretKey)
	default:
		logger.Warn("using mock payment processor")
		processor = payment.NewMockProcessor()
	}

	hub := realtime.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	var events realtime.PublisherInterface = hub
	a := &app{log: logger, hub: hub, stopHub: stopHub, publisher: amqpCloser, redis: rdb, db: db}
	if cfg.RealtimeRelay == config.RelayRedis {
		relay := rediscache.NewRelay(rdb, logger)
		events = relay

		relayCtx, stopRelay := context.WithCancel(context.Background())
		a.stopRelay, a.relayDone = stopRelay, make(chan struct{})
		go func() {
			defer close(a.relayDone)
			if err := relay.Forward(relayCtx, hub); err != nil {
				logger.Error("relay stopped", "error", err)
			}
		}()
	}

	productSvc := services.NewProductService(productRepo, events, logger)
	orderSvc := services.NewOrderService(orderRepo, productRepo, processor, events, publisher, logger)
	authSvc := services.NewAuthService(userRepo, auth.NewPasswordHasher(), auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL))
	paymentSvc := services.NewPaymentService(processor, cfg.StripePublishableKey)
	a.orders = orderSvc

	handler := httpctrl.NewHandler(productSvc, orderSvc, authSvc, paymentSvc, hub, logger)
	handler.SetOriginPolicy(httpctrl.AllowedOrigin(cfg.ClientURL))
	if rdb != nil {
		cache := rediscache.NewCatalogCache(rdb, catalogCacheTTL)
		productSvc.SetCache(cache)
		orderSvc.SetCache(cache)
		handler.SetIdempotencyStore(rediscache.NewIdempotencyStore(rdb, idempotencyTTL))
	}

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpctrl.RequestLogger(logger))
	r.Use(httpctrl.CORS(cfg.ClientURL))

	handler.RegisterRoutes(r)

	a.setServer(&http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	})
	go func() {
		logger.Info("starting cartify server", "port", cfg.Port, "env", cfg.Env,
			"payment", cfg.PaymentMode, "relay", cfg.RealtimeRelay)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server run: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"cartify": func(ctx context.Context) error {
				logger.Info("graceful shutdown initiated")
				return a.Stop(ctx)
			},
		},
	)

	os.Exit(<-wait)
}
