package microservices

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Temutjin2k/ride-realtime/config"
	"github.com/Temutjin2k/ride-realtime/internal/adapter/http/server"
	wshandler "github.com/Temutjin2k/ride-realtime/internal/adapter/http/ws"
	kafkaadapter "github.com/Temutjin2k/ride-realtime/internal/adapter/kafka"
	"github.com/Temutjin2k/ride-realtime/internal/adapter/locationiq"
	"github.com/Temutjin2k/ride-realtime/internal/adapter/memory"
	repo "github.com/Temutjin2k/ride-realtime/internal/adapter/postgres"
	rabbitadapter "github.com/Temutjin2k/ride-realtime/internal/adapter/rabbit"
	redisadapter "github.com/Temutjin2k/ride-realtime/internal/adapter/redis"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/internal/service/auth"
	ridecalc "github.com/Temutjin2k/ride-realtime/internal/service/calculator"
	"github.com/Temutjin2k/ride-realtime/internal/service/location"
	"github.com/Temutjin2k/ride-realtime/internal/service/ride"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-realtime/pkg/postgres"
	"github.com/Temutjin2k/ride-realtime/pkg/rabbit"
	redisclient "github.com/Temutjin2k/ride-realtime/pkg/redis"
	"github.com/Temutjin2k/ride-realtime/pkg/trm"
	ws "github.com/Temutjin2k/ride-realtime/pkg/wsHub"
)

// RideService wires the lifecycle manager, the websocket transport and the optional side channels
type RideService struct {
	postgresDB *postgres.PostgreDB
	rabbit     *rabbit.RabbitMQ
	redis      *goredis.Client
	kafka      *kafkaadapter.LocationProducer

	registry   *ws.Registry
	httpServer *server.API

	cfg config.Config
	log logger.Logger
}

func NewRide(ctx context.Context, cfg config.Config, log logger.Logger) (_ *RideService, err error) {
	ctx = wrap.WithAction(ctx, "ride_service_init")

	s := &RideService{
		cfg: cfg,
		log: log,
	}
	// при ошибке закрываем всё, что уже успели открыть
	defer func() {
		if err != nil {
			s.close(context.WithoutCancel(ctx))
		}
	}()

	rideRepo, txManager, err := s.initStorage(ctx)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	calc := ridecalc.New()

	s.registry = ws.NewRegistry(log)
	router := wshandler.NewEventRouter(s.registry, cfg.WebSocket.StatusDelivery, log)

	rideService := ride.NewRideService(rideRepo, txManager, router, calc, log)

	if cfg.RabbitMQ.Enabled {
		s.rabbit, err = rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
		if err != nil {
			log.Error(ctx, "failed to connect to rabbitmq", err)
			return nil, err
		}

		broker := rabbitadapter.NewRideBroker(s.rabbit, cfg.RabbitMQ.Exchange, cfg.ServiceName, log)
		if err := broker.Setup(ctx); err != nil {
			log.Error(ctx, "failed to declare ride exchange", err)
			return nil, err
		}
		rideService.WithPublisher(broker)
	}

	if cfg.Geocoder.APIKey != "" {
		rideService.WithAddresses(locationiq.New(cfg.Geocoder.APIKey, cfg.Geocoder.BaseURL, cfg.Geocoder.Timeout))
	}

	ingest := location.NewIngestService(rideService, router, calc, log)

	if cfg.Redis.Enabled {
		s.redis, err = redisclient.New(ctx, cfg.Redis)
		if err != nil {
			log.Error(ctx, "failed to connect to redis", err)
			return nil, err
		}

		store := redisadapter.NewLocationStore(s.redis, cfg.Redis.GeoKey, cfg.Redis.LocationTTL)
		ingest.WithCache(store)
		rideService.WithLocations(store)
	}

	if cfg.Kafka.Enabled {
		s.kafka = kafkaadapter.NewLocationProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		ingest.WithPublisher(s.kafka)
	}

	session := wshandler.NewSession(
		cfg.ServiceName,
		s.registry,
		ingest,
		tokens,
		cfg.WebSocket.MessageRate,
		cfg.WebSocket.MessageBurst,
		log,
	)

	wsOpts := server.WSOptions{
		Conn: ws.Options{
			WriteTimeout: cfg.WebSocket.WriteTimeout,
			PingInterval: cfg.WebSocket.PingInterval,
			ReadLimit:    cfg.WebSocket.ReadLimit,
		},
		AllowUnverified: cfg.WebSocket.AllowUnverifiedBind,
	}

	s.httpServer, err = server.New(cfg, rideService, session, session, tokens, wsOpts, log)
	if err != nil {
		log.Error(ctx, "failed to setup http server", err)
		return nil, err
	}

	if cfg.WebSocket.AllowUnverifiedBind {
		log.Warn(ctx, "websocket sessions may bind by ?userId= without a token, do not use in production")
	}

	return s, nil
}

func (s *RideService) initStorage(ctx context.Context) (ride.RideRepo, trm.TxManager, error) {
	switch s.cfg.Database.Driver {
	case types.StorageMemory:
		s.log.Warn(ctx, "using in-memory ride storage, data is lost on restart")
		return memory.NewRideRepo(), trm.Nop{}, nil

	case types.StoragePostgres:
		db, err := postgres.New(ctx, s.cfg.Database)
		if err != nil {
			s.log.Error(ctx, "failed to setup database", err)
			return nil, nil, err
		}
		s.postgresDB = db
		return repo.NewRideRepo(db.Pool, s.cfg.ServiceName), trm.New(db.Pool), nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", s.cfg.Database.Driver)
	}
}

// Start blocks until SIGINT/SIGTERM or a server failure
func (s *RideService) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.httpServer.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info(wrap.WithAction(context.WithoutCancel(ctx), "shutdown"), "shutting down application")
		return s.httpServer.Stop(context.WithoutCancel(ctx))
	})

	s.log.Info(ctx, "ride service started", "address", s.cfg.Server.Addr(), "storage", string(s.cfg.Database.Driver))

	err := g.Wait()
	s.close(context.WithoutCancel(ctx))
	s.log.Info(context.WithoutCancel(ctx), "ride service closed")
	return err
}

func (s *RideService) close(ctx context.Context) {
	ctx = wrap.WithAction(ctx, "ride_service_close")

	// Shutdown не ждёт hijacked соединения, закрываем их сами
	if s.registry != nil {
		s.registry.CloseAll()
	}

	if s.kafka != nil {
		if err := s.kafka.Close(); err != nil {
			s.log.Warn(ctx, "failed to close kafka writer", "error", err.Error())
		}
	}

	if s.rabbit != nil {
		if err := s.rabbit.Close(ctx); err != nil {
			s.log.Warn(ctx, "failed to close rabbitmq", "error", err.Error())
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn(ctx, "failed to close redis", "error", err.Error())
		}
	}

	s.postgresDB.Close()
}
