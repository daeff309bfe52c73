package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harentsoaR/healthcare-portal/internal/config"
	"github.com/harentsoaR/healthcare-portal/internal/repository"
	"github.com/harentsoaR/healthcare-portal/internal/repository/memstore"
	"github.com/harentsoaR/healthcare-portal/internal/services"
	"github.com/harentsoaR/healthcare-portal/internal/utils"
)

// newLogger is replaced in tests.
var newLogger = utils.NewLogger

// app is the wired process: config, logger, store and services.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *repository.Store
	tokens  *utils.TokenManager
	svc     *services.Services
	closers []func()
}

// newApp loads the configuration and connects the store. serving selects
// the full validation needed by the HTTP server.
func newApp(ctx context.Context, inMemory, serving bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.InMemory = inMemory
	if serving {
		err = cfg.Validate()
	} else {
		err = cfg.ValidateStorage()
	}
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)

	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	if cfg.InMemory {
		log.Warn("using the in-memory store, data is lost on exit")
		a.store = memstore.New()
	} else {
		client, err := repository.Connect(ctx, cfg.MongoURI)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		a.store, err = repository.NewMongoStore(ctx, client.Database(cfg.MongoDatabase), cfg.MongoTransactions)
		if err != nil {
			a.Close()
			return nil, err
		}
		log.Info("connected to MongoDB",
			zap.String("database", cfg.MongoDatabase),
			zap.Bool("transactions", cfg.MongoTransactions))
	}

	var notifier services.Notifier = services.NewLogNotifier(log)
	if cfg.AMQPURL != "" {
		pub, err := services.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = pub.Close() })
		notifier = services.NewEventNotifier(log, pub)
		log.Info("publishing domain events", zap.String("exchange", cfg.AMQPExchange))
	}

	a.tokens = utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	a.svc = services.New(services.Deps{
		Store:           a.store,
		Tokens:          a.tokens,
		Hasher:          utils.PasswordHasher{Cost: cfg.BcryptCost},
		Notifier:        notifier,
		Log:             log,
		GoalTargets:     cfg.GoalTargets,
		HistoryDays:     cfg.HistoryDays,
		StatsWindowDays: cfg.StatsWindowDays,
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
