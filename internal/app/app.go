// Package app wires configuration, credentials, routing and adapters into a function registry.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/onchain-formulas/internal/adapter"
	"github.com/onchain-formulas/internal/config"
	"github.com/onchain-formulas/internal/credentials"
	"github.com/onchain-formulas/internal/functions"
	"github.com/onchain-formulas/internal/logging"
	"github.com/onchain-formulas/internal/resolve"
	"github.com/onchain-formulas/internal/router"
)

// App is a wired function registry plus the resources it holds open
type App struct {
	Registry *functions.Registry
	Router   *router.Router

	closers []func()
}

// Close releases every held resource
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// NewStore builds the configured credential store. The redis backend falls back to the
// environment for keys it does not hold.
func NewStore(ctx context.Context, cfg *config.Config) (credentials.Store, func(), error) {
	env := credentials.EnvStore{Prefix: cfg.Credentials.Prefix}
	if cfg.Credentials.Backend != "redis" {
		return env, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	store := credentials.NewRedisStore(client, cfg.Credentials.Prefix)
	return credentials.Chain{store, env}, func() { store.Close() }, nil
}

// New wires an App from cfg
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*App, error) {
	a := &App{}

	store, closeStore, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)

	a.Router = router.New(store, cfg.Proxy.BaseURL)

	var names resolve.NameResolver
	ens, err := resolve.DialENS(ctx, cfg.Providers.ENSRPCURL)
	if err != nil {
		logger.WithError(err).Warn("ENS resolution disabled, only literal addresses accepted")
	} else {
		names = ens
		a.closers = append(a.closers, ens.Close)
	}

	adapters := adapter.New(adapter.Options{
		HTTPClient: &http.Client{Timeout: cfg.Providers.HTTPTimeout},
		Router:     a.Router,
		Names:      names,
		Endpoints:  adapter.EndpointsFromConfig(cfg),
	})
	a.Registry = functions.New(adapters)

	logger.WithFields(map[string]interface{}{
		"credentials": cfg.Credentials.Backend,
		"proxy":       cfg.Proxy.BaseURL,
	}).Info("function registry ready")

	return a, nil
}
