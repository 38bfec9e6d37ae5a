// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work, then tears down NATS, Redis and MongoDB.
// NATS is drained first so events from in-flight requests still go out.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if rt != nil {
		rt.sweeper.Stop()
		if rt.limiter != nil {
			rt.limiter.Stop()
		}
		if err := rt.nats.Close(); err != nil {
			logger.Warn("NATS drain failed", zap.Error(err))
		}
	} else if deps.NATS != nil {
		deps.NATS.Close()
	}

	if deps.Redis != nil {
		if err := deps.Redis.Close(); err != nil {
			logger.Warn("Redis close failed", zap.Error(err))
		}
	}

	if deps.RemixHubMongoClient != nil {
		logger.Info("disconnecting RemixHub MongoDB client")
		if err := deps.RemixHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
