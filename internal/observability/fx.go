package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/hostfolio/payouts/internal/config"
	"github.com/hostfolio/payouts/internal/observability/logger"
	"github.com/hostfolio/payouts/internal/observability/metrics"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logger.New(cfg.LogLevel)
}

func newHTTPMetrics() *metrics.HTTPMetrics {
	return metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
}

func registerHooks(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
}

var Module = fx.Module("observability",
	fx.Provide(
		newLogger,
		newHTTPMetrics,
	),
	fx.Invoke(registerHooks),
)
