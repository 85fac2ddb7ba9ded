package engine

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("engine",
	fx.Provide(New),
)

// RunModule starts the tick loop under the fx lifecycle. The API binary
// pulls in Module only, so manual triggers work without a second poller.
var RunModule = fx.Module("engine.run",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, e *Engine) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				e.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
