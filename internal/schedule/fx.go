package schedule

import (
	"go.uber.org/fx"

	"github.com/hostfolio/payouts/internal/schedule/service"
)

var Module = fx.Module("schedule.service",
	fx.Provide(service.NewService),
)
