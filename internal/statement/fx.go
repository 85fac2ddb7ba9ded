package statement

import (
	"go.uber.org/fx"

	"github.com/hostfolio/payouts/internal/statement/service"
)

var Module = fx.Module("statement.service",
	fx.Provide(service.NewService),
)
