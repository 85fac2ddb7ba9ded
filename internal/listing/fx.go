package listing

import (
	"go.uber.org/fx"

	"github.com/hostfolio/payouts/internal/listing/service"
)

var Module = fx.Module("listing.service",
	fx.Provide(service.NewService),
)
