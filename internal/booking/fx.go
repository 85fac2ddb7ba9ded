package booking

import (
	"go.uber.org/fx"

	"github.com/hostfolio/payouts/internal/booking/provider"
)

var Module = fx.Module("booking.provider",
	fx.Provide(
		provider.NewProvider,
		provider.NewReservationProvider,
		provider.NewExpenseProvider,
	),
)
