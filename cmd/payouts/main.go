// The payouts binary runs the full service: schedule engine, HTTP API and
// metrics endpoint in one process.
package main

import (
	"go.uber.org/fx"

	"github.com/hostfolio/payouts/internal/booking"
	"github.com/hostfolio/payouts/internal/clock"
	"github.com/hostfolio/payouts/internal/config"
	"github.com/hostfolio/payouts/internal/engine"
	"github.com/hostfolio/payouts/internal/listing"
	"github.com/hostfolio/payouts/internal/migration"
	"github.com/hostfolio/payouts/internal/notification"
	"github.com/hostfolio/payouts/internal/observability"
	"github.com/hostfolio/payouts/internal/schedule"
	"github.com/hostfolio/payouts/internal/server"
	"github.com/hostfolio/payouts/internal/statement"
	"github.com/hostfolio/payouts/pkg/db"
	"github.com/hostfolio/payouts/pkg/id"
)

func main() {
	fx.New(
		config.Module,
		observability.Module,
		db.Module,
		id.Module,
		clock.Module,
		migration.Module,
		listing.Module,
		booking.Module,
		statement.Module,
		schedule.Module,
		notification.Module,
		engine.RunModule,
		server.Module,
	).Run()
}
