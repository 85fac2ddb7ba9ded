package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	bookingdomain "github.com/hostfolio/payouts/internal/booking/domain"
	bookingprovider "github.com/hostfolio/payouts/internal/booking/provider"
	"github.com/hostfolio/payouts/internal/clock"
	"github.com/hostfolio/payouts/internal/config"
	listingdomain "github.com/hostfolio/payouts/internal/listing/domain"
	listingservice "github.com/hostfolio/payouts/internal/listing/service"
	notificationdomain "github.com/hostfolio/payouts/internal/notification/domain"
	notificationservice "github.com/hostfolio/payouts/internal/notification/service"
	"github.com/hostfolio/payouts/internal/period"
	scheduledomain "github.com/hostfolio/payouts/internal/schedule/domain"
	scheduleservice "github.com/hostfolio/payouts/internal/schedule/service"
	statementdomain "github.com/hostfolio/payouts/internal/statement/domain"
	statementservice "github.com/hostfolio/payouts/internal/statement/service"
)

type fixture struct {
	engine        *Engine
	clock         *clock.FakeClock
	conn          *gorm.DB
	schedules     scheduledomain.Service
	listings      listingdomain.Service
	notifications notificationdomain.Service
}

func eastern(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, period.Location())
}

func setup(t *testing.T, statements statementdomain.Service) *fixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&listingdomain.Listing{},
		&listingdomain.ListingGroup{},
		&bookingdomain.Reservation{},
		&bookingdomain.Expense{},
		&scheduledomain.Schedule{},
		&statementdomain.Statement{},
		&notificationdomain.Notification{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	listings := listingservice.NewService(listingservice.ServiceParam{DB: conn, Log: log, GenID: node})
	schedules := scheduleservice.NewService(scheduleservice.ServiceParam{DB: conn, Log: log, GenID: node})
	notifications := notificationservice.NewService(notificationservice.ServiceParam{DB: conn, Log: log, GenID: node})

	if statements == nil {
		p := bookingprovider.NewProvider(bookingprovider.ProviderParam{DB: conn, Log: log})
		statements = statementservice.NewService(statementservice.ServiceParam{
			DB:           conn,
			Log:          log,
			GenID:        node,
			Reservations: bookingprovider.NewReservationProvider(p),
			Expenses:     bookingprovider.NewExpenseProvider(p),
		})
	}

	// Monday Dec 1 2025, 08:00 Eastern.
	fake := clock.NewFakeClock(eastern(2025, time.December, 1, 8, 0))

	eng := New(Params{
		Config:        config.Config{EngineTickSeconds: 60},
		Log:           log,
		Clock:         fake,
		Schedules:     schedules,
		Listings:      listings,
		Statements:    statements,
		Notifications: notifications,
	})

	return &fixture{
		engine:        eng,
		clock:         fake,
		conn:          conn,
		schedules:     schedules,
		listings:      listings,
		notifications: notifications,
	}
}

func (f *fixture) seedListing(t *testing.T, id int64, tag string) listingdomain.Listing {
	t.Helper()
	l := listingdomain.Listing{
		ID:              snowflake.ID(id),
		Name:            "Listing " + tag,
		Tags:            []string{tag},
		Active:          true,
		DisregardTax:    true,
		PMFeePercent:    decimal.NewFromInt(15),
		CalculationType: listingdomain.CalculationCheckout,
	}
	require.NoError(t, f.conn.Create(&l).Error)
	return l
}

func (f *fixture) seedWeekly(t *testing.T, tag, timeOfDay string, skip ...string) {
	t.Helper()
	_, err := f.schedules.Create(context.Background(), scheduledomain.CreateScheduleRequest{
		TagName:   tag,
		Frequency: period.FrequencyWeekly,
		DayOfWeek: 1, // Monday
		TimeOfDay: timeOfDay,
		SkipDates: skip,
	})
	require.NoError(t, err)
}

func (f *fixture) notificationCount(t *testing.T, tag string) int {
	t.Helper()
	list, _, err := f.notifications.List(context.Background(), notificationdomain.ListNotificationsRequest{TagName: tag})
	require.NoError(t, err)
	return len(list)
}

func TestRunOnceFiresAtExactMinute(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.seedListing(t, 101, "WEEKLY")
	f.seedWeekly(t, "WEEKLY", "09:00")

	// Wrong minute: nothing happens.
	f.clock.Set(eastern(2025, time.December, 1, 8, 59))
	require.NoError(t, f.engine.RunOnce(ctx))
	assert.Equal(t, 0, f.notificationCount(t, "WEEKLY"))

	f.clock.Set(eastern(2025, time.December, 1, 9, 0))
	require.NoError(t, f.engine.RunOnce(ctx))
	assert.Equal(t, 1, f.notificationCount(t, "WEEKLY"))

	var count int64
	require.NoError(t, f.conn.Model(&statementdomain.Statement{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// One minute past the mark: also nothing.
	f.clock.Set(eastern(2025, time.December, 1, 9, 1))
	require.NoError(t, f.engine.RunOnce(ctx))
	assert.Equal(t, 1, f.notificationCount(t, "WEEKLY"))
}

func TestRunOnceIdempotentWithinMinute(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.seedListing(t, 101, "WEEKLY")
	f.seedWeekly(t, "WEEKLY", "09:00")

	f.clock.Set(eastern(2025, time.December, 1, 9, 0))
	require.NoError(t, f.engine.RunOnce(ctx))
	// A second tick lands inside the same minute.
	f.clock.Advance(20 * time.Second)
	require.NoError(t, f.engine.RunOnce(ctx))

	assert.Equal(t, 1, f.notificationCount(t, "WEEKLY"))
}

func TestRunOnceWrongWeekday(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.seedListing(t, 101, "WEEKLY")
	f.seedWeekly(t, "WEEKLY", "09:00")

	// Tuesday Dec 2.
	f.clock.Set(eastern(2025, time.December, 2, 9, 0))
	require.NoError(t, f.engine.RunOnce(ctx))
	assert.Equal(t, 0, f.notificationCount(t, "WEEKLY"))
}

func TestRunOnceSkipDate(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.seedListing(t, 101, "WEEKLY")
	f.seedWeekly(t, "WEEKLY", "09:00", "2025-12-01")

	f.clock.Set(eastern(2025, time.December, 1, 9, 0))
	require.NoError(t, f.engine.RunOnce(ctx))
	assert.Equal(t, 0, f.notificationCount(t, "WEEKLY"))

	// The next occurrence is unaffected.
	f.clock.Set(eastern(2025, time.December, 8, 9, 0))
	require.NoError(t, f.engine.RunOnce(ctx))
	assert.Equal(t, 1, f.notificationCount(t, "WEEKLY"))
}

func TestBiweeklyAnchorParity(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.seedListing(t, 101, "BI-WEEKLY A")

	anchor := eastern(2025, time.January, 6, 0, 0) // a Monday
	_, err := f.schedules.Create(ctx, scheduledomain.CreateScheduleRequest{
		TagName:        "BI-WEEKLY A",
		Frequency:      period.FrequencyBiweeklyA,
		DayOfWeek:      1,
		BiweeklyAnchor: &anchor,
		TimeOfDay:      "09:00",
	})
	require.NoError(t, err)

	// Dec 1 2025 is 47 whole weeks past the anchor: off-week.
	f.clock.Set(eastern(2025, time.December, 1, 9, 0))
	require.NoError(t, f.engine.RunOnce(ctx))
	assert.Equal(t, 0, f.notificationCount(t, "BI-WEEKLY A"))

	// Dec 8 is 48 weeks past: on-week.
	f.clock.Set(eastern(2025, time.December, 8, 9, 0))
	require.NoError(t, f.engine.RunOnce(ctx))
	assert.Equal(t, 1, f.notificationCount(t, "BI-WEEKLY A"))
}

func TestBiweeklyWithoutAnchorNeverFires(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	// Seed the row directly; the service-level validation rejects this.
	sched := scheduledomain.Schedule{
		ID:        snowflake.ID(1),
		TagName:   "BI-WEEKLY B",
		Frequency: period.FrequencyBiweeklyB,
		DayOfWeek: 1,
		TimeOfDay: "09:00",
		Enabled:   true,
	}
	require.NoError(t, f.conn.Create(&sched).Error)

	f.clock.Set(eastern(2025, time.December, 1, 9, 0))
	require.NoError(t, f.engine.RunOnce(ctx))
	assert.Equal(t, 0, f.notificationCount(t, "BI-WEEKLY B"))
}

func TestMonthlyDueOnDayOfMonth(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.seedListing(t, 101, "MONTHLY")
	_, err := f.schedules.Create(ctx, scheduledomain.CreateScheduleRequest{
		TagName:    "MONTHLY",
		Frequency:  period.FrequencyMonthly,
		DayOfMonth: 1,
		TimeOfDay:  "09:00",
	})
	require.NoError(t, err)

	f.clock.Set(eastern(2025, time.December, 2, 9, 0))
	require.NoError(t, f.engine.RunOnce(ctx))
	assert.Equal(t, 0, f.notificationCount(t, "MONTHLY"))

	f.clock.Set(eastern(2025, time.December, 1, 9, 0))
	require.NoError(t, f.engine.RunOnce(ctx))
	assert.Equal(t, 1, f.notificationCount(t, "MONTHLY"))

	// The generated statement covers November.
	var st statementdomain.Statement
	require.NoError(t, f.conn.First(&st).Error)
	assert.True(t, eastern(2025, time.November, 1, 0, 0).Equal(st.PeriodStart))
	assert.True(t, eastern(2025, time.November, 30, 0, 0).Equal(st.PeriodEnd))
}

func TestFireAdvancesTimestamps(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.seedListing(t, 101, "WEEKLY")
	f.seedWeekly(t, "WEEKLY", "09:00")

	firedAt := eastern(2025, time.December, 1, 9, 0)
	f.clock.Set(firedAt)
	require.NoError(t, f.engine.RunOnce(ctx))

	sched, err := f.schedules.GetByTag(ctx, "WEEKLY")
	require.NoError(t, err)
	require.NotNil(t, sched.LastNotifiedAt)
	assert.True(t, firedAt.Equal(*sched.LastNotifiedAt))
	require.NotNil(t, sched.NextScheduledAt)
	assert.True(t, eastern(2025, time.December, 8, 9, 0).Equal(*sched.NextScheduledAt))
}

func TestNextRunSkipsSkipDates(t *testing.T) {
	f := setup(t, nil)
	f.seedWeekly(t, "WEEKLY", "09:00", "2025-12-08")

	sched, err := f.schedules.GetByTag(context.Background(), "WEEKLY")
	require.NoError(t, err)

	next := f.engine.nextRun(sched, eastern(2025, time.December, 1, 9, 0))
	assert.True(t, eastern(2025, time.December, 15, 9, 0).Equal(next))
}

type flakyStatements struct {
	statementdomain.Service
	failFor snowflake.ID
	calls   int
}

func (s *flakyStatements) GenerateIndividual(ctx context.Context, l listingdomain.Listing, w period.Window) (statementdomain.GenerateResult, error) {
	s.calls++
	if l.ID == s.failFor {
		return statementdomain.GenerateResult{}, errors.New("provider timeout")
	}
	return statementdomain.GenerateResult{Statement: &statementdomain.Statement{ID: snowflake.ID(999)}}, nil
}

func TestFireIsolatesItemFailures(t *testing.T) {
	stub := &flakyStatements{failFor: snowflake.ID(101)}
	f := setup(t, stub)
	ctx := context.Background()
	f.seedListing(t, 101, "WEEKLY")
	f.seedListing(t, 102, "WEEKLY")
	f.seedWeekly(t, "WEEKLY", "09:00")

	firedAt := eastern(2025, time.December, 1, 9, 0)
	f.clock.Set(firedAt)
	require.NoError(t, f.engine.RunOnce(ctx))

	// Both listings were attempted despite the first one failing.
	assert.Equal(t, 2, stub.calls)

	res := f.engine.Status().LastFires["WEEKLY"]
	assert.Equal(t, 1, res.Generated)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, []string{"listing 101"}, res.Failed)

	// The notification and the schedule timestamps are written regardless,
	// and the message names the item that failed.
	list, _, err := f.notifications.List(ctx, notificationdomain.ListNotificationsRequest{TagName: "WEEKLY"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Contains(t, list[0].Message, "1 failed (listing 101)")
	sched, err := f.schedules.GetByTag(ctx, "WEEKLY")
	require.NoError(t, err)
	require.NotNil(t, sched.LastNotifiedAt)
	assert.True(t, firedAt.Equal(*sched.LastNotifiedAt))
}

func TestTriggerManualBypassesDueChecks(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	f.seedListing(t, 101, "WEEKLY")
	f.seedWeekly(t, "WEEKLY", "09:00")

	// A Thursday afternoon, nowhere near the scheduled minute.
	f.clock.Set(eastern(2025, time.December, 4, 15, 23))
	res, err := f.engine.TriggerManual(ctx, "WEEKLY")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Generated)
	assert.Equal(t, 1, f.notificationCount(t, "WEEKLY"))

	_, err = f.engine.TriggerManual(ctx, "NOPE")
	assert.ErrorIs(t, err, scheduledomain.ErrScheduleNotFound)
}
