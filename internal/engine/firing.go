package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hostfolio/payouts/internal/observability/metrics"
	notificationdomain "github.com/hostfolio/payouts/internal/notification/domain"
	"github.com/hostfolio/payouts/internal/period"
	scheduledomain "github.com/hostfolio/payouts/internal/schedule/domain"
	statementdomain "github.com/hostfolio/payouts/internal/statement/domain"
)

const minuteLayout = "2006-01-02 15:04"

// FireResult summarizes one firing of a schedule.
type FireResult struct {
	Tag         string    `json:"tag"`
	FiredAt     time.Time `json:"fired_at"`
	PeriodStart string    `json:"period_start"`
	PeriodEnd   string    `json:"period_end"`
	Generated   int       `json:"generated"`
	Duplicates  int       `json:"duplicates"`
	Errors      int       `json:"errors"`
	Failed      []string  `json:"failed,omitempty"`
}

// due reports whether the schedule should fire at now. now must already be
// in Eastern time.
func (e *Engine) due(sched scheduledomain.Schedule, now time.Time) bool {
	if now.Format("15:04") != sched.TimeOfDay {
		return false
	}
	if sched.SkipsDate(now) {
		return false
	}
	// A schedule fires at most once per minute even when ticks overlap.
	if sched.LastNotifiedAt != nil &&
		sched.LastNotifiedAt.In(period.Location()).Format(minuteLayout) == now.Format(minuteLayout) {
		return false
	}
	return e.dueOn(sched, now)
}

// dueOn checks the calendar-day part of due.
func (e *Engine) dueOn(sched scheduledomain.Schedule, day time.Time) bool {
	switch {
	case sched.Frequency == period.FrequencyWeekly:
		return int(day.Weekday()) == sched.DayOfWeek
	case sched.Frequency.IsBiweekly():
		if int(day.Weekday()) != sched.DayOfWeek {
			return false
		}
		if sched.BiweeklyAnchor == nil {
			e.log.Warn("engine.schedule.missing_anchor", zap.String("tag", sched.TagName))
			return false
		}
		return period.WeeksBetween(*sched.BiweeklyAnchor, day)%2 == 0
	case sched.Frequency == period.FrequencyMonthly:
		return day.Day() == sched.DayOfMonth
	default:
		return false
	}
}

// nextRun walks forward day by day to the next occurrence that is not
// skipped, up to a year out.
func (e *Engine) nextRun(sched scheduledomain.Schedule, after time.Time) time.Time {
	hhmm, err := time.Parse("15:04", sched.TimeOfDay)
	if err != nil {
		hhmm = time.Time{}
	}
	day := period.DateOf(after)
	for i := 1; i <= 366; i++ {
		candidate := day.AddDate(0, 0, i)
		if !e.dueOn(sched, candidate) || sched.SkipsDate(candidate) {
			continue
		}
		return time.Date(candidate.Year(), candidate.Month(), candidate.Day(),
			hhmm.Hour(), hhmm.Minute(), 0, 0, period.Location())
	}
	return after.AddDate(0, 0, 1)
}

// fire generates statements for every group and ungrouped listing carrying
// the schedule's tag. One item failing never stops the others, and the
// notification and schedule timestamps are written regardless of the
// outcome so a broken item cannot wedge the schedule into refiring.
func (e *Engine) fire(ctx context.Context, sched scheduledomain.Schedule, now time.Time) FireResult {
	started := time.Now()
	metrics.Engine().IncFire(sched.TagName)

	window := period.Resolve(sched.Frequency, now)
	res := FireResult{
		Tag:         sched.TagName,
		FiredAt:     now,
		PeriodStart: window.Start.Format(scheduledomain.SkipDateLayout),
		PeriodEnd:   window.End.Format(scheduledomain.SkipDateLayout),
	}

	e.log.Info("engine.fire.start",
		zap.String("tag", sched.TagName),
		zap.String("frequency", string(sched.Frequency)),
		zap.String("period", window.String()),
	)

	var errs []error
	tally := func(gen statementdomain.GenerateResult, scope, item string, err error) {
		if err != nil {
			metrics.Engine().IncItemError(sched.TagName)
			errs = append(errs, err)
			res.Errors++
			res.Failed = append(res.Failed, fmt.Sprintf("%s %s", scope, item))
			return
		}
		if gen.Duplicate {
			metrics.Engine().IncSkipped(scope)
			res.Duplicates++
			return
		}
		metrics.Engine().IncGenerated(scope)
		res.Generated++
	}

	groups, err := e.listings.GroupsByTag(ctx, sched.TagName)
	if err != nil {
		errs = append(errs, fmt.Errorf("list groups: %w", err))
		res.Errors++
		res.Failed = append(res.Failed, "group lookup")
	}
	for _, group := range groups {
		if ctx.Err() != nil {
			break
		}
		members, err := e.listings.GroupMembers(ctx, group.ID)
		if err != nil {
			tally(statementdomain.GenerateResult{}, "group", group.ID.String(), fmt.Errorf("group %s members: %w", group.ID, err))
			continue
		}
		gen, err := e.statements.GenerateGroup(ctx, group, members, window)
		if err != nil {
			err = fmt.Errorf("group %s: %w", group.ID, err)
		}
		tally(gen, "group", group.ID.String(), err)
	}

	listings, err := e.listings.ActiveByTag(ctx, sched.TagName)
	if err != nil {
		errs = append(errs, fmt.Errorf("list listings: %w", err))
		res.Errors++
		res.Failed = append(res.Failed, "listing lookup")
	}
	for _, l := range listings {
		if ctx.Err() != nil {
			break
		}
		gen, err := e.statements.GenerateIndividual(ctx, l, window)
		if err != nil {
			err = fmt.Errorf("listing %s: %w", l.ID, err)
		}
		tally(gen, "listing", l.ID.String(), err)
	}

	if joined := errors.Join(errs...); joined != nil {
		e.log.Error("engine.fire.item_errors",
			zap.String("tag", sched.TagName),
			zap.Int("errors", res.Errors),
			zap.Error(joined),
		)
	}

	e.notify(ctx, sched, now, window, res)

	next := e.nextRun(sched, now)
	if err := e.schedules.MarkFired(ctx, sched.TagName, now, next); err != nil {
		e.log.Error("engine.fire.mark_failed", zap.String("tag", sched.TagName), zap.Error(err))
	}

	metrics.Engine().ObserveFireDuration(sched.TagName, time.Since(started))
	e.log.Info("engine.fire.finish",
		zap.String("tag", sched.TagName),
		zap.Int("generated", res.Generated),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("errors", res.Errors),
		zap.Time("next_run", next),
	)
	return res
}

func (e *Engine) notify(ctx context.Context, sched scheduledomain.Schedule, now time.Time, window period.Window, res FireResult) {
	scheduleID := sched.ID
	msg := fmt.Sprintf("Payout statements for tag %q, period %s: %d generated, %d already existed",
		sched.TagName, window.String(), res.Generated, res.Duplicates)
	if res.Errors > 0 {
		msg = fmt.Sprintf("%s, %d failed (%s)", msg, res.Errors, strings.Join(res.Failed, ", "))
	}
	_, err := e.notifications.Record(ctx, notificationdomain.RecordRequest{
		TagName:      sched.TagName,
		ScheduleID:   &scheduleID,
		Message:      msg,
		ListingCount: res.Generated + res.Duplicates,
		ScheduledFor: now,
	})
	if err != nil {
		e.log.Error("engine.notify.failed", zap.String("tag", sched.TagName), zap.Error(err))
	}
}
