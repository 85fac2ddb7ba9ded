package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	bookingdomain "github.com/hostfolio/payouts/internal/booking/domain"
	listingdomain "github.com/hostfolio/payouts/internal/listing/domain"
	"github.com/hostfolio/payouts/internal/period"
	statementdomain "github.com/hostfolio/payouts/internal/statement/domain"
	"github.com/hostfolio/payouts/pkg/db"
	"github.com/hostfolio/payouts/pkg/db/option"
	"github.com/hostfolio/payouts/pkg/db/pagination"
	"github.com/hostfolio/payouts/pkg/repository"
)

// createAttempts bounds the insert retry used when a generated snowflake ID
// collides with an existing row. Scope/period duplicates are detected and
// returned before an attempt is consumed.
const createAttempts = 3

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Reservations bookingdomain.ReservationProvider
	Expenses     bookingdomain.ExpenseProvider
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID        *snowflake.Node
	reservations bookingdomain.ReservationProvider
	expenses     bookingdomain.ExpenseProvider
	statements   repository.Repository[statementdomain.Statement]
}

func NewService(p ServiceParam) statementdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("statement.service"),

		genID:        p.GenID,
		reservations: p.Reservations,
		expenses:     p.Expenses,
		statements:   repository.ProvideStore[statementdomain.Statement](p.DB),
	}
}

func (s *Service) GenerateIndividual(ctx context.Context, listing listingdomain.Listing, w period.Window) (statementdomain.GenerateResult, error) {
	scopeKey := statementdomain.ListingScopeKey(listing.ID)
	if existing, err := s.findExisting(ctx, scopeKey, w); err != nil || existing != nil {
		return statementdomain.GenerateResult{Statement: existing, Duplicate: existing != nil}, err
	}

	basis := listing.CalculationType
	if !basis.Valid() {
		basis = listingdomain.CalculationCheckout
	}

	agg, err := s.aggregateProperty(ctx, listing, basis, w)
	if err != nil {
		return statementdomain.GenerateResult{}, err
	}
	agg = agg.round()

	propertyID := listing.ID
	st := s.buildStatement(scopeKey, w, basis, agg, []listingdomain.Listing{listing})
	st.PropertyID = &propertyID

	return s.createWithGuard(ctx, st, scopeKey, w)
}

func (s *Service) GenerateGroup(ctx context.Context, group listingdomain.ListingGroup, members []listingdomain.Listing, w period.Window) (statementdomain.GenerateResult, error) {
	if len(members) == 0 {
		return statementdomain.GenerateResult{}, statementdomain.ErrNoMembers
	}

	scopeKey := statementdomain.GroupScopeKey(group.ID)
	if existing, err := s.findExisting(ctx, scopeKey, w); err != nil || existing != nil {
		return statementdomain.GenerateResult{Statement: existing, Duplicate: existing != nil}, err
	}

	basis := group.CalculationType
	if !basis.Valid() {
		basis = listingdomain.CalculationCheckout
	}

	combined := aggregate{}
	memberIDs := make([]string, 0, len(members))
	for _, member := range members {
		memberIDs = append(memberIDs, member.ID.String())
		agg, err := s.aggregateProperty(ctx, member, basis, w)
		if err != nil {
			return statementdomain.GenerateResult{}, fmt.Errorf("aggregate member %s: %w", member.ID, err)
		}
		combined = combined.add(agg)
	}
	combined = combined.round()

	groupID := group.ID
	st := s.buildStatement(scopeKey, w, basis, combined, members)
	st.GroupID = &groupID
	st.MemberPropertyIDs = datatypes.NewJSONSlice(memberIDs)

	return s.createWithGuard(ctx, st, scopeKey, w)
}

func (s *Service) aggregateProperty(ctx context.Context, listing listingdomain.Listing, basis listingdomain.CalculationType, w period.Window) (aggregate, error) {
	reservations, err := s.reservations.Reservations(ctx, w, listing.ID, basis)
	if err != nil {
		return aggregate{}, fmt.Errorf("fetch reservations: %w", err)
	}
	expenses, err := s.expenses.Expenses(ctx, w, listing.ID)
	if err != nil {
		return aggregate{}, fmt.Errorf("fetch expenses: %w", err)
	}
	return aggregateListing(listing, basis, reservations, expenses, w), nil
}

func (s *Service) buildStatement(scopeKey string, w period.Window, basis listingdomain.CalculationType, agg aggregate, settingsOf []listingdomain.Listing) *statementdomain.Statement {
	st := &statementdomain.Statement{
		ScopeKey:          scopeKey,
		PeriodStart:       w.Start,
		PeriodEnd:         w.End,
		CalculationType:   basis,
		TotalRevenue:      agg.Revenue,
		TotalExpenses:     agg.Expenses,
		TotalUpsells:      agg.Upsells,
		TotalCleaningFees: agg.CleaningFees,
		PMCommission:      agg.Commission,
		OwnerPayout:       agg.Payout,
		Status:            statementdomain.StatusDraft,
	}

	// Guardrails: the statement is still created, but flagged out of the
	// ready-to-send set so an operator reviews it.
	switch {
	case agg.Payout.IsNegative():
		st.Status = statementdomain.StatusFlaggedNegativeBalance
	case agg.Revenue.IsZero() && agg.Payout.IsZero():
		st.Status = statementdomain.StatusFlaggedNoActivity
	}

	snapshot := make([]statementdomain.SettingsSnapshotEntry, 0, len(settingsOf))
	for _, l := range settingsOf {
		snapshot = append(snapshot, statementdomain.SettingsSnapshotEntry{
			PropertyID:           l.ID.String(),
			PMFeePercent:         l.PMFeePercent,
			CohostOnAirbnb:       l.CohostOnAirbnb,
			AirbnbPassThroughTax: l.AirbnbPassThroughTax,
			DisregardTax:         l.DisregardTax,
			CleaningPassThrough:  l.CleaningPassThrough,
			CleaningFee:          l.CleaningFee,
			WaiveCommission:      l.WaiveCommission,
			WaiveCommissionUntil: l.WaiveCommissionUntil,
			CalculationType:      string(basis),
		})
	}
	st.SettingsSnapshot = mustJSON(snapshot)
	st.Reservations = mustJSON(agg.ReservationLines)
	st.Expenses = mustJSON(agg.ExpenseLines)
	return st
}

func (s *Service) findExisting(ctx context.Context, scopeKey string, w period.Window) (*statementdomain.Statement, error) {
	return s.statements.FindOne(ctx, &statementdomain.Statement{},
		option.WithWhere("scope_key = ? AND period_start = ? AND period_end = ?", scopeKey, w.Start, w.End),
	)
}

// createWithGuard inserts the statement. A uniqueness violation is either a
// lost race on (scope, period), resolved by returning the row that won, or
// a snowflake ID collision, retried with a fresh ID.
func (s *Service) createWithGuard(ctx context.Context, st *statementdomain.Statement, scopeKey string, w period.Window) (statementdomain.GenerateResult, error) {
	for attempt := 0; attempt < createAttempts; attempt++ {
		st.ID = s.genID.Generate()
		err := s.statements.Create(ctx, st)
		if err == nil {
			s.log.Info("statement.generated",
				zap.String("scope", scopeKey),
				zap.String("period", w.String()),
				zap.String("statement_id", st.ID.String()),
				zap.String("status", string(st.Status)),
			)
			return statementdomain.GenerateResult{Statement: st}, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return statementdomain.GenerateResult{}, fmt.Errorf("create statement: %w", err)
		}

		existing, findErr := s.findExisting(ctx, scopeKey, w)
		if findErr != nil {
			return statementdomain.GenerateResult{}, findErr
		}
		if existing != nil {
			s.log.Info("statement.duplicate_skipped",
				zap.String("scope", scopeKey),
				zap.String("period", w.String()),
				zap.String("existing_id", existing.ID.String()),
			)
			return statementdomain.GenerateResult{Statement: existing, Duplicate: true}, nil
		}
		// No row for this scope/period: the collision was on the primary
		// key. Loop regenerates the ID.
	}
	return statementdomain.GenerateResult{}, statementdomain.ErrIDCollision
}

func (s *Service) List(ctx context.Context, req statementdomain.ListStatementsRequest) ([]statementdomain.Statement, pagination.PageInfo, error) {
	page := req.Pagination.Normalize()

	filters := []option.QueryOption{}
	if req.Status != "" {
		filters = append(filters, option.WithWhere("status = ?", req.Status))
	}
	if req.ReadyToSend {
		filters = append(filters, option.WithWhere("status IN ?",
			[]statementdomain.Status{statementdomain.StatusDraft, statementdomain.StatusReady}))
	}

	var total int64
	countQuery := s.db.WithContext(ctx).Model(&statementdomain.Statement{})
	for _, f := range filters {
		countQuery = f.Apply(countQuery)
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, pagination.PageInfo{}, err
	}

	opts := append(filters,
		option.WithOrder("period_start DESC"),
		option.WithLimit(page.PageSize),
		option.WithOffset(page.Offset()),
	)
	rows, err := s.statements.Find(ctx, &statementdomain.Statement{}, opts...)
	if err != nil {
		return nil, pagination.PageInfo{}, err
	}
	out := make([]statementdomain.Statement, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, pagination.BuildPageInfo(page, total), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (statementdomain.Statement, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		return statementdomain.Statement{}, statementdomain.ErrStatementNotFound
	}
	row, err := s.statements.FindOne(ctx, &statementdomain.Statement{ID: parsed})
	if err != nil {
		return statementdomain.Statement{}, err
	}
	if row == nil {
		return statementdomain.Statement{}, statementdomain.ErrStatementNotFound
	}
	return *row, nil
}

func (s *Service) MarkReady(ctx context.Context, id string) error {
	st, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if st.Status == statementdomain.StatusSent {
		return fmt.Errorf("statement %s already sent", id)
	}
	return s.statements.Update(ctx, id, map[string]any{"status": statementdomain.StatusReady})
}

func (s *Service) MarkSent(ctx context.Context, id string) error {
	st, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !st.EligibleForSend() {
		return fmt.Errorf("statement %s not eligible for send (status %s)", id, st.Status)
	}
	return s.statements.Update(ctx, id, map[string]any{"status": statementdomain.StatusSent})
}

func mustJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		// Line types marshal cleanly by construction.
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}
