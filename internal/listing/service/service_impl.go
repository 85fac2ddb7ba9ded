package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	listingdomain "github.com/hostfolio/payouts/internal/listing/domain"
	"github.com/hostfolio/payouts/pkg/repository"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	listings repository.Repository[listingdomain.Listing]
	groups   repository.Repository[listingdomain.ListingGroup]
}

func NewService(p ServiceParam) listingdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("listing.service"),

		genID:    p.GenID,
		listings: repository.ProvideStore[listingdomain.Listing](p.DB),
		groups:   repository.ProvideStore[listingdomain.ListingGroup](p.DB),
	}
}

func (s *Service) List(ctx context.Context) ([]listingdomain.Listing, error) {
	rows, err := s.listings.Find(ctx, &listingdomain.Listing{})
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (listingdomain.Listing, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		return listingdomain.Listing{}, listingdomain.ErrListingNotFound
	}
	row, err := s.listings.FindOne(ctx, &listingdomain.Listing{ID: parsed})
	if err != nil {
		return listingdomain.Listing{}, err
	}
	if row == nil {
		return listingdomain.Listing{}, listingdomain.ErrListingNotFound
	}
	return *row, nil
}

func (s *Service) Create(ctx context.Context, req listingdomain.CreateListingRequest) (listingdomain.Listing, error) {
	if err := validateFeePercent(req.PMFeePercent); err != nil {
		return listingdomain.Listing{}, err
	}
	calcType := req.CalculationType
	if calcType == "" {
		calcType = listingdomain.CalculationCheckout
	}
	if !calcType.Valid() {
		return listingdomain.Listing{}, listingdomain.ErrInvalidCalcType
	}

	var groupID *snowflake.ID
	if req.GroupID != nil {
		parsed, err := snowflake.ParseString(*req.GroupID)
		if err != nil {
			return listingdomain.Listing{}, listingdomain.ErrGroupNotFound
		}
		group, err := s.groups.FindOne(ctx, &listingdomain.ListingGroup{ID: parsed})
		if err != nil {
			return listingdomain.Listing{}, err
		}
		if group == nil {
			return listingdomain.Listing{}, listingdomain.ErrGroupNotFound
		}
		groupID = &parsed
	}

	row := listingdomain.Listing{
		ID:                   s.genID.Generate(),
		Name:                 req.Name,
		Tags:                 datatypes.NewJSONSlice(req.Tags),
		Active:               true,
		OwnerEmail:           req.OwnerEmail,
		PMFeePercent:         req.PMFeePercent,
		CohostOnAirbnb:       req.CohostOnAirbnb,
		AirbnbPassThroughTax: req.AirbnbPassThroughTax,
		DisregardTax:         req.DisregardTax,
		CleaningPassThrough:  req.CleaningPassThrough,
		CleaningFee:          req.CleaningFee,
		WaiveCommission:      req.WaiveCommission,
		WaiveCommissionUntil: req.WaiveCommissionUntil,
		GroupID:              groupID,
		CalculationType:      calcType,
	}
	if err := s.listings.Create(ctx, &row); err != nil {
		return listingdomain.Listing{}, fmt.Errorf("create listing: %w", err)
	}
	return row, nil
}

func (s *Service) Update(ctx context.Context, id string, req listingdomain.UpdateListingRequest) (listingdomain.Listing, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return listingdomain.Listing{}, err
	}

	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Tags != nil {
		current.Tags = datatypes.NewJSONSlice(*req.Tags)
	}
	if req.Active != nil {
		current.Active = *req.Active
	}
	if req.OwnerEmail != nil {
		current.OwnerEmail = *req.OwnerEmail
	}
	if req.PMFeePercent != nil {
		if err := validateFeePercent(*req.PMFeePercent); err != nil {
			return listingdomain.Listing{}, err
		}
		current.PMFeePercent = *req.PMFeePercent
	}
	if req.CohostOnAirbnb != nil {
		current.CohostOnAirbnb = *req.CohostOnAirbnb
	}
	if req.AirbnbPassThroughTax != nil {
		current.AirbnbPassThroughTax = *req.AirbnbPassThroughTax
	}
	if req.DisregardTax != nil {
		current.DisregardTax = *req.DisregardTax
	}
	if req.CleaningPassThrough != nil {
		current.CleaningPassThrough = *req.CleaningPassThrough
	}
	if req.CleaningFee != nil {
		current.CleaningFee = *req.CleaningFee
	}
	if req.WaiveCommission != nil {
		current.WaiveCommission = *req.WaiveCommission
	}
	if req.WaiveCommissionUntil != nil {
		current.WaiveCommissionUntil = req.WaiveCommissionUntil
	}
	if req.CalculationType != nil {
		if !req.CalculationType.Valid() {
			return listingdomain.Listing{}, listingdomain.ErrInvalidCalcType
		}
		current.CalculationType = *req.CalculationType
	}

	if err := s.db.WithContext(ctx).Save(&current).Error; err != nil {
		return listingdomain.Listing{}, fmt.Errorf("update listing: %w", err)
	}
	return current, nil
}

func (s *Service) ListGroups(ctx context.Context) ([]listingdomain.ListingGroup, error) {
	rows, err := s.groups.Find(ctx, &listingdomain.ListingGroup{})
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func (s *Service) CreateGroup(ctx context.Context, req listingdomain.CreateGroupRequest) (listingdomain.ListingGroup, error) {
	calcType := req.CalculationType
	if calcType == "" {
		calcType = listingdomain.CalculationCheckout
	}
	if !calcType.Valid() {
		return listingdomain.ListingGroup{}, listingdomain.ErrInvalidCalcType
	}
	row := listingdomain.ListingGroup{
		ID:              s.genID.Generate(),
		Name:            req.Name,
		Tags:            datatypes.NewJSONSlice(req.Tags),
		CalculationType: calcType,
	}
	if err := s.groups.Create(ctx, &row); err != nil {
		return listingdomain.ListingGroup{}, fmt.Errorf("create listing group: %w", err)
	}
	return row, nil
}

// Tag membership lives in a JSON column, so tag filters run in Go. Fleet
// sizes here are tens to low hundreds of rows.
func (s *Service) ActiveByTag(ctx context.Context, tag string) ([]listingdomain.Listing, error) {
	rows, err := s.listings.Find(ctx, &listingdomain.Listing{Active: true})
	if err != nil {
		return nil, err
	}
	var matched []listingdomain.Listing
	for _, row := range rows {
		if row.Grouped() {
			continue
		}
		if row.HasTag(tag) {
			matched = append(matched, *row)
		}
	}
	return matched, nil
}

func (s *Service) GroupsByTag(ctx context.Context, tag string) ([]listingdomain.ListingGroup, error) {
	rows, err := s.groups.Find(ctx, &listingdomain.ListingGroup{})
	if err != nil {
		return nil, err
	}
	var matched []listingdomain.ListingGroup
	for _, row := range rows {
		if row.HasTag(tag) {
			matched = append(matched, *row)
		}
	}
	return matched, nil
}

func (s *Service) GroupMembers(ctx context.Context, groupID snowflake.ID) ([]listingdomain.Listing, error) {
	rows, err := s.listings.Find(ctx, &listingdomain.Listing{GroupID: &groupID, Active: true})
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func validateFeePercent(pct decimal.Decimal) error {
	if pct.LessThanOrEqual(decimal.Zero) || pct.GreaterThan(decimal.NewFromInt(100)) {
		return listingdomain.ErrInvalidFeePercent
	}
	return nil
}

func deref[T any](rows []*T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out
}
