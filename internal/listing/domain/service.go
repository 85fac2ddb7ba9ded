package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrListingNotFound   = errors.New("listing_not_found")
	ErrGroupNotFound     = errors.New("listing_group_not_found")
	ErrInvalidFeePercent = errors.New("invalid_fee_percent")
	ErrInvalidCalcType   = errors.New("invalid_calculation_type")
)

type CreateListingRequest struct {
	Name                 string          `json:"name" binding:"required"`
	Tags                 []string        `json:"tags"`
	OwnerEmail           string          `json:"owner_email" binding:"required"`
	PMFeePercent         decimal.Decimal `json:"pm_fee_percent"`
	CohostOnAirbnb       bool            `json:"cohost_on_airbnb"`
	AirbnbPassThroughTax bool            `json:"airbnb_pass_through_tax"`
	DisregardTax         bool            `json:"disregard_tax"`
	CleaningPassThrough  bool            `json:"cleaning_pass_through"`
	CleaningFee          decimal.Decimal `json:"cleaning_fee"`
	WaiveCommission      bool            `json:"waive_commission"`
	WaiveCommissionUntil *time.Time      `json:"waive_commission_until"`
	GroupID              *string         `json:"group_id"`
	CalculationType      CalculationType `json:"calculation_type"`
}

type UpdateListingRequest struct {
	Name                 *string          `json:"name"`
	Tags                 *[]string        `json:"tags"`
	Active               *bool            `json:"active"`
	OwnerEmail           *string          `json:"owner_email"`
	PMFeePercent         *decimal.Decimal `json:"pm_fee_percent"`
	CohostOnAirbnb       *bool            `json:"cohost_on_airbnb"`
	AirbnbPassThroughTax *bool            `json:"airbnb_pass_through_tax"`
	DisregardTax         *bool            `json:"disregard_tax"`
	CleaningPassThrough  *bool            `json:"cleaning_pass_through"`
	CleaningFee          *decimal.Decimal `json:"cleaning_fee"`
	WaiveCommission      *bool            `json:"waive_commission"`
	WaiveCommissionUntil *time.Time       `json:"waive_commission_until"`
	CalculationType      *CalculationType `json:"calculation_type"`
}

type CreateGroupRequest struct {
	Name            string          `json:"name" binding:"required"`
	Tags            []string        `json:"tags"`
	CalculationType CalculationType `json:"calculation_type"`
}

type Service interface {
	List(ctx context.Context) ([]Listing, error)
	GetByID(ctx context.Context, id string) (Listing, error)
	Create(ctx context.Context, req CreateListingRequest) (Listing, error)
	Update(ctx context.Context, id string, req UpdateListingRequest) (Listing, error)

	ListGroups(ctx context.Context) ([]ListingGroup, error)
	CreateGroup(ctx context.Context, req CreateGroupRequest) (ListingGroup, error)

	// ActiveByTag returns active, non-grouped listings carrying the tag.
	ActiveByTag(ctx context.Context, tag string) ([]Listing, error)
	// GroupsByTag returns groups carrying the tag.
	GroupsByTag(ctx context.Context, tag string) ([]ListingGroup, error)
	// GroupMembers returns the active listings billed through the group.
	GroupMembers(ctx context.Context, groupID snowflake.ID) ([]Listing, error)
}
