package domain

import (
	"context"
	"errors"

	listingdomain "github.com/hostfolio/payouts/internal/listing/domain"
	"github.com/hostfolio/payouts/internal/period"
	"github.com/hostfolio/payouts/pkg/db/pagination"
)

var (
	ErrStatementNotFound = errors.New("statement_not_found")
	ErrIDCollision       = errors.New("statement_id_collision")
	ErrNoMembers         = errors.New("listing_group_has_no_members")
)

// GenerateResult reports the outcome of one generation call. Duplicate is a
// normal skip outcome, not an error: the returned statement is the
// pre-existing row for the same scope and period.
type GenerateResult struct {
	Statement *Statement
	Duplicate bool
}

type ListStatementsRequest struct {
	pagination.Pagination

	Status      Status `form:"status"`
	ReadyToSend bool   `form:"ready_to_send"`
}

type Service interface {
	GenerateIndividual(ctx context.Context, listing listingdomain.Listing, w period.Window) (GenerateResult, error)
	GenerateGroup(ctx context.Context, group listingdomain.ListingGroup, members []listingdomain.Listing, w period.Window) (GenerateResult, error)
	List(ctx context.Context, req ListStatementsRequest) ([]Statement, pagination.PageInfo, error)
	GetByID(ctx context.Context, id string) (Statement, error)

	// MarkReady clears a draft or flagged statement for sending after
	// operator review.
	MarkReady(ctx context.Context, id string) error
	MarkSent(ctx context.Context, id string) error
}
