package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	listingdomain "github.com/hostfolio/payouts/internal/listing/domain"
	notificationdomain "github.com/hostfolio/payouts/internal/notification/domain"
	"github.com/hostfolio/payouts/internal/period"
	scheduledomain "github.com/hostfolio/payouts/internal/schedule/domain"
	statementdomain "github.com/hostfolio/payouts/internal/statement/domain"
)

type apiError struct {
	Error string `json:"error"`
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusOf(err), apiError{Error: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, listingdomain.ErrListingNotFound),
		errors.Is(err, listingdomain.ErrGroupNotFound),
		errors.Is(err, scheduledomain.ErrScheduleNotFound),
		errors.Is(err, statementdomain.ErrStatementNotFound),
		errors.Is(err, notificationdomain.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, scheduledomain.ErrScheduleExists):
		return http.StatusConflict
	case errors.Is(err, period.ErrUnknownFrequency),
		errors.Is(err, listingdomain.ErrInvalidFeePercent),
		errors.Is(err, listingdomain.ErrInvalidCalcType),
		errors.Is(err, scheduledomain.ErrInvalidTimeOfDay),
		errors.Is(err, scheduledomain.ErrInvalidDayOfWeek),
		errors.Is(err, scheduledomain.ErrInvalidDayOfMonth),
		errors.Is(err, scheduledomain.ErrAnchorRequired),
		errors.Is(err, statementdomain.ErrNoMembers):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
