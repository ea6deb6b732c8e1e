package http

import (
	"context"
	"errors"
	"net/http"

	"microfinance-backoffice/internal/domain/branch"
	"microfinance-backoffice/internal/domain/customer"
	"microfinance-backoffice/internal/domain/identity"
	"microfinance-backoffice/internal/domain/loan"
	"microfinance-backoffice/internal/domain/payment"
	"microfinance-backoffice/internal/domain/schedule"
	"microfinance-backoffice/internal/domain/user"
	authuc "microfinance-backoffice/internal/usecase/auth"
	branchuc "microfinance-backoffice/internal/usecase/branch"
	customeruc "microfinance-backoffice/internal/usecase/customer"
	loanuc "microfinance-backoffice/internal/usecase/loan"
	paymentuc "microfinance-backoffice/internal/usecase/payment"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type statusRule struct {
	err    error
	status int
	// public replaces err.Error() so wrapped provider detail stays internal
	public bool
}

// rules are checked in order with errors.Is.
var rules = []statusRule{
	{authuc.ErrEmailNotConfirmed, http.StatusUnauthorized, true},
	{authuc.ErrInvalidCredentials, http.StatusUnauthorized, true},
	{authuc.ErrProfileNotFound, http.StatusUnauthorized, true},
	{identity.ErrInvalidToken, http.StatusUnauthorized, true},
	{user.ErrInactive, http.StatusForbidden, true},
	{user.ErrForbidden, http.StatusForbidden, false},
	{loan.ErrOutOfScope, http.StatusForbidden, false},

	{loan.ErrNotFound, http.StatusNotFound, false},
	{loan.ErrProductNotFound, http.StatusNotFound, false},
	{customer.ErrNotFound, http.StatusNotFound, false},
	{user.ErrNotFound, http.StatusNotFound, false},
	{branch.ErrNotFound, http.StatusNotFound, false},
	{payment.ErrNotFound, http.StatusNotFound, false},

	{loan.ErrInvalidTransition, http.StatusConflict, false},
	{loan.ErrAlreadyApproved, http.StatusConflict, false},
	{loan.ErrScheduleNotRepairable, http.StatusConflict, false},
	{loan.ErrScheduleInProgress, http.StatusConflict, false},
	{payment.ErrVersionConflict, http.StatusConflict, false},
	{paymentuc.ErrLoanNotDisbursed, http.StatusConflict, false},
	{user.ErrDuplicate, http.StatusConflict, false},
	{identity.ErrEmailTaken, http.StatusConflict, false},
	{branch.ErrDuplicateCode, http.StatusConflict, false},

	// generation runs in the database; the caller can retry or repair
	{loan.ErrScheduleFailed, http.StatusBadGateway, false},
	{loan.ErrScheduleIncomplete, http.StatusBadGateway, false},

	{loan.ErrRejectionReasonRequired, http.StatusUnprocessableEntity, false},
	{loan.ErrInvalidDates, http.StatusUnprocessableEntity, false},
	{loan.ErrInactiveReference, http.StatusUnprocessableEntity, false},
	{loanuc.ErrMissingFields, http.StatusUnprocessableEntity, false},
	{customer.ErrInactive, http.StatusUnprocessableEntity, false},
	{customer.ErrGuarantorRequired, http.StatusUnprocessableEntity, false},
	{customer.ErrPrimaryGuarantorRequired, http.StatusUnprocessableEntity, false},
	{customer.ErrSecondaryGuarantorLimit, http.StatusUnprocessableEntity, false},
	{customer.ErrTooManyGuarantors, http.StatusUnprocessableEntity, false},
	{customer.ErrInvalidGuarantorType, http.StatusUnprocessableEntity, false},
	{customeruc.ErrMissingFields, http.StatusUnprocessableEntity, false},
	{customeruc.ErrAgentRequired, http.StatusUnprocessableEntity, false},
	{user.ErrInvalidRole, http.StatusUnprocessableEntity, false},
	{user.ErrBranchRequired, http.StatusUnprocessableEntity, false},
	{user.ErrBranchNotAllowed, http.StatusUnprocessableEntity, false},
	{payment.ErrInvalidDay, http.StatusUnprocessableEntity, false},
	{payment.ErrWeekStartNotMonday, http.StatusUnprocessableEntity, false},
	{payment.ErrInvalidMethod, http.StatusUnprocessableEntity, false},
	{payment.ErrInvalidTxType, http.StatusUnprocessableEntity, false},
	{paymentuc.ErrIdentityMismatch, http.StatusUnprocessableEntity, false},
	{paymentuc.ErrInvalidAmount, http.StatusUnprocessableEntity, false},
	{paymentuc.ErrMissingIdentity, http.StatusUnprocessableEntity, false},
	{schedule.ErrInvalidRequest, http.StatusUnprocessableEntity, false},
	{branchuc.ErrMissingFields, http.StatusUnprocessableEntity, false},
	{authuc.ErrMissingFields, http.StatusUnprocessableEntity, false},
	{identity.ErrWeakPassword, http.StatusUnprocessableEntity, false},

	{identity.ErrInvalidConfirmation, http.StatusBadRequest, false},
}

// statusOf maps a usecase error to its HTTP status and client message.
// Unknown errors are internal.
func statusOf(err error) (int, string) {
	for _, r := range rules {
		if errors.Is(err, r.err) {
			if r.public {
				return r.status, r.err.Error()
			}
			return r.status, err.Error()
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "request timed out"
	}
	return http.StatusInternalServerError, "internal error"
}

func respondError(c echo.Context, log *zap.Logger, err error) error {
	status, msg := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err))
	}
	return c.JSON(status, ErrorResponse{Error: msg})
}

// bindAndValidate answers 400 for malformed bodies and 422 for invalid ones.
// It reports whether the handler may continue.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
