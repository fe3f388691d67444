package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lfk/lfk-backend/internal/cart"
	"gorm.io/gorm"
)

// ErrorInfo is the client-facing rendering of an error.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

type cartRule struct {
	target  error
	status  int
	code    string
	message string // empty means use err.Error()
}

// Checked in order; detail types come before the sentinels they match.
var cartRules = []cartRule{
	{cart.ErrForeignChild, http.StatusForbidden, CartForeignChild, ""},
	{cart.ErrAlreadyEnrolled, http.StatusBadRequest, CartAlreadyEnrolled, ""},
	{cart.ErrMultiCoachConflict, http.StatusConflict, CartMultiCoach, "You cannot add classes from different coaches to the same cart"},
	{cart.ErrDuplicateClass, http.StatusConflict, CartDuplicateClass, "This membership is already in your cart"},
	{cart.ErrNoRemainingSessions, http.StatusUnprocessableEntity, CartNoRemainingSessions, "This class has no remaining sessions this month"},
	{cart.ErrInvalidOperation, http.StatusBadRequest, CartInvalidOperation, ""},
	{cart.ErrInvalidAmount, http.StatusBadRequest, CartInvalidAmount, "Donation amount must be greater than zero and a donation type is required"},
	{cart.ErrClassUnavailable, http.StatusNotFound, CartClassUnavailable, "Class not found"},
	{cart.ErrPasswordRequired, http.StatusBadRequest, CartPasswordRequired, "Password required for this class"},
	{cart.ErrIncorrectPassword, http.StatusBadRequest, CartIncorrectPassword, "Incorrect Password"},
	{cart.ErrMembershipFlowRequired, http.StatusOK, CartMembershipRequired, "This class is a membership. Please proceed to membership options."},
	{cart.ErrNotFound, http.StatusNotFound, CartItemNotFound, ""},
}

// ParseError converts err into a status, code and message. context names the
// failed action and is used for the fallback message.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "Something went wrong"}
	}

	for _, rule := range cartRules {
		if errors.Is(err, rule.target) {
			msg := rule.message
			if msg == "" {
				msg = capitalize(err.Error())
			}
			return ErrorInfo{Status: rule.status, Code: rule.code, Message: msg}
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: "The requested " + nounFor(context) + " was not found"}
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint"):
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: "This " + nounFor(context) + " already exists"}
	case strings.Contains(errLower, "foreign key constraint"):
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceConflict, Message: "The " + nounFor(context) + " references data that does not exist"}
	case strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout"):
		return ErrorInfo{Status: http.StatusServiceUnavailable, Code: InternalExternalAPI, Message: "A backing service is unavailable, please try again shortly"}
	}

	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "Failed to " + context + ", please try again shortly"}
}

func nounFor(context string) string {
	switch {
	case strings.Contains(context, "cart"):
		return "cart item"
	case strings.Contains(context, "class"):
		return "class"
	case strings.Contains(context, "child"):
		return "child"
	case strings.Contains(context, "coupon"):
		return "coupon"
	}
	return "resource"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
