package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lfk/lfk-backend/internal/cart"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`   // code from codes.go
	Message string `json:"message"` // user-facing text
}

func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "You do not have access to this resource"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "Request is invalid",
		Fields:  fields,
	})
}

// MembershipRedirectResponse tells the client to switch to the membership
// add flow.
type MembershipRedirectResponse struct {
	Success        bool   `json:"success"`
	Membership     bool   `json:"membership"`
	Error          string `json:"error"`
	Message        string `json:"message"`
	MembershipType string `json:"membership_type"`
	Redirect       string `json:"redirect"`
}

// PasswordClassKey is the gin context key holding the class id of a request
// that may need a password prompt.
const PasswordClassKey = "passwordClassID"

// PasswordPromptPath is the client route for a class password prompt.
func PasswordPromptPath(classID uint) string {
	return fmt.Sprintf("/api/v1/cart/password/%d", classID)
}

// PasswordRequiredResponse points the client at the password prompt.
type PasswordRequiredResponse struct {
	ErrorResponse
	Redirect string `json:"redirect,omitempty"`
}

// RespondWithDomainError renders err with ParseError. Membership redirects
// and password prompts carry the route the client should follow.
func RespondWithDomainError(c *gin.Context, err error, context string) {
	info := ParseError(err, context)

	var redirect *cart.MembershipRedirectError
	if errors.As(err, &redirect) {
		c.JSON(info.Status, MembershipRedirectResponse{
			Success:        false,
			Membership:     true,
			Error:          info.Code,
			Message:        info.Message,
			MembershipType: redirect.MembershipType,
			Redirect:       redirect.Redirect(),
		})
		return
	}

	if errors.Is(err, cart.ErrPasswordRequired) {
		body := PasswordRequiredResponse{ErrorResponse: ErrorResponse{Error: info.Code, Message: info.Message}}
		if classID := c.GetUint(PasswordClassKey); classID != 0 {
			body.Redirect = PasswordPromptPath(classID)
		}
		c.JSON(info.Status, body)
		return
	}

	RespondWithError(c, info.Status, info.Code, info.Message)
}
