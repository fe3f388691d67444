package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/lfk/lfk-backend/internal/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseError_CartErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"foreign child", &cart.ForeignChildError{ChildIDs: []uint{9}}, http.StatusForbidden, CartForeignChild},
		{"already enrolled", &cart.AlreadyEnrolledError{ChildName: "Ava Stone"}, http.StatusBadRequest, CartAlreadyEnrolled},
		{"multi coach", cart.ErrMultiCoachConflict, http.StatusConflict, CartMultiCoach},
		{"duplicate membership", cart.ErrDuplicateClass, http.StatusConflict, CartDuplicateClass},
		{"no remaining sessions", cart.ErrNoRemainingSessions, http.StatusUnprocessableEntity, CartNoRemainingSessions},
		{"invalid operation", fmt.Errorf("%w: coupon on donation", cart.ErrInvalidOperation), http.StatusBadRequest, CartInvalidOperation},
		{"invalid amount", cart.ErrInvalidAmount, http.StatusBadRequest, CartInvalidAmount},
		{"unavailable", cart.ErrClassUnavailable, http.StatusNotFound, CartClassUnavailable},
		{"password required", cart.ErrPasswordRequired, http.StatusBadRequest, CartPasswordRequired},
		{"incorrect password", cart.ErrIncorrectPassword, http.StatusBadRequest, CartIncorrectPassword},
		{"membership redirect", &cart.MembershipRedirectError{Alias: "club"}, http.StatusOK, CartMembershipRequired},
		{"row not found", fmt.Errorf("%w: cart row", cart.ErrNotFound), http.StatusNotFound, CartItemNotFound},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound, ResourceNotFound},
		{"duplicate key", fmt.Errorf("ERROR: duplicate key value violates unique constraint"), http.StatusConflict, ResourceAlreadyExists},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, "add class to cart")
			assert.Equal(t, tt.status, info.Status)
			assert.Equal(t, tt.code, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestParseError_KeepsDetailMessages(t *testing.T) {
	info := ParseError(&cart.AlreadyEnrolledError{ChildName: "Ava Stone"}, "add class to cart")
	assert.Equal(t, "Ava Stone is already enrolled in this class", info.Message)

	info = ParseError(&cart.ForeignChildError{ChildIDs: []uint{3, 4}}, "add class to cart")
	assert.Contains(t, info.Message, "3, 4")
}

func TestRespondWithDomainError_MembershipRedirect(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithDomainError(c, &cart.MembershipRedirectError{ClassID: 5, Alias: "swim-club", MembershipType: "monthly"}, "add class to cart")

	require.Equal(t, http.StatusOK, w.Code)
	var body MembershipRedirectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Membership)
	assert.False(t, body.Success)
	assert.Equal(t, "/membership/swim-club", body.Redirect)
	assert.Equal(t, "monthly", body.MembershipType)
}

func TestRespondWithDomainError_PasswordPrompt(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(PasswordClassKey, uint(12))

	RespondWithDomainError(c, cart.ErrPasswordRequired, "add class to cart")

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body PasswordRequiredResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, CartPasswordRequired, body.Error)
	assert.Equal(t, "/api/v1/cart/password/12", body.Redirect)
}

func TestValidationFields(t *testing.T) {
	type request struct {
		ClassID uint   `json:"class_id" validate:"required"`
		Code    string `json:"code" validate:"min=3"`
	}

	v := validator.New()
	err := v.Struct(request{Code: "ab"})
	require.Error(t, err)

	fields := ValidationFields(err)
	assert.Equal(t, "is required", fields["ClassID"])
	assert.Equal(t, "must be at least 3", fields["Code"])

	assert.Equal(t, map[string]string{"body": "is malformed"}, ValidationFields(fmt.Errorf("unexpected EOF")))
}
