package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lfk/lfk-backend/internal/app/model"
	"github.com/lfk/lfk-backend/internal/app/repository"
	"github.com/lfk/lfk-backend/internal/app/service"
	"github.com/lfk/lfk-backend/internal/cart"
	"github.com/lfk/lfk-backend/internal/db"
	apperrors "github.com/lfk/lfk-backend/internal/errors"
	"github.com/lfk/lfk-backend/internal/middleware"
	"github.com/lfk/lfk-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var controllerNow = time.Date(2026, time.February, 12, 15, 0, 0, 0, time.UTC)

type cartControllerFixture struct {
	router   *gin.Engine
	token    string
	children []model.Child
	soccer   *model.Event
	swim     *model.Event
	private  *model.Event
	club     *model.Event
}

type cartBody struct {
	Items []struct {
		RowID    string          `json:"row_id"`
		Kind     string          `json:"kind"`
		Quantity int             `json:"quantity"`
		Price    decimal.Decimal `json:"current_price"`
	} `json:"items"`
	Meta       map[string]interface{} `json:"meta"`
	AutoEnroll bool                   `json:"auto_enroll"`
	Count      int                    `json:"count"`
}

func decodeCart(t *testing.T, raw []byte) cartBody {
	t.Helper()
	var body cartBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func setupCartControllerTest(t *testing.T) *cartControllerFixture {
	gin.SetMode(gin.TestMode)
	apperrors.RegisterJSONFieldNames()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	coach := &model.User{Email: "coach@example.com", PasswordHash: "hash", FirstName: "Sam", Role: model.RoleCoach}
	otherCoach := &model.User{Email: "coach2@example.com", PasswordHash: "hash", FirstName: "Kim", Role: model.RoleCoach}
	parent := &model.User{Email: "parent@example.com", PasswordHash: "hash", FirstName: "Dana", Role: model.RoleParent}
	for _, u := range []*model.User{coach, otherCoach, parent} {
		require.NoError(t, testDB.Create(u).Error)
	}

	children := []model.Child{
		{UserID: parent.ID, FirstName: "Ava", LastName: "Stone"},
		{UserID: parent.ID, FirstName: "Leo", LastName: "Stone"},
	}
	require.NoError(t, testDB.Create(&children).Error)

	newEvent := func(coachID uint, alias, price string) *model.Event {
		return &model.Event{
			CoachID:   coachID,
			Title:     alias,
			Alias:     alias,
			Price:     decimal.RequireFromString(price),
			Enabled:   true,
			StartDate: time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, time.May, 25, 0, 0, 0, 0, time.UTC),
		}
	}
	soccer := newEvent(coach.ID, "soccer", "30")
	swim := newEvent(otherCoach.ID, "swim", "25")
	private := newEvent(coach.ID, "private", "50")
	hash, err := util.HashPassword("letmein")
	require.NoError(t, err)
	private.PasswordHash = hash
	club := newEvent(coach.ID, "club", "0")
	club.IsMembership = true
	club.MembershipType = cart.SubscriptionMonthly
	club.EndDate = time.Date(2026, time.February, 23, 0, 0, 0, 0, time.UTC)
	for _, e := range []*model.Event{soccer, swim, private, club} {
		require.NoError(t, testDB.Create(e).Error)
	}
	require.NoError(t, testDB.Create(&model.MembershipPlan{EventID: club.ID, SubscriptionType: cart.SubscriptionMonthly, Price: decimal.RequireFromString("100")}).Error)

	cartService := service.NewCartService(
		repository.NewMemoryCartSessionRepository(),
		repository.NewEventRepository(testDB),
		repository.NewChildRepository(testDB),
		repository.NewRosterRepository(testDB),
		repository.NewCouponRepository(testDB),
		cart.DefaultPricing(),
		service.WithCartClock(func() time.Time { return controllerNow }),
	)
	ctrl := NewCartController(cartService)
	authMiddleware := middleware.NewAuthMiddleware(testSecret)

	router := gin.New()
	group := router.Group("/api/v1/cart", authMiddleware.Authenticate())
	group.GET("", ctrl.GetCart)
	group.DELETE("", ctrl.ClearCart)
	group.GET("/membership", ctrl.GetMembershipCart)
	group.GET("/children", ctrl.GetChildren)
	group.GET("/validate", ctrl.Validate)
	group.POST("/items", ctrl.AddClass)
	group.DELETE("/items/:rowId", ctrl.RemoveItem)
	group.PUT("/items/:rowId/children", ctrl.UpdateChildren)
	group.POST("/items/:rowId/coupon", ctrl.ApplyCoupon)
	group.DELETE("/items/:rowId/coupon", ctrl.RemoveCoupon)
	group.POST("/memberships", ctrl.AddMembership)
	group.POST("/donations", ctrl.AddDonation)
	group.PUT("/donations/:rowId", ctrl.UpdateDonation)
	group.POST("/autoenroll", ctrl.SetAutoEnroll)
	group.GET("/password/:classId", ctrl.PasswordPrompt)
	group.POST("/password/:classId", ctrl.ConfirmPassword)

	tokens, err := util.GenerateTokenPair(parent.ID, parent.Email, string(parent.Role), testSecret, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	return &cartControllerFixture{
		router:   router,
		token:    tokens.AccessToken,
		children: children,
		soccer:   soccer,
		swim:     swim,
		private:  private,
		club:     club,
	}
}

func TestCartController_RequiresAuth(t *testing.T) {
	f := setupCartControllerTest(t)

	w := doJSON(f.router, http.MethodGet, "/api/v1/cart", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartController_AddClassAndGetCart(t *testing.T) {
	f := setupCartControllerTest(t)

	w := doJSON(f.router, http.MethodPost, "/api/v1/cart/items", AddClassRequest{
		ClassID:  f.soccer.ID,
		ChildIDs: []uint{f.children[0].ID, f.children[1].ID},
	}, f.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(f.router, http.MethodGet, "/api/v1/cart", nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeCart(t, w.Body.Bytes())

	require.Len(t, body.Items, 1)
	assert.Equal(t, 2, body.Items[0].Quantity)
	assert.Equal(t, "24", body.Meta["total"])
	assert.Equal(t, "6", body.Meta["sibling_discount"])
	assert.NotContains(t, body.Meta, "membership_price")
}

func TestCartController_AddClass_Validation(t *testing.T) {
	f := setupCartControllerTest(t)

	w := doJSON(f.router, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{"childs": []uint{1}}, f.token)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body apperrors.ValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "is required", body.Fields["class_id"])
}

func TestCartController_AddClass_ErrorMapping(t *testing.T) {
	f := setupCartControllerTest(t)

	w := doJSON(f.router, http.MethodPost, "/api/v1/cart/items", AddClassRequest{ClassID: f.soccer.ID}, f.token)
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name   string
		req    AddClassRequest
		status int
		code   string
	}{
		{name: "different coach", req: AddClassRequest{ClassID: f.swim.ID}, status: http.StatusConflict, code: apperrors.CartMultiCoach},
		{name: "unknown class", req: AddClassRequest{ClassID: 9999}, status: http.StatusNotFound, code: apperrors.CartItemNotFound},
		{name: "foreign child", req: AddClassRequest{ClassID: f.soccer.ID, ChildIDs: []uint{9999}}, status: http.StatusForbidden, code: apperrors.CartForeignChild},
		{name: "password class", req: AddClassRequest{ClassID: f.private.ID}, status: http.StatusBadRequest, code: apperrors.CartPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(f.router, http.MethodPost, "/api/v1/cart/items", tt.req, f.token)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestCartController_MembershipRedirect(t *testing.T) {
	f := setupCartControllerTest(t)

	w := doJSON(f.router, http.MethodPost, "/api/v1/cart/items", AddClassRequest{ClassID: f.club.ID}, f.token)

	require.Equal(t, http.StatusOK, w.Code)
	var body apperrors.MembershipRedirectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Membership)
	assert.Equal(t, "/membership/club", body.Redirect)

	w = doJSON(f.router, http.MethodPost, "/api/v1/cart/memberships", AddMembershipRequest{
		ClassID:          f.club.ID,
		SubscriptionType: cart.SubscriptionMonthly,
	}, f.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(f.router, http.MethodGet, "/api/v1/cart/membership", nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	cartResp := decodeCart(t, w.Body.Bytes())
	assert.Equal(t, "100", cartResp.Meta["membership_price"])
	assert.Equal(t, "50", cartResp.Meta["total"])
	assert.Equal(t, true, cartResp.Meta["prorated"])
}

func TestCartController_Donations(t *testing.T) {
	f := setupCartControllerTest(t)

	w := doJSON(f.router, http.MethodPost, "/api/v1/cart/donations", map[string]interface{}{"amount": 0, "donation_type": "general"}, f.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CartInvalidAmount)

	w = doJSON(f.router, http.MethodPost, "/api/v1/cart/donations", map[string]interface{}{"amount": 25, "donation_type": "general"}, f.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeCart(t, w.Body.Bytes())
	require.Len(t, body.Items, 1)
	rowID := body.Items[0].RowID

	w = doJSON(f.router, http.MethodPut, "/api/v1/cart/donations/"+rowID, map[string]interface{}{"amount": "40", "donation_type": "scholarship"}, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeCart(t, w.Body.Bytes())
	assert.Equal(t, "40", body.Meta["donations"])

	w = doJSON(f.router, http.MethodPost, "/api/v1/cart/items/"+rowID+"/coupon", ApplyCouponRequest{Code: "ANY"}, f.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CartInvalidOperation)
}

func TestCartController_ChildrenValidateAndRemove(t *testing.T) {
	f := setupCartControllerTest(t)

	w := doJSON(f.router, http.MethodGet, "/api/v1/cart/children", nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ava")

	w = doJSON(f.router, http.MethodPost, "/api/v1/cart/items", AddClassRequest{ClassID: f.soccer.ID}, f.token)
	require.Equal(t, http.StatusCreated, w.Code)
	rowID := decodeCart(t, w.Body.Bytes()).Items[0].RowID

	w = doJSON(f.router, http.MethodGet, "/api/v1/cart/validate", nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	var validation service.CartValidation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &validation))
	assert.False(t, validation.Ready)

	w = doJSON(f.router, http.MethodPut, "/api/v1/cart/items/"+rowID+"/children", UpdateChildrenRequest{ChildIDs: []uint{f.children[0].ID}}, f.token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(f.router, http.MethodGet, "/api/v1/cart/validate", nil, f.token)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &validation))
	assert.True(t, validation.Ready)

	w = doJSON(f.router, http.MethodDelete, "/api/v1/cart/items/"+rowID, nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decodeCart(t, w.Body.Bytes()).Count)

	w = doJSON(f.router, http.MethodDelete, "/api/v1/cart/items/"+rowID, nil, f.token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartController_AutoEnroll(t *testing.T) {
	f := setupCartControllerTest(t)

	w := doJSON(f.router, http.MethodPost, "/api/v1/cart/autoenroll", map[string]interface{}{}, f.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(f.router, http.MethodPost, "/api/v1/cart/autoenroll", map[string]bool{"autoenroll": true}, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeCart(t, w.Body.Bytes()).AutoEnroll)
}

func TestCartController_PasswordFlow(t *testing.T) {
	f := setupCartControllerTest(t)
	path := fmt.Sprintf("/api/v1/cart/password/%d", f.private.ID)

	w := doJSON(f.router, http.MethodPost, "/api/v1/cart/items", AddClassRequest{ClassID: f.private.ID}, f.token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var prompt apperrors.PasswordRequiredResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prompt))
	assert.Equal(t, path, prompt.Redirect)

	w = doJSON(f.router, http.MethodGet, path, nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"requires_password":true`)

	w = doJSON(f.router, http.MethodPost, path, ConfirmPasswordRequest{Password: "wrong"}, f.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CartIncorrectPassword)

	w = doJSON(f.router, http.MethodPost, path, ConfirmPasswordRequest{Password: "letmein"}, f.token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, decodeCart(t, w.Body.Bytes()).Count)

	w = doJSON(f.router, http.MethodGet, "/api/v1/cart/password/abc", nil, f.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_Clear(t *testing.T) {
	f := setupCartControllerTest(t)

	require.Equal(t, http.StatusCreated, doJSON(f.router, http.MethodPost, "/api/v1/cart/items", AddClassRequest{ClassID: f.soccer.ID}, f.token).Code)

	w := doJSON(f.router, http.MethodDelete, "/api/v1/cart", nil, f.token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(f.router, http.MethodGet, "/api/v1/cart", nil, f.token)
	assert.Equal(t, 0, decodeCart(t, w.Body.Bytes()).Count)
}
