package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lfk/lfk-backend/config"
	"github.com/lfk/lfk-backend/internal/app/controller"
	"github.com/lfk/lfk-backend/internal/app/model"
	"github.com/lfk/lfk-backend/internal/app/repository"
	"github.com/lfk/lfk-backend/internal/app/service"
	"github.com/lfk/lfk-backend/internal/cart"
	"github.com/lfk/lfk-backend/internal/db"
	"github.com/lfk/lfk-backend/internal/middleware"
	"github.com/lfk/lfk-backend/internal/router"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const integrationSecret = "integration-secret"

var integrationNow = time.Date(2026, time.February, 12, 15, 0, 0, 0, time.UTC)

type TestServer struct {
	Handler http.Handler
	DB      *gorm.DB
}

func setupIntegrationTest(t *testing.T) *TestServer {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	authService := service.NewAuthService(repository.NewUserRepository(testDB), integrationSecret, 15*time.Minute, 7*24*time.Hour)
	cartService := service.NewCartService(
		repository.NewMemoryCartSessionRepository(),
		repository.NewEventRepository(testDB),
		repository.NewChildRepository(testDB),
		repository.NewRosterRepository(testDB),
		repository.NewCouponRepository(testDB),
		cart.Pricing{FeePerChild: decimal.RequireFromString("1.50"), SiblingDiscountPercent: decimal.NewFromInt(20)},
		service.WithCartClock(func() time.Time { return integrationNow }),
	)

	cfg := &config.Config{Server: config.ServerConfig{GinMode: "test"}}
	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewCartController(cartService),
		middleware.NewAuthMiddleware(integrationSecret),
		nil,
		cfg,
	)
	return &TestServer{Handler: r.Setup(), DB: testDB}
}

func (s *TestServer) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, req)
	return w
}

func TestIntegration_ParentCheckoutJourney(t *testing.T) {
	s := setupIntegrationTest(t)

	w := s.request(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":      "dana@example.com",
		"password":   "password123",
		"first_name": "Dana",
		"last_name":  "Stone",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var auth struct {
		User   struct{ ID uint } `json:"user"`
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	token := auth.Tokens.AccessToken

	coach := &model.User{Email: "coach@example.com", PasswordHash: "hash", FirstName: "Sam", Role: model.RoleCoach}
	require.NoError(t, s.DB.Create(coach).Error)
	children := []model.Child{
		{UserID: auth.User.ID, FirstName: "Ava", LastName: "Stone"},
		{UserID: auth.User.ID, FirstName: "Leo", LastName: "Stone"},
	}
	require.NoError(t, s.DB.Create(&children).Error)
	soccer := &model.Event{
		CoachID:   coach.ID,
		Title:     "Spring Soccer",
		Alias:     "spring-soccer",
		Price:     decimal.NewFromInt(30),
		Enabled:   true,
		StartDate: time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.May, 25, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.DB.Create(soccer).Error)
	require.NoError(t, s.DB.Create(&model.Coupon{Code: "WELCOME", Amount: decimal.NewFromInt(5), Type: model.CouponTypeFixed, IsActive: true}).Error)

	w = s.request(t, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{"class_id": soccer.ID}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var cartResp struct {
		Items []struct {
			RowID string `json:"row_id"`
		} `json:"items"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cartResp))
	require.Len(t, cartResp.Items, 1)
	rowID := cartResp.Items[0].RowID

	w = s.request(t, http.MethodGet, "/api/v1/cart/validate", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready":false`)

	w = s.request(t, http.MethodPut, fmt.Sprintf("/api/v1/cart/items/%s/children", rowID), map[string]interface{}{
		"childs": []uint{children[0].ID, children[1].ID},
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/cart/items/%s/coupon", rowID), map[string]string{"code": "WELCOME"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.request(t, http.MethodPost, "/api/v1/cart/donations", map[string]interface{}{"amount": 10, "donation_type": "general"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cartResp))

	// subtotal 30, coupon 5, sibling 6, fee 2 x 1.50, donation 10
	assert.Equal(t, "30", cartResp.Meta["subtotal"])
	assert.Equal(t, "5", cartResp.Meta["discount"])
	assert.Equal(t, "6", cartResp.Meta["sibling_discount"])
	assert.Equal(t, "3", cartResp.Meta["fee"])
	assert.Equal(t, "32", cartResp.Meta["total"])

	w = s.request(t, http.MethodGet, "/api/v1/cart/validate", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready":true`)
}
