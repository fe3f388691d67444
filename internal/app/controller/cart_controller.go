package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lfk/lfk-backend/internal/app/service"
	"github.com/lfk/lfk-backend/internal/cart"
	apperrors "github.com/lfk/lfk-backend/internal/errors"
	"github.com/lfk/lfk-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddClassRequest struct {
	ClassID  uint   `json:"class_id" binding:"required"`
	ChildIDs []uint `json:"childs"`
}

type AddMembershipRequest struct {
	ClassID          uint   `json:"class_id" binding:"required"`
	SubscriptionType string `json:"subscription_type" binding:"required"`
}

// DonationRequest leaves amount validation to the cart so a zero or negative
// amount reports CART_INVALID_AMOUNT.
type DonationRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	DonationType string          `json:"donation_type"`
}

type UpdateChildrenRequest struct {
	ChildIDs []uint `json:"childs"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

type AutoEnrollRequest struct {
	AutoEnroll *bool `json:"autoenroll" binding:"required"`
}

type ConfirmPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// cartMeta is the plain cart meta; membership fields appear only when set.
type cartMeta struct {
	Subtotal        decimal.Decimal  `json:"subtotal"`
	Discount        decimal.Decimal  `json:"discount"`
	SiblingDiscount decimal.Decimal  `json:"sibling_discount"`
	Fee             decimal.Decimal  `json:"fee"`
	Total           decimal.Decimal  `json:"total"`
	Donations       decimal.Decimal  `json:"donations"`
	MembershipPrice *decimal.Decimal `json:"membership_price,omitempty"`
	MembershipType  string           `json:"membership_type,omitempty"`
	Prorated        bool             `json:"prorated,omitempty"`
}

type cartResponse struct {
	Items      []cart.LineItem `json:"items"`
	Meta       interface{}     `json:"meta"`
	AutoEnroll bool            `json:"auto_enroll"`
	Count      int             `json:"count"`
}

func plainCartResponse(view *service.CartView) cartResponse {
	meta := cartMeta{
		Subtotal:        view.Meta.Subtotal,
		Discount:        view.Meta.Discount,
		SiblingDiscount: view.Meta.SiblingDiscount,
		Fee:             view.Meta.Fee,
		Total:           view.Meta.Total,
		Donations:       view.Meta.Donations,
		MembershipType:  view.Meta.MembershipType,
		Prorated:        view.Meta.Prorated,
	}
	if !view.Meta.MembershipPrice.IsZero() {
		price := view.Meta.MembershipPrice
		meta.MembershipPrice = &price
	}
	return cartResponse{Items: view.Items, Meta: meta, AutoEnroll: view.AutoEnroll, Count: len(view.Items)}
}

func membershipCartResponse(view *service.CartView) cartResponse {
	return cartResponse{Items: view.Items, Meta: view.Meta, AutoEnroll: view.AutoEnroll, Count: len(view.Items)}
}

func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Warn("Unauthorized cart access", map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid cart request", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, apperrors.ValidationFields(err))
		return false
	}
	return true
}

func classIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("classId"), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid class ID")
		return 0, false
	}
	return uint(id), true
}

// GetCart returns the cart with fresh totals.
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	view, err := ctrl.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "fetch cart")
		return
	}
	c.JSON(http.StatusOK, plainCartResponse(view))
}

// GetMembershipCart returns the cart including membership meta.
// GET /api/v1/cart/membership
func (ctrl *CartController) GetMembershipCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	view, err := ctrl.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "fetch cart")
		return
	}
	c.JSON(http.StatusOK, membershipCartResponse(view))
}

// GET /api/v1/cart/children
func (ctrl *CartController) GetChildren(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	children, err := ctrl.cartService.Children(c.Request.Context(), userID)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "fetch children")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"children": children,
		"count":    len(children),
	})
}

// Validate reports class items still missing a child.
// GET /api/v1/cart/validate
func (ctrl *CartController) Validate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := ctrl.cartService.Validate(c.Request.Context(), userID)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "validate cart")
		return
	}
	c.JSON(http.StatusOK, result)
}

// AddClass adds a class registration.
// POST /api/v1/cart/items
func (ctrl *CartController) AddClass(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req AddClassRequest
	if !bindJSON(c, &req) {
		return
	}
	c.Set(apperrors.PasswordClassKey, req.ClassID)

	view, err := ctrl.cartService.AddClass(c.Request.Context(), userID, req.ClassID, req.ChildIDs)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "add class to cart")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Class added to cart", map[string]interface{}{
		"user_id":  userID,
		"class_id": req.ClassID,
		"children": len(req.ChildIDs),
	})
	c.JSON(http.StatusCreated, plainCartResponse(view))
}

// POST /api/v1/cart/memberships
func (ctrl *CartController) AddMembership(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req AddMembershipRequest
	if !bindJSON(c, &req) {
		return
	}
	c.Set(apperrors.PasswordClassKey, req.ClassID)

	view, err := ctrl.cartService.AddMembership(c.Request.Context(), userID, req.ClassID, req.SubscriptionType)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "add membership to cart")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Membership added to cart", map[string]interface{}{
		"user_id":           userID,
		"class_id":          req.ClassID,
		"subscription_type": req.SubscriptionType,
	})
	c.JSON(http.StatusCreated, membershipCartResponse(view))
}

// POST /api/v1/cart/donations
func (ctrl *CartController) AddDonation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req DonationRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := ctrl.cartService.AddDonation(c.Request.Context(), userID, req.Amount, req.DonationType)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "add donation to cart")
		return
	}
	c.JSON(http.StatusCreated, plainCartResponse(view))
}

// PUT /api/v1/cart/donations/:rowId
func (ctrl *CartController) UpdateDonation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req DonationRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := ctrl.cartService.UpdateDonation(c.Request.Context(), userID, c.Param("rowId"), req.Amount, req.DonationType)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "update cart donation")
		return
	}
	c.JSON(http.StatusOK, plainCartResponse(view))
}

// UpdateChildren replaces the selected children of a class row.
// PUT /api/v1/cart/items/:rowId/children
func (ctrl *CartController) UpdateChildren(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req UpdateChildrenRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := ctrl.cartService.UpdateChildren(c.Request.Context(), userID, c.Param("rowId"), req.ChildIDs)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "update cart children")
		return
	}
	c.JSON(http.StatusOK, plainCartResponse(view))
}

// POST /api/v1/cart/items/:rowId/coupon
func (ctrl *CartController) ApplyCoupon(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ApplyCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := ctrl.cartService.ApplyCoupon(c.Request.Context(), userID, c.Param("rowId"), req.Code)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "apply coupon")
		return
	}
	c.JSON(http.StatusOK, plainCartResponse(view))
}

// DELETE /api/v1/cart/items/:rowId/coupon
func (ctrl *CartController) RemoveCoupon(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	view, err := ctrl.cartService.RemoveCoupon(c.Request.Context(), userID, c.Param("rowId"))
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "remove coupon")
		return
	}
	c.JSON(http.StatusOK, plainCartResponse(view))
}

// DELETE /api/v1/cart/items/:rowId
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	view, err := ctrl.cartService.RemoveItem(c.Request.Context(), userID, c.Param("rowId"))
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "remove cart item")
		return
	}
	c.JSON(http.StatusOK, plainCartResponse(view))
}

// POST /api/v1/cart/autoenroll
func (ctrl *CartController) SetAutoEnroll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req AutoEnrollRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := ctrl.cartService.SetAutoEnroll(c.Request.Context(), userID, *req.AutoEnroll)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "update cart")
		return
	}
	c.JSON(http.StatusOK, plainCartResponse(view))
}

// PasswordPrompt returns the class summary shown on the password page.
// GET /api/v1/cart/password/:classId
func (ctrl *CartController) PasswordPrompt(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	classID, ok := classIDParam(c)
	if !ok {
		return
	}

	prompt, err := ctrl.cartService.PasswordPrompt(c.Request.Context(), classID)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "fetch class")
		return
	}
	c.JSON(http.StatusOK, prompt)
}

// ConfirmPassword verifies the class password and adds the class.
// POST /api/v1/cart/password/:classId
func (ctrl *CartController) ConfirmPassword(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	classID, ok := classIDParam(c)
	if !ok {
		return
	}
	var req ConfirmPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := ctrl.cartService.ConfirmPassword(c.Request.Context(), userID, classID, req.Password)
	if err != nil {
		apperrors.RespondWithDomainError(c, err, "confirm class password")
		return
	}
	c.JSON(http.StatusCreated, plainCartResponse(view))
}

// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := ctrl.cartService.Clear(c.Request.Context(), userID); err != nil {
		apperrors.RespondWithDomainError(c, err, "clear cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
	})
}
