package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lfk/lfk-backend/internal/app/model"
	"github.com/lfk/lfk-backend/internal/app/repository"
	"github.com/lfk/lfk-backend/internal/cart"
	"github.com/lfk/lfk-backend/pkg/logger"
	"github.com/lfk/lfk-backend/pkg/metrics"
	"github.com/lfk/lfk-backend/pkg/util"
	"github.com/shopspring/decimal"
)

// cartRejections are the errors caused by the request rather than the
// infrastructure.
var cartRejections = []error{
	cart.ErrNotFound,
	cart.ErrForeignChild,
	cart.ErrAlreadyEnrolled,
	cart.ErrMultiCoachConflict,
	cart.ErrDuplicateClass,
	cart.ErrNoRemainingSessions,
	cart.ErrInvalidOperation,
	cart.ErrInvalidAmount,
	cart.ErrClassUnavailable,
	cart.ErrPasswordRequired,
	cart.ErrIncorrectPassword,
	cart.ErrMembershipFlowRequired,
}

// CartView is the cart as returned to clients.
type CartView struct {
	Items      []cart.LineItem `json:"items"`
	Meta       cart.Meta       `json:"meta"`
	AutoEnroll bool            `json:"auto_enroll"`
}

type MissingChildItem struct {
	RowID   string `json:"row_id"`
	ClassID uint   `json:"class_id"`
	Name    string `json:"name"`
}

// CartValidation reports whether the cart can be checked out.
type CartValidation struct {
	Ready           bool                  `json:"ready"`
	MissingChildren []MissingChildItem    `json:"missing_children"`
	ChildClassPairs []cart.ChildClassPair `json:"child_class_pairs"`
}

type PasswordPrompt struct {
	ClassID          uint   `json:"class_id"`
	Title            string `json:"title"`
	Alias            string `json:"alias"`
	RequiresPassword bool   `json:"requires_password"`
}

type CartService interface {
	GetCart(ctx context.Context, userID uint) (*CartView, error)
	AddClass(ctx context.Context, userID, classID uint, childIDs []uint) (*CartView, error)
	AddMembership(ctx context.Context, userID, classID uint, subscriptionType string) (*CartView, error)
	AddDonation(ctx context.Context, userID uint, amount decimal.Decimal, donationType string) (*CartView, error)
	UpdateDonation(ctx context.Context, userID uint, rowID string, amount decimal.Decimal, donationType string) (*CartView, error)
	UpdateChildren(ctx context.Context, userID uint, rowID string, childIDs []uint) (*CartView, error)
	ApplyCoupon(ctx context.Context, userID uint, rowID, code string) (*CartView, error)
	RemoveCoupon(ctx context.Context, userID uint, rowID string) (*CartView, error)
	RemoveItem(ctx context.Context, userID uint, rowID string) (*CartView, error)
	SetAutoEnroll(ctx context.Context, userID uint, enabled bool) (*CartView, error)
	Children(ctx context.Context, userID uint) ([]model.Child, error)
	Validate(ctx context.Context, userID uint) (*CartValidation, error)
	PasswordPrompt(ctx context.Context, classID uint) (*PasswordPrompt, error)
	ConfirmPassword(ctx context.Context, userID, classID uint, password string) (*CartView, error)
	Clear(ctx context.Context, userID uint) error
}

type CartServiceOption func(*cartService)

// WithCartClock overrides the clock used for proration and eligibility.
func WithCartClock(now func() time.Time) CartServiceOption {
	return func(s *cartService) { s.now = now }
}

func WithCartMetrics(m *metrics.CartMetrics) CartServiceOption {
	return func(s *cartService) { s.metrics = m }
}

type cartService struct {
	sessions repository.CartSessionRepository
	events   repository.EventRepository
	children repository.ChildRepository
	rosters  repository.RosterRepository
	coupons  repository.CouponRepository
	pricing  cart.Pricing
	now      func() time.Time
	metrics  *metrics.CartMetrics
	policy   *cart.Policy
}

func NewCartService(
	sessions repository.CartSessionRepository,
	events repository.EventRepository,
	children repository.ChildRepository,
	rosters repository.RosterRepository,
	coupons repository.CouponRepository,
	pricing cart.Pricing,
	opts ...CartServiceOption,
) CartService {
	s := &cartService{
		sessions: sessions,
		events:   events,
		children: children,
		rosters:  rosters,
		coupons:  coupons,
		pricing:  pricing,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	dirs := NewCartDirectories(events, children, rosters, coupons, s.now)
	s.policy = cart.NewPolicy(dirs, cart.WithPolicyClock(s.now))
	return s
}

func (s *cartService) newStore(session *model.CartSession) *cart.Store {
	return cart.NewStore(&session.Cart, cart.WithPricing(s.pricing), cart.WithClock(s.now))
}

// mutate loads the session, applies fn and saves the result. A failing fn
// leaves the stored session untouched.
func (s *cartService) mutate(ctx context.Context, op string, userID uint, fn func(*cart.Store, *model.CartSession) error) (*CartView, error) {
	session, err := s.sessions.Load(ctx, userID)
	if err != nil {
		s.metrics.ObserveOperation(op, err)
		return nil, fmt.Errorf("load cart session: %w", err)
	}

	store := s.newStore(session)
	if err := fn(store, session); err != nil {
		s.metrics.ObserveOperation(op, err, cartRejections...)
		logFailure(op, userID, err)
		return nil, err
	}

	session.Cart = store.Snapshot()
	if err := s.sessions.Save(ctx, session); err != nil {
		s.metrics.ObserveOperation(op, err)
		return nil, fmt.Errorf("save cart session: %w", err)
	}

	s.metrics.ObserveOperation(op, nil)
	s.metrics.ObserveTotal(session.Cart.Meta.Total)
	logger.Info("Cart updated", map[string]interface{}{
		"operation": op,
		"user_id":   userID,
		"items":     len(session.Cart.Items),
		"total":     session.Cart.Meta.Total.String(),
	})
	return viewOf(session), nil
}

func logFailure(op string, userID uint, err error) {
	for _, target := range cartRejections {
		if errors.Is(err, target) {
			logger.Warn("Cart operation rejected", map[string]interface{}{
				"operation": op,
				"user_id":   userID,
				"reason":    err.Error(),
			})
			return
		}
	}
	logger.Error("Cart operation failed", err, map[string]interface{}{
		"operation": op,
		"user_id":   userID,
	})
}

func viewOf(session *model.CartSession) *CartView {
	items := session.Cart.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return &CartView{Items: items, Meta: session.Cart.Meta, AutoEnroll: session.AutoEnroll}
}

func (s *cartService) GetCart(ctx context.Context, userID uint) (*CartView, error) {
	session, err := s.sessions.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart session: %w", err)
	}

	store := s.newStore(session)
	if _, err := s.policy.Refresh(ctx, store, userID); err != nil {
		logger.Error("Failed to refresh cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	session.Cart = store.Snapshot()

	logger.Debug("Cart fetched", map[string]interface{}{
		"user_id": userID,
		"items":   len(session.Cart.Items),
	})
	return viewOf(session), nil
}

func (s *cartService) AddClass(ctx context.Context, userID, classID uint, childIDs []uint) (*CartView, error) {
	return s.mutate(ctx, "add_class", userID, func(store *cart.Store, session *model.CartSession) error {
		_, err := s.policy.AddClass(ctx, store, userID, cart.AddClassInput{
			ClassID:           classID,
			ChildIDs:          childIDs,
			PasswordConfirmed: session.PasswordConfirmed(classID),
		})
		if err != nil {
			return err
		}
		if session.AutoEnroll {
			store.SetAutoEnroll(true)
		}
		return nil
	})
}

func (s *cartService) AddMembership(ctx context.Context, userID, classID uint, subscriptionType string) (*CartView, error) {
	return s.mutate(ctx, "add_membership", userID, func(store *cart.Store, session *model.CartSession) error {
		_, err := s.policy.AddMembership(ctx, store, userID, cart.AddMembershipInput{
			ClassID:           classID,
			SubscriptionType:  subscriptionType,
			PasswordConfirmed: session.PasswordConfirmed(classID),
		})
		if err != nil {
			return err
		}
		if session.AutoEnroll {
			store.SetAutoEnroll(true)
		}
		return nil
	})
}

func (s *cartService) AddDonation(ctx context.Context, userID uint, amount decimal.Decimal, donationType string) (*CartView, error) {
	return s.mutate(ctx, "add_donation", userID, func(store *cart.Store, _ *model.CartSession) error {
		_, err := s.policy.AddDonation(ctx, store, userID, amount, donationType)
		return err
	})
}

func (s *cartService) UpdateDonation(ctx context.Context, userID uint, rowID string, amount decimal.Decimal, donationType string) (*CartView, error) {
	return s.mutate(ctx, "update_donation", userID, func(store *cart.Store, _ *model.CartSession) error {
		return s.policy.UpdateDonation(ctx, store, userID, rowID, amount, donationType)
	})
}

func (s *cartService) UpdateChildren(ctx context.Context, userID uint, rowID string, childIDs []uint) (*CartView, error) {
	return s.mutate(ctx, "update_children", userID, func(store *cart.Store, _ *model.CartSession) error {
		return s.policy.UpdateSelectedChildren(ctx, store, userID, rowID, childIDs)
	})
}

func (s *cartService) ApplyCoupon(ctx context.Context, userID uint, rowID, code string) (*CartView, error) {
	return s.mutate(ctx, "apply_coupon", userID, func(store *cart.Store, _ *model.CartSession) error {
		return s.policy.ApplyCoupon(ctx, store, userID, rowID, code)
	})
}

func (s *cartService) RemoveCoupon(ctx context.Context, userID uint, rowID string) (*CartView, error) {
	return s.mutate(ctx, "remove_coupon", userID, func(store *cart.Store, _ *model.CartSession) error {
		return s.policy.RemoveCoupon(ctx, store, userID, rowID)
	})
}

func (s *cartService) RemoveItem(ctx context.Context, userID uint, rowID string) (*CartView, error) {
	return s.mutate(ctx, "remove_item", userID, func(store *cart.Store, session *model.CartSession) error {
		reset, err := s.policy.RemoveItem(ctx, store, userID, rowID)
		if err != nil {
			return err
		}
		if reset && session.AutoEnroll {
			session.AutoEnroll = false
			store.SetAutoEnroll(false)
		}
		return nil
	})
}

func (s *cartService) SetAutoEnroll(ctx context.Context, userID uint, enabled bool) (*CartView, error) {
	return s.mutate(ctx, "set_autoenroll", userID, func(store *cart.Store, session *model.CartSession) error {
		session.AutoEnroll = enabled
		store.SetAutoEnroll(enabled)
		return nil
	})
}

func (s *cartService) Children(ctx context.Context, userID uint) ([]model.Child, error) {
	children, err := s.children.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if children == nil {
		children = []model.Child{}
	}
	return children, nil
}

func (s *cartService) Validate(ctx context.Context, userID uint) (*CartValidation, error) {
	session, err := s.sessions.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart session: %w", err)
	}
	store := s.newStore(session)

	result := &CartValidation{
		MissingChildren: []MissingChildItem{},
		ChildClassPairs: store.ChildClassPairs(),
	}
	for _, item := range store.MissingChildren() {
		result.MissingChildren = append(result.MissingChildren, MissingChildItem{
			RowID:   item.RowID,
			ClassID: item.Class.ClassID,
			Name:    item.Name,
		})
	}
	if result.ChildClassPairs == nil {
		result.ChildClassPairs = []cart.ChildClassPair{}
	}
	result.Ready = store.Len() > 0 && len(result.MissingChildren) == 0

	logger.Debug("Cart validated", map[string]interface{}{
		"user_id": userID,
		"ready":   result.Ready,
		"missing": len(result.MissingChildren),
	})
	return result, nil
}

func (s *cartService) PasswordPrompt(ctx context.Context, classID uint) (*PasswordPrompt, error) {
	class, err := s.policy.CheckClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	return &PasswordPrompt{
		ClassID:          class.ClassID,
		Title:            class.Title,
		Alias:            class.Alias,
		RequiresPassword: class.RequiresPassword,
	}, nil
}

// ConfirmPassword checks the class password, remembers the confirmation for
// the session and then adds the class without children. The confirmation is
// saved before the add, so a rejected add does not cost the parent the
// password. Membership classes are only confirmed; the caller is redirected
// to the membership flow.
func (s *cartService) ConfirmPassword(ctx context.Context, userID, classID uint, password string) (*CartView, error) {
	var class *cart.ClassSnapshot
	view, err := s.mutate(ctx, "confirm_password", userID, func(_ *cart.Store, session *model.CartSession) error {
		checked, err := s.checkClassPassword(ctx, classID, password)
		if err != nil {
			return err
		}
		class = checked
		session.ConfirmPassword(classID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if class.IsMembership {
		return view, &cart.MembershipRedirectError{
			ClassID:        class.ClassID,
			Alias:          class.Alias,
			MembershipType: class.MembershipType,
		}
	}
	return s.AddClass(ctx, userID, classID, nil)
}

func (s *cartService) checkClassPassword(ctx context.Context, classID uint, password string) (*cart.ClassSnapshot, error) {
	class, err := s.policy.CheckClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !class.RequiresPassword {
		return nil, fmt.Errorf("%w: class %d has no password", cart.ErrInvalidOperation, classID)
	}

	event, err := s.events.FindByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("%w: class %d", cart.ErrNotFound, classID)
	}
	if !util.VerifyPassword(event.PasswordHash, password) {
		return nil, cart.ErrIncorrectPassword
	}
	return class, nil
}

func (s *cartService) Clear(ctx context.Context, userID uint) error {
	if err := s.sessions.Delete(ctx, userID); err != nil {
		logger.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	s.metrics.ObserveOperation("clear", nil)
	logger.Info("Cart cleared", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}
