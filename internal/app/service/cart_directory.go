package service

import (
	"context"
	"time"

	"github.com/lfk/lfk-backend/internal/app/model"
	"github.com/lfk/lfk-backend/internal/app/repository"
	"github.com/lfk/lfk-backend/internal/cart"
)

// cartDirectory answers the cart policy's collaborator lookups from the
// repositories.
type cartDirectory struct {
	events   repository.EventRepository
	children repository.ChildRepository
	rosters  repository.RosterRepository
	coupons  repository.CouponRepository
	now      func() time.Time
}

// NewCartDirectories wires the repositories into the lookups the cart
// policy consumes.
func NewCartDirectories(
	events repository.EventRepository,
	children repository.ChildRepository,
	rosters repository.RosterRepository,
	coupons repository.CouponRepository,
	now func() time.Time,
) cart.Directories {
	if now == nil {
		now = time.Now
	}
	d := &cartDirectory{events: events, children: children, rosters: rosters, coupons: coupons, now: now}
	return cart.Directories{Classes: d, Children: d, Enrollments: d, Coupons: d, Memberships: d}
}

func (d *cartDirectory) ClassSnapshot(ctx context.Context, classID uint) (*cart.ClassSnapshot, error) {
	event, err := d.events.FindByID(ctx, classID)
	if err != nil || event == nil {
		return nil, err
	}
	snapshot := toClassSnapshot(event)
	return &snapshot, nil
}

func (d *cartDirectory) OwnedChildren(ctx context.Context, userID uint) ([]cart.Child, error) {
	children, err := d.children.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]cart.Child, len(children))
	for i, c := range children {
		out[i] = cart.Child{ID: c.ID, FirstName: c.FirstName, LastName: c.LastName}
	}
	return out, nil
}

func (d *cartDirectory) HasActiveEnrollment(ctx context.Context, childID, classID uint) (bool, error) {
	return d.rosters.HasActive(ctx, childID, classID)
}

func (d *cartDirectory) HasPriorPaidEnrollment(ctx context.Context, userID, classID uint) (bool, error) {
	return d.rosters.HasPaid(ctx, userID, classID)
}

func (d *cartDirectory) ActiveCoupon(ctx context.Context, userID uint) (*cart.Coupon, error) {
	coupon, err := d.coupons.FindActiveForUser(ctx, userID, d.now())
	if err != nil || coupon == nil {
		return nil, err
	}
	return toCartCoupon(coupon), nil
}

// CouponByCode hides coupons that are expired, inactive or issued to a
// different user.
func (d *cartDirectory) CouponByCode(ctx context.Context, userID uint, code string) (*cart.Coupon, error) {
	coupon, err := d.coupons.FindByCode(ctx, code)
	if err != nil || coupon == nil {
		return nil, err
	}
	if !coupon.ValidAt(d.now()) {
		return nil, nil
	}
	if coupon.UserID != nil && *coupon.UserID != userID {
		return nil, nil
	}
	return toCartCoupon(coupon), nil
}

func (d *cartDirectory) MembershipTable(ctx context.Context, classID uint) (cart.MembershipTable, error) {
	plans, err := d.events.FindMembershipPlans(ctx, classID)
	if err != nil {
		return nil, err
	}
	table := make(cart.MembershipTable, len(plans))
	for _, p := range plans {
		table[p.SubscriptionType] = p.Price
	}
	return table, nil
}

func toClassSnapshot(event *model.Event) cart.ClassSnapshot {
	return cart.ClassSnapshot{
		ClassID:          event.ID,
		Title:            event.Title,
		Alias:            event.Alias,
		Price:            event.Price,
		CoachID:          event.CoachID,
		Enabled:          event.Enabled,
		Frozen:           event.Frozen,
		IsMembership:     event.IsMembership,
		MembershipType:   event.MembershipType,
		RequiresPassword: event.RequiresPassword(),
		StartDate:        event.StartDate,
		EndDate:          event.EndDate,
		HaltDate:         event.HaltDate,
	}
}

func toCartCoupon(c *model.Coupon) *cart.Coupon {
	return &cart.Coupon{Code: c.Code, Amount: c.Amount, Type: cart.CouponType(c.Type)}
}
