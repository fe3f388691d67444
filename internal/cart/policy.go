package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AddClassInput is a request to add a plain class registration.
type AddClassInput struct {
	ClassID           uint
	ChildIDs          []uint
	PasswordConfirmed bool
}

type AddMembershipInput struct {
	ClassID           uint
	SubscriptionType  string
	PasswordConfirmed bool
}

// Policy gates Store mutations with the cross-item rules: class
// eligibility, child ownership, duplicate enrollment and the single-coach
// constraint. All collaborator lookups finish before the store is touched,
// and a failed operation leaves the cart exactly as it was.
type Policy struct {
	dirs Directories
	now  func() time.Time
}

type PolicyOption func(*Policy)

func WithPolicyClock(now func() time.Time) PolicyOption {
	return func(p *Policy) { p.now = now }
}

func NewPolicy(dirs Directories, opts ...PolicyOption) *Policy {
	p := &Policy{dirs: dirs, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddClass validates and adds a plain class registration.
func (p *Policy) AddClass(ctx context.Context, s *Store, userID uint, in AddClassInput) (LineItem, error) {
	class, err := p.eligibleClass(ctx, in.ClassID, in.PasswordConfirmed, false)
	if err != nil {
		return LineItem{}, err
	}

	children := uniqueIDs(in.ChildIDs)
	if err := p.checkChildren(ctx, userID, class.ClassID, children); err != nil {
		return LineItem{}, err
	}

	coupon, err := p.dirs.Coupons.ActiveCoupon(ctx, userID)
	if err != nil {
		return LineItem{}, fmt.Errorf("lookup active coupon: %w", err)
	}
	if err := p.syncPriorPaid(ctx, s, userID, class.ClassID); err != nil {
		return LineItem{}, err
	}

	saved := s.checkpoint()
	item := s.AddClassItem(*class, children, coupon)
	if err := checkSingleCoach(s.cart.Items, item.Class.CoachID); err != nil {
		s.restore(saved)
		return LineItem{}, err
	}
	return item, nil
}

// AddMembership validates and adds a membership registration.
func (p *Policy) AddMembership(ctx context.Context, s *Store, userID uint, in AddMembershipInput) (LineItem, error) {
	class, err := p.eligibleClass(ctx, in.ClassID, in.PasswordConfirmed, true)
	if err != nil {
		return LineItem{}, err
	}
	if !class.IsMembership {
		return LineItem{}, invalidOperation("class %d is not a membership", class.ClassID)
	}

	table, err := p.dirs.Memberships.MembershipTable(ctx, class.ClassID)
	if err != nil {
		return LineItem{}, fmt.Errorf("lookup membership table: %w", err)
	}
	if err := p.syncPriorPaid(ctx, s, userID, class.ClassID); err != nil {
		return LineItem{}, err
	}

	saved := s.checkpoint()
	item, err := s.AddMembershipItem(*class, table, in.SubscriptionType)
	if err != nil {
		return LineItem{}, err
	}
	if err := checkSingleCoach(s.cart.Items, item.Class.CoachID); err != nil {
		s.restore(saved)
		return LineItem{}, err
	}
	return item, nil
}

// AddDonation has no cross-item rules beyond the store's own.
func (p *Policy) AddDonation(ctx context.Context, s *Store, userID uint, amount decimal.Decimal, donationType string) (LineItem, error) {
	if err := p.syncPriorPaid(ctx, s, userID); err != nil {
		return LineItem{}, err
	}
	return s.AddDonation(amount, donationType)
}

func (p *Policy) UpdateDonation(ctx context.Context, s *Store, userID uint, rowID string, amount decimal.Decimal, donationType string) error {
	if err := p.syncPriorPaid(ctx, s, userID); err != nil {
		return err
	}
	return s.UpdateDonation(rowID, amount, donationType)
}

// UpdateSelectedChildren checks ownership and enrollment for the new set
// before replacing it.
func (p *Policy) UpdateSelectedChildren(ctx context.Context, s *Store, userID uint, rowID string, childIDs []uint) error {
	item, ok := s.Item(rowID)
	if !ok {
		return notFound("cart row %q", rowID)
	}
	if !item.IsClass() {
		return invalidOperation("children cannot be selected on a donation")
	}

	children := uniqueIDs(childIDs)
	if err := p.checkChildren(ctx, userID, item.Class.ClassID, children); err != nil {
		return err
	}
	if err := p.syncPriorPaid(ctx, s, userID); err != nil {
		return err
	}
	return s.UpdateSelectedChildren(rowID, children)
}

// ApplyCoupon resolves code against the user's coupons and applies it.
func (p *Policy) ApplyCoupon(ctx context.Context, s *Store, userID uint, rowID, code string) error {
	item, ok := s.Item(rowID)
	if !ok {
		return notFound("cart row %q", rowID)
	}
	if !item.IsClass() {
		return invalidOperation("coupons cannot be applied to a donation")
	}

	coupon, err := p.dirs.Coupons.CouponByCode(ctx, userID, code)
	if err != nil {
		return fmt.Errorf("lookup coupon: %w", err)
	}
	if coupon == nil {
		return notFound("coupon %q", code)
	}
	if err := p.syncPriorPaid(ctx, s, userID); err != nil {
		return err
	}
	return s.ApplyCoupon(rowID, *coupon)
}

func (p *Policy) RemoveCoupon(ctx context.Context, s *Store, userID uint, rowID string) error {
	if err := p.syncPriorPaid(ctx, s, userID); err != nil {
		return err
	}
	return s.RemoveCoupon(rowID)
}

// RemoveItem reports whether the caller should reset its auto-enroll flag.
func (p *Policy) RemoveItem(ctx context.Context, s *Store, userID uint, rowID string) (bool, error) {
	if err := p.syncPriorPaid(ctx, s, userID); err != nil {
		return false, err
	}
	return s.RemoveItem(rowID)
}

// Refresh re-resolves prior-paid rosters and recomputes meta.
func (p *Policy) Refresh(ctx context.Context, s *Store, userID uint) (Meta, error) {
	if err := p.syncPriorPaid(ctx, s, userID); err != nil {
		return Meta{}, err
	}
	return s.Recompute(), nil
}

// CheckClass runs the eligibility gate without touching a cart. It is used
// by the password confirmation flow.
func (p *Policy) CheckClass(ctx context.Context, classID uint) (*ClassSnapshot, error) {
	class, err := p.dirs.Classes.ClassSnapshot(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("lookup class: %w", err)
	}
	if class == nil {
		return nil, notFound("class %d", classID)
	}
	if err := p.checkOpen(class); err != nil {
		return nil, err
	}
	return class, nil
}

func (p *Policy) eligibleClass(ctx context.Context, classID uint, passwordConfirmed, membershipFlow bool) (*ClassSnapshot, error) {
	class, err := p.CheckClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.IsMembership && !membershipFlow {
		return nil, &MembershipRedirectError{
			ClassID:        class.ClassID,
			Alias:          class.Alias,
			MembershipType: class.MembershipType,
		}
	}
	if class.RequiresPassword && !passwordConfirmed {
		return nil, ErrPasswordRequired
	}
	return class, nil
}

// checkOpen applies the enabled, frozen, end date and halt date gates. End
// and halt dates do not apply to membership classes.
func (p *Policy) checkOpen(class *ClassSnapshot) error {
	if !class.Enabled || class.Frozen {
		return ErrClassUnavailable
	}
	if class.IsMembership {
		return nil
	}

	now := p.now()
	today := dateOf(now, class.EndDate.Location())
	if !class.EndDate.IsZero() && dateOf(class.EndDate, class.EndDate.Location()).Before(today) {
		return ErrClassUnavailable
	}
	if class.HaltDate != nil && class.HaltDate.Before(now) {
		return ErrClassUnavailable
	}
	return nil
}

// checkChildren verifies ownership of every id, then active enrollment for
// each pair. Foreign ids are reported together.
func (p *Policy) checkChildren(ctx context.Context, userID, classID uint, childIDs []uint) error {
	if len(childIDs) == 0 {
		return nil
	}

	owned, err := p.dirs.Children.OwnedChildren(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup children: %w", err)
	}
	byID := make(map[uint]Child, len(owned))
	for _, c := range owned {
		byID[c.ID] = c
	}

	var foreign []uint
	for _, id := range childIDs {
		if _, ok := byID[id]; !ok {
			foreign = append(foreign, id)
		}
	}
	if len(foreign) > 0 {
		return &ForeignChildError{ChildIDs: foreign}
	}

	for _, id := range childIDs {
		enrolled, err := p.dirs.Enrollments.HasActiveEnrollment(ctx, id, classID)
		if err != nil {
			return fmt.Errorf("lookup enrollment: %w", err)
		}
		if enrolled {
			return &AlreadyEnrolledError{ChildID: id, ChildName: byID[id].FullName(), ClassID: classID}
		}
	}
	return nil
}

// syncPriorPaid resolves the prior-paid flag for every class in the cart
// plus any extra class about to be added.
func (p *Policy) syncPriorPaid(ctx context.Context, s *Store, userID uint, extra ...uint) error {
	ids := append(s.ClassIDs(), extra...)
	resolved := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if _, done := resolved[id]; done {
			continue
		}
		paid, err := p.dirs.Enrollments.HasPriorPaidEnrollment(ctx, userID, id)
		if err != nil {
			return fmt.Errorf("lookup prior paid enrollment: %w", err)
		}
		resolved[id] = paid
	}
	s.SetPriorPaid(resolved)
	return nil
}

// checkSingleCoach compares coachID with the first class row in items.
func checkSingleCoach(items []LineItem, coachID uint) error {
	for _, item := range items {
		if item.IsClass() {
			if item.Class.CoachID != coachID {
				return ErrMultiCoachConflict
			}
			return nil
		}
	}
	return nil
}
