package cart

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store owns one session's cart. It is the only writer of the item list and
// re-derives Meta through Pricing after every mutation. Store performs no
// I/O; anything it needs from collaborators is handed to it resolved.
//
// A Store is not safe for concurrent use.
type Store struct {
	cart      Cart
	pricing   Pricing
	priorPaid map[uint]bool
	now       func() time.Time
	newRowID  func() string
}

type Option func(*Store)

func WithPricing(p Pricing) Option {
	return func(s *Store) { s.pricing = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithRowIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newRowID = fn }
}

// NewStore wraps an existing cart, or an empty one when c is nil. The cart is
// copied so the caller's value is never mutated.
func NewStore(c *Cart, opts ...Option) *Store {
	s := &Store{
		pricing:   DefaultPricing(),
		priorPaid: map[uint]bool{},
		now:       time.Now,
		newRowID:  func() string { return uuid.NewString() },
	}
	if c != nil {
		s.cart = c.clone()
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Recompute()
	return s
}

// SetPriorPaid replaces the resolved prior-paid lookup used by Recompute.
func (s *Store) SetPriorPaid(classIDs map[uint]bool) {
	s.priorPaid = make(map[uint]bool, len(classIDs))
	for id, paid := range classIDs {
		s.priorPaid[id] = paid
	}
}

// Snapshot returns a deep copy of items and meta.
func (s *Store) Snapshot() Cart {
	return s.cart.clone()
}

func (s *Store) Meta() Meta {
	return s.cart.Meta
}

func (s *Store) Len() int {
	return len(s.cart.Items)
}

// Item returns a copy of the row.
func (s *Store) Item(rowID string) (LineItem, bool) {
	idx := s.indexOf(rowID)
	if idx < 0 {
		return LineItem{}, false
	}
	return s.cart.Items[idx].clone(), true
}

// ClassIDs lists the classes currently in the cart, in item order.
func (s *Store) ClassIDs() []uint {
	var ids []uint
	for _, item := range s.cart.Items {
		if item.IsClass() {
			ids = append(ids, item.Class.ClassID)
		}
	}
	return ids
}

func (s *Store) HasClass(classID uint) bool {
	for _, item := range s.cart.Items {
		if item.IsClass() && item.Class.ClassID == classID {
			return true
		}
	}
	return false
}

// IsCouponApplied reports whether any row already carries the code.
func (s *Store) IsCouponApplied(code string) bool {
	if code == "" {
		return false
	}
	for _, item := range s.cart.Items {
		if item.IsClass() && item.Class.Coupon != nil && item.Class.Coupon.Code == code {
			return true
		}
	}
	return false
}

// AddClassItem appends a class registration built from the snapshot. When
// coupon is non-nil and its code is not used elsewhere in the cart it is
// applied to the new row.
func (s *Store) AddClassItem(class ClassSnapshot, childIDs []uint, coupon *Coupon) LineItem {
	children := uniqueIDs(childIDs)
	item := LineItem{
		RowID:             s.newRowID(),
		Kind:              KindClassRegistration,
		Name:              class.Title,
		BasePrice:         class.Price,
		CurrentPrice:      class.Price,
		CurrentPriceTaxed: class.Price,
		Quantity:          quantityFor(children),
		Class: &ClassRegistration{
			ClassID:          class.ClassID,
			Alias:            class.Alias,
			CoachID:          class.CoachID,
			SelectedChildren: children,
			SiblingDiscount:  decimal.Zero,
			AddedAt:          s.now(),
		},
	}
	if coupon != nil && !s.IsCouponApplied(coupon.Code) {
		applyCouponTo(&item, *coupon)
	}

	s.cart.Items = append(s.cart.Items, item)
	s.Recompute()
	return s.cart.Items[len(s.cart.Items)-1].clone()
}

// AddMembershipItem appends a membership registration priced for the
// current month.
func (s *Store) AddMembershipItem(class ClassSnapshot, table MembershipTable, subscriptionType string) (LineItem, error) {
	if s.HasClass(class.ClassID) {
		return LineItem{}, ErrDuplicateClass
	}
	fullPrice, ok := table[subscriptionType]
	if !ok {
		return LineItem{}, notFound("subscription type %q not offered for class %d", subscriptionType, class.ClassID)
	}

	proration, err := ProrateMembership(fullPrice, class.StartDate, class.EndDate, s.now())
	if err != nil {
		return LineItem{}, err
	}

	payable := proration.PayableThisMonth
	item := LineItem{
		RowID:             s.newRowID(),
		Kind:              KindClassRegistration,
		Name:              class.Title,
		BasePrice:         payable,
		CurrentPrice:      payable,
		CurrentPriceTaxed: payable,
		Quantity:          1,
		Class: &ClassRegistration{
			ClassID:          class.ClassID,
			Alias:            class.Alias,
			CoachID:          class.CoachID,
			SelectedChildren: []uint{},
			Membership: &MembershipInfo{
				FullPrice:        fullPrice,
				SubscriptionType: subscriptionType,
				IsProrated:       proration.Prorated,
			},
			SiblingDiscount: decimal.Zero,
			AddedAt:         s.now(),
		},
	}

	s.cart.Items = append(s.cart.Items, item)
	s.Recompute()
	return s.cart.Items[len(s.cart.Items)-1].clone(), nil
}

func (s *Store) AddDonation(amount decimal.Decimal, donationType string) (LineItem, error) {
	if err := validateDonation(amount, donationType); err != nil {
		return LineItem{}, err
	}
	item := LineItem{
		RowID:             s.newRowID(),
		Kind:              KindDonation,
		Name:              "LFK Love Donation",
		BasePrice:         amount,
		CurrentPrice:      amount,
		CurrentPriceTaxed: amount,
		Quantity:          1,
		Donation:          &Donation{Type: strings.TrimSpace(donationType)},
	}
	s.cart.Items = append(s.cart.Items, item)
	s.Recompute()
	return item.clone(), nil
}

func (s *Store) UpdateDonation(rowID string, amount decimal.Decimal, donationType string) error {
	idx := s.indexOf(rowID)
	if idx < 0 || !s.cart.Items[idx].IsDonation() {
		return notFound("donation row %q", rowID)
	}
	if err := validateDonation(amount, donationType); err != nil {
		return err
	}
	item := &s.cart.Items[idx]
	item.BasePrice = amount
	item.CurrentPrice = amount
	item.CurrentPriceTaxed = amount
	item.Donation.Type = strings.TrimSpace(donationType)
	s.Recompute()
	return nil
}

// UpdateSelectedChildren replaces the row's children and its quantity.
func (s *Store) UpdateSelectedChildren(rowID string, childIDs []uint) error {
	idx := s.indexOf(rowID)
	if idx < 0 {
		return notFound("cart row %q", rowID)
	}
	item := &s.cart.Items[idx]
	if !item.IsClass() {
		return invalidOperation("children cannot be selected on a donation")
	}
	children := uniqueIDs(childIDs)
	item.Class.SelectedChildren = children
	item.Quantity = quantityFor(children)
	s.Recompute()
	return nil
}

// ApplyCoupon discounts the row from its pre-coupon prices, so replacing a
// coupon never compounds. Reapplying the same code to the same row is a no-op.
func (s *Store) ApplyCoupon(rowID string, coupon Coupon) error {
	idx := s.indexOf(rowID)
	if idx < 0 {
		return notFound("cart row %q", rowID)
	}
	item := &s.cart.Items[idx]
	if !item.IsClass() {
		return invalidOperation("coupons cannot be applied to a donation")
	}
	if item.Class.Coupon != nil && item.Class.Coupon.Code == coupon.Code {
		return nil
	}
	if s.IsCouponApplied(coupon.Code) {
		return invalidOperation("coupon %q is already applied in this cart", coupon.Code)
	}
	applyCouponTo(item, coupon)
	s.Recompute()
	return nil
}

// RemoveCoupon restores the pre-coupon prices. Rows without a coupon are
// left untouched.
func (s *Store) RemoveCoupon(rowID string) error {
	idx := s.indexOf(rowID)
	if idx < 0 {
		return notFound("cart row %q", rowID)
	}
	if removeCouponFrom(&s.cart.Items[idx]) {
		s.Recompute()
	}
	return nil
}

// RemoveItem drops the row. The returned flag is true when fewer than two
// class rows remain, meaning any auto-enroll preference should be cleared.
func (s *Store) RemoveItem(rowID string) (bool, error) {
	idx := s.indexOf(rowID)
	if idx < 0 {
		return false, notFound("cart row %q", rowID)
	}
	removeCouponFrom(&s.cart.Items[idx])
	s.cart.Items = append(s.cart.Items[:idx], s.cart.Items[idx+1:]...)
	s.Recompute()
	return s.cart.ClassItemCount() < 2, nil
}

// SetAutoEnroll flags every class row.
func (s *Store) SetAutoEnroll(enroll bool) {
	for i := range s.cart.Items {
		if s.cart.Items[i].IsClass() {
			s.cart.Items[i].Class.AutoEnroll = enroll
		}
	}
}

func (s *Store) Clear() {
	s.cart.Items = nil
	s.Recompute()
}

// Recompute re-derives Meta and the per-row sibling discount cache.
func (s *Store) Recompute() Meta {
	meta, perRow := s.pricing.Total(s.cart.Items, s.isPriorPaid)
	for i := range s.cart.Items {
		item := &s.cart.Items[i]
		if item.IsClass() {
			item.Class.SiblingDiscount = perRow[item.RowID]
		}
	}
	s.cart.Meta = meta
	return meta
}

// MissingChildren names the class rows that have no child selected yet.
func (s *Store) MissingChildren() []LineItem {
	var missing []LineItem
	for _, item := range s.cart.Items {
		if item.IsClass() && len(item.Class.SelectedChildren) == 0 {
			missing = append(missing, item.clone())
		}
	}
	return missing
}

// ChildClassPairs lists the roster rows the cart would create.
func (s *Store) ChildClassPairs() []ChildClassPair {
	var pairs []ChildClassPair
	for _, item := range s.cart.Items {
		if !item.IsClass() {
			continue
		}
		for _, childID := range item.Class.SelectedChildren {
			pairs = append(pairs, ChildClassPair{ClassID: item.Class.ClassID, ChildID: childID})
		}
	}
	return pairs
}

func (s *Store) checkpoint() Cart {
	return s.cart.clone()
}

func (s *Store) restore(c Cart) {
	s.cart = c
}

func (s *Store) isPriorPaid(classID uint) bool {
	return s.priorPaid[classID]
}

func (s *Store) indexOf(rowID string) int {
	for i, item := range s.cart.Items {
		if item.RowID == rowID {
			return i
		}
	}
	return -1
}

func applyCouponTo(item *LineItem, coupon Coupon) {
	c := item.Class
	if c.OriginalPrice == nil {
		p := item.CurrentPrice
		c.OriginalPrice = &p
	}
	if c.OriginalPriceTaxed == nil {
		p := item.CurrentPriceTaxed
		c.OriginalPriceTaxed = &p
	}

	price := discounted(*c.OriginalPrice, coupon)
	priceTaxed := discounted(*c.OriginalPriceTaxed, coupon)

	item.CurrentPrice = price
	item.CurrentPriceTaxed = priceTaxed
	c.Coupon = &AppliedCoupon{
		Code:    coupon.Code,
		Amount:  coupon.Amount,
		Type:    coupon.kind(),
		Savings: c.OriginalPrice.Sub(price),
	}
}

// removeCouponFrom reports whether a coupon was removed.
func removeCouponFrom(item *LineItem) bool {
	if !item.IsClass() || item.Class.Coupon == nil {
		return false
	}
	c := item.Class
	if c.OriginalPrice != nil {
		item.CurrentPrice = *c.OriginalPrice
		item.CurrentPriceTaxed = item.CurrentPrice
		if c.OriginalPriceTaxed != nil {
			item.CurrentPriceTaxed = *c.OriginalPriceTaxed
		}
	}
	c.Coupon = nil
	c.OriginalPrice = nil
	c.OriginalPriceTaxed = nil
	return true
}

func discounted(price decimal.Decimal, coupon Coupon) decimal.Decimal {
	var out decimal.Decimal
	if coupon.kind() == CouponPercentage {
		out = price.Sub(coupon.Amount.Div(hundred).Mul(price))
	} else {
		out = price.Sub(coupon.Amount)
	}
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

func validateDonation(amount decimal.Decimal, donationType string) error {
	if !amount.IsPositive() || strings.TrimSpace(donationType) == "" {
		return ErrInvalidAmount
	}
	return nil
}

// quantityFor is 1 for zero or one child, else the child count.
func quantityFor(children []uint) int {
	if len(children) <= 1 {
		return 1
	}
	return len(children)
}

func uniqueIDs(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
