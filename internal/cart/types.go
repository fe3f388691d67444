package cart

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ItemKind tags the variant a LineItem carries.
type ItemKind string

const (
	KindClassRegistration ItemKind = "class_registration"
	KindDonation          ItemKind = "donation"
)

// Subscription types offered by membership classes.
const (
	SubscriptionMonthly      = "monthly"
	SubscriptionSixMonths    = "six_months"
	SubscriptionTwelveMonths = "twelve_months"
	SubscriptionExclusive    = "exclusive"
	SubscriptionVirtual      = "virtual"
)

// IsSubscriptionType reports whether name is an offered subscription type.
func IsSubscriptionType(name string) bool {
	switch name {
	case SubscriptionMonthly, SubscriptionSixMonths, SubscriptionTwelveMonths, SubscriptionExclusive, SubscriptionVirtual:
		return true
	}
	return false
}

type CouponType string

const (
	CouponFixed      CouponType = "fixed"
	CouponPercentage CouponType = "percentage"
)

// Coupon is the coupon definition returned by the coupon lookup.
type Coupon struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
	Type   CouponType      `json:"type"`
}

// kind treats anything other than "percentage" as a fixed amount.
func (c Coupon) kind() CouponType {
	if strings.EqualFold(strings.TrimSpace(string(c.Type)), string(CouponPercentage)) {
		return CouponPercentage
	}
	return CouponFixed
}

// AppliedCoupon is a coupon attached to one line item. Savings is fixed at
// apply time and never recomputed.
type AppliedCoupon struct {
	Code    string          `json:"code"`
	Amount  decimal.Decimal `json:"amount"`
	Type    CouponType      `json:"type"`
	Savings decimal.Decimal `json:"savings"`
}

type MembershipInfo struct {
	FullPrice        decimal.Decimal `json:"full_price"`
	SubscriptionType string          `json:"subscription_type"`
	IsProrated       bool            `json:"is_prorated"`
}

// MembershipTable maps a subscription type to its full price.
type MembershipTable map[string]decimal.Decimal

// ClassSnapshot is an immutable copy of the class fields the cart depends on,
// taken when the class is added.
type ClassSnapshot struct {
	ClassID          uint            `json:"class_id"`
	Title            string          `json:"title"`
	Alias            string          `json:"alias"`
	Price            decimal.Decimal `json:"price"`
	CoachID          uint            `json:"coach_id"`
	Enabled          bool            `json:"enabled"`
	Frozen           bool            `json:"frozen"`
	IsMembership     bool            `json:"is_membership"`
	MembershipType   string          `json:"membership_type,omitempty"`
	RequiresPassword bool            `json:"requires_password"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
	HaltDate         *time.Time      `json:"halt_date,omitempty"`
}

// Weekday is the day of the week the class meets on.
func (c ClassSnapshot) Weekday() time.Weekday {
	return c.StartDate.Weekday()
}

// Child is the subset of child data the cart needs for messages.
type Child struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (c Child) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ClassRegistration holds the fields only class items carry.
type ClassRegistration struct {
	ClassID          uint            `json:"class_id"`
	Alias            string          `json:"alias,omitempty"`
	CoachID          uint            `json:"coach_id"`
	SelectedChildren []uint          `json:"selected_children"`
	Membership       *MembershipInfo `json:"membership,omitempty"`
	Coupon           *AppliedCoupon  `json:"coupon,omitempty"`
	// Prices before any coupon, kept while a coupon is attached.
	OriginalPrice      *decimal.Decimal `json:"original_price,omitempty"`
	OriginalPriceTaxed *decimal.Decimal `json:"original_price_taxed,omitempty"`
	SiblingDiscount    decimal.Decimal  `json:"sibling_discount"`
	AutoEnroll         bool             `json:"auto_enroll"`
	AddedAt            time.Time        `json:"added_at"`
}

type Donation struct {
	Type string `json:"donation_type"`
}

// LineItem is one purchasable unit in a cart. Exactly one of Class or
// Donation is set, matching Kind.
type LineItem struct {
	RowID             string             `json:"row_id"`
	Kind              ItemKind           `json:"kind"`
	Name              string             `json:"name"`
	BasePrice         decimal.Decimal    `json:"base_price"`
	CurrentPrice      decimal.Decimal    `json:"current_price"`
	CurrentPriceTaxed decimal.Decimal    `json:"current_price_taxed"`
	Quantity          int                `json:"quantity"`
	Class             *ClassRegistration `json:"class,omitempty"`
	Donation          *Donation          `json:"donation,omitempty"`
}

func (i LineItem) IsDonation() bool {
	return i.Kind == KindDonation && i.Donation != nil
}

func (i LineItem) IsClass() bool {
	return i.Kind == KindClassRegistration && i.Class != nil
}

func (i LineItem) clone() LineItem {
	out := i
	if i.Class != nil {
		c := *i.Class
		c.SelectedChildren = append([]uint(nil), i.Class.SelectedChildren...)
		if i.Class.Membership != nil {
			m := *i.Class.Membership
			c.Membership = &m
		}
		if i.Class.Coupon != nil {
			cp := *i.Class.Coupon
			c.Coupon = &cp
		}
		if i.Class.OriginalPrice != nil {
			p := *i.Class.OriginalPrice
			c.OriginalPrice = &p
		}
		if i.Class.OriginalPriceTaxed != nil {
			p := *i.Class.OriginalPriceTaxed
			c.OriginalPriceTaxed = &p
		}
		out.Class = &c
	}
	if i.Donation != nil {
		d := *i.Donation
		out.Donation = &d
	}
	return out
}

// Meta is derived from the items by Pricing.Total and never edited by hand.
type Meta struct {
	// Subtotal is the pre-coupon price of the class rows; coupon savings
	// are reported in Discount.
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	SiblingDiscount decimal.Decimal `json:"sibling_discount"`
	Fee             decimal.Decimal `json:"fee"`
	Total           decimal.Decimal `json:"total"`
	Donations       decimal.Decimal `json:"donations"`
	MembershipPrice decimal.Decimal `json:"membership_price"`
	MembershipType  string          `json:"membership_type"`
	Prorated        bool            `json:"prorated"`
}

// Cart is the full per-session cart state.
type Cart struct {
	Items []LineItem `json:"items"`
	Meta  Meta       `json:"meta"`
}

func (c Cart) clone() Cart {
	items := make([]LineItem, len(c.Items))
	for i, item := range c.Items {
		items[i] = item.clone()
	}
	return Cart{Items: items, Meta: c.Meta}
}

// ClassItemCount counts non-donation items.
func (c Cart) ClassItemCount() int {
	n := 0
	for _, item := range c.Items {
		if item.IsClass() {
			n++
		}
	}
	return n
}

// ChildClassPair is one roster row the cart would create at checkout.
type ChildClassPair struct {
	ClassID uint `json:"class_id"`
	ChildID uint `json:"child_id"`
}
