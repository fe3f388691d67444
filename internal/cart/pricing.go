package cart

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PriorPaidFunc reports whether the user already holds a paid roster for the
// class. It must be resolved before pricing runs; pricing never does I/O.
type PriorPaidFunc func(classID uint) bool

// Pricing holds the cart-wide pricing constants. All methods are pure.
type Pricing struct {
	FeePerChild            decimal.Decimal
	SiblingDiscountPercent decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		FeePerChild:            decimal.Zero,
		SiblingDiscountPercent: decimal.NewFromInt(20),
	}
}

// SiblingDiscount returns the discount per class row and their sum.
//
// With a prior paid roster for the class every selected child is discounted;
// otherwise only the children beyond the first.
func (p Pricing) SiblingDiscount(items []LineItem, priorPaid PriorPaidFunc) (map[string]decimal.Decimal, decimal.Decimal) {
	rate := p.SiblingDiscountPercent.Div(hundred)
	perRow := make(map[string]decimal.Decimal, len(items))
	total := decimal.Zero

	for _, item := range items {
		if !item.IsClass() {
			continue
		}
		children := len(item.Class.SelectedChildren)

		discounted := 0
		switch {
		case children > 0 && priorPaid != nil && priorPaid(item.Class.ClassID):
			discounted = children
		case children > 1:
			discounted = children - 1
		}

		amount := rate.Mul(item.BasePrice).Mul(decimal.NewFromInt(int64(discounted)))
		perRow[item.RowID] = amount
		total = total.Add(amount)
	}
	return perRow, total
}

// CouponDiscount sums the savings recorded when each coupon was applied.
func CouponDiscount(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.IsClass() && item.Class.Coupon != nil {
			total = total.Add(item.Class.Coupon.Savings)
		}
	}
	return total
}

// PlatformFee charges FeePerChild for every selected child across class rows.
func (p Pricing) PlatformFee(items []LineItem) decimal.Decimal {
	children := 0
	for _, item := range items {
		if item.IsClass() {
			children += len(item.Class.SelectedChildren)
		}
	}
	return p.FeePerChild.Mul(decimal.NewFromInt(int64(children)))
}

// MembershipSummary aggregates membership display fields. Full prices are
// summed; type and prorated come from the first membership row.
func MembershipSummary(items []LineItem) (decimal.Decimal, string, bool) {
	price := decimal.Zero
	membershipType := ""
	prorated := false
	found := false

	for _, item := range items {
		if !item.IsClass() || item.Class.Membership == nil {
			continue
		}
		m := item.Class.Membership
		price = price.Add(m.FullPrice)
		if !found {
			membershipType = m.SubscriptionType
			prorated = m.IsProrated
			found = true
		}
	}
	return price, membershipType, prorated
}

// Total derives the cart meta from the items. Subtotal is the pre-coupon
// price of every class row and Discount the recorded coupon savings, so
// Subtotal-Discount is the sum of current prices. Discounts never eat into
// the fee: the goods part is clamped at zero before the fee is added.
func (p Pricing) Total(items []LineItem, priorPaid PriorPaidFunc) (Meta, map[string]decimal.Decimal) {
	subtotal := decimal.Zero
	donations := decimal.Zero
	for _, item := range items {
		switch {
		case item.IsDonation():
			donations = donations.Add(item.CurrentPrice)
		case item.IsClass():
			subtotal = subtotal.Add(item.BasePrice)
		}
	}

	perRow, sibling := p.SiblingDiscount(items, priorPaid)
	discount := CouponDiscount(items)
	fee := p.PlatformFee(items)
	membershipPrice, membershipType, prorated := MembershipSummary(items)

	goods := subtotal.Sub(discount).Sub(sibling).Add(donations)
	if goods.IsNegative() {
		goods = decimal.Zero
	}
	total := goods.Add(fee)

	return Meta{
		Subtotal:        subtotal,
		Discount:        discount,
		SiblingDiscount: sibling,
		Fee:             fee,
		Total:           total,
		Donations:       donations,
		MembershipPrice: membershipPrice,
		MembershipType:  membershipType,
		Prorated:        prorated,
	}, perRow
}
