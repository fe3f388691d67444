package cart

import "context"

// ClassDirectory resolves class snapshots. A missing class is (nil, nil).
type ClassDirectory interface {
	ClassSnapshot(ctx context.Context, classID uint) (*ClassSnapshot, error)
}

// ChildDirectory lists the children owned by a user.
type ChildDirectory interface {
	OwnedChildren(ctx context.Context, userID uint) ([]Child, error)
}

type EnrollmentDirectory interface {
	HasActiveEnrollment(ctx context.Context, childID, classID uint) (bool, error)
	HasPriorPaidEnrollment(ctx context.Context, userID, classID uint) (bool, error)
}

// CouponDirectory resolves coupons issued to a user. Missing coupons are
// (nil, nil).
type CouponDirectory interface {
	ActiveCoupon(ctx context.Context, userID uint) (*Coupon, error)
	CouponByCode(ctx context.Context, userID uint, code string) (*Coupon, error)
}

type MembershipDirectory interface {
	MembershipTable(ctx context.Context, classID uint) (MembershipTable, error)
}

// Directories groups the collaborator lookups the policy consults.
type Directories struct {
	Classes     ClassDirectory
	Children    ChildDirectory
	Enrollments EnrollmentDirectory
	Coupons     CouponDirectory
	Memberships MembershipDirectory
}
