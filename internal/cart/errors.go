package cart

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrForeignChild           = errors.New("child does not belong to user")
	ErrAlreadyEnrolled        = errors.New("child already enrolled in class")
	ErrMultiCoachConflict     = errors.New("cart cannot hold classes from different coaches")
	ErrDuplicateClass         = errors.New("class already in cart")
	ErrNoRemainingSessions    = errors.New("class has no remaining sessions in the prorated period")
	ErrInvalidOperation       = errors.New("invalid operation for cart item")
	ErrInvalidAmount          = errors.New("invalid donation amount or type")
	ErrClassUnavailable       = errors.New("class not open for registration")
	ErrPasswordRequired       = errors.New("class requires password confirmation")
	ErrIncorrectPassword      = errors.New("incorrect class password")
	ErrMembershipFlowRequired = errors.New("class is a membership, use the membership flow")
)

// ForeignChildError lists the child ids that are not owned by the user.
type ForeignChildError struct {
	ChildIDs []uint
}

func (e *ForeignChildError) Error() string {
	ids := make([]string, len(e.ChildIDs))
	for i, id := range e.ChildIDs {
		ids[i] = fmt.Sprint(id)
	}
	return "you can only assign your own children to the cart, invalid child ids: " + strings.Join(ids, ", ")
}

func (e *ForeignChildError) Is(target error) bool {
	return target == ErrForeignChild
}

// AlreadyEnrolledError names the child holding an active roster for the class.
type AlreadyEnrolledError struct {
	ChildID   uint
	ChildName string
	ClassID   uint
}

func (e *AlreadyEnrolledError) Error() string {
	name := e.ChildName
	if name == "" {
		name = "Child"
	}
	return name + " is already enrolled in this class"
}

func (e *AlreadyEnrolledError) Is(target error) bool {
	return target == ErrAlreadyEnrolled
}

// MembershipRedirectError tells the caller to use the membership add flow.
type MembershipRedirectError struct {
	ClassID        uint
	Alias          string
	MembershipType string
}

func (e *MembershipRedirectError) Error() string {
	return ErrMembershipFlowRequired.Error()
}

func (e *MembershipRedirectError) Is(target error) bool {
	return target == ErrMembershipFlowRequired
}

// Redirect is the client route for the membership options page.
func (e *MembershipRedirectError) Redirect() string {
	return "/membership/" + e.Alias
}

func notFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func invalidOperation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}
