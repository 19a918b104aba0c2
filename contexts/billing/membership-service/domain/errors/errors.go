// Package errors declares membership-specific domain failures.
package errors

import "errors"

var (
	ErrAlreadyHasMembership = errors.New("membership: user already has a membership")
	ErrMembershipNotFound   = errors.New("membership: not found")
	ErrInvalidTier          = errors.New("membership: checkout requires a paid tier")
)
