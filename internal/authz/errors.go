package authz

import "errors"

var (
	// ErrUnauthenticated indicates no resolvable principal for the request.
	ErrUnauthenticated = errors.New("authz: unauthenticated")
	// ErrInvalidConfiguration indicates a broken principal setup, such as a
	// missing role or an owned scope without an owning client. Callers must
	// surface it as an ordinary deny; only logs distinguish it.
	ErrInvalidConfiguration = errors.New("authz: invalid configuration")
)
