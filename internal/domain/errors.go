package domain

import (
	"errors"
	"strings"
)

// ErrTokenNotFound is returned by a TokenStore when no access token is
// stored for the requested shop.
var ErrTokenNotFound = errors.New("no access token found for this shop")

// UserError is a business-rule validation failure reported by a mutation
// inside a 200 response, distinct from a transport-level error.
type UserError struct {
	Message string
	Field   []string
}

func (e *UserError) Error() string {
	if len(e.Field) == 0 {
		return e.Message
	}
	return e.Message + " (" + strings.Join(e.Field, ".") + ")"
}
