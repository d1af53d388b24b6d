package ports

import "context"

// TokenStore persists the shop domain → access token mapping. Get returns
// domain.ErrTokenNotFound when no token is stored for the shop; Set is a
// whole-record replacement.
type TokenStore interface {
	Get(ctx context.Context, shop string) (string, error)
	Set(ctx context.Context, shop string, accessToken string) error
}
