package shopify

import (
	"context"
	"fmt"
	"strings"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// TokenValidator checks a stored access token with a lightweight Shop.Get
// call. Shopify tokens do not expire but can be revoked, e.g. when the
// merchant uninstalls the app.
type TokenValidator struct {
	app    goshopify.App
	logger zerolog.Logger
}

// NewTokenValidator creates a token validator.
func NewTokenValidator(apiKey, apiSecret string, logger zerolog.Logger) *TokenValidator {
	return &TokenValidator{
		app:    goshopify.App{ApiKey: apiKey, ApiSecret: apiSecret},
		logger: logger,
	}
}

// Validate returns false only when the API rejects the token as invalid or
// revoked. Network trouble and other non-auth failures report the token as
// valid, with a trace for investigation.
func (v *TokenValidator) Validate(ctx context.Context, shop string, accessToken string) (bool, error) {
	client, err := goshopify.NewClient(v.app, shop, accessToken)
	if err != nil {
		return false, fmt.Errorf("failed to create client: %w", err)
	}

	if _, err := client.Shop.Get(ctx, nil); err != nil {
		errStr := strings.ToLower(err.Error())
		for _, marker := range []string{"401", "unauthorized", "invalid token", "forbidden"} {
			if strings.Contains(errStr, marker) {
				v.logger.Warn().Str("shop", shop).Msg("access token is invalid or revoked")
				return false, nil
			}
		}
		v.logger.Warn().Err(err).Str("shop", shop).Msg("token validation inconclusive, assuming valid")
		return true, nil
	}
	return true, nil
}
