package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"shopify-product-editor/internal/ports"

	"github.com/rs/zerolog"
)

// AuthService drives the app install flow: building the merchant consent
// URL and completing the code-for-token exchange. Signature verification
// happens at the HTTP boundary before this service is invoked.
type AuthService struct {
	store  ports.TokenStore
	oauth  ports.OAuthClient
	logger zerolog.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(store ports.TokenStore, oauth ports.OAuthClient, logger zerolog.Logger) *AuthService {
	return &AuthService{store: store, oauth: oauth, logger: logger}
}

// InstallURL builds the authorization URL the merchant's browser is sent
// to when installing the app.
func (s *AuthService) InstallURL(shop string) (string, error) {
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return s.oauth.AuthorizeURL(shop, hex.EncodeToString(stateBytes)), nil
}

// ExchangeAndStore trades the authorization code for an access token and
// persists it keyed by shop domain. Re-installs overwrite the previous
// token; last writer wins.
func (s *AuthService) ExchangeAndStore(ctx context.Context, shop string, code string) error {
	accessToken, err := s.oauth.Exchange(ctx, shop, code)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("oauth exchange failed")
		return err
	}

	if err := s.store.Set(ctx, shop, accessToken); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("failed to persist access token")
		return fmt.Errorf("failed to persist access token: %w", err)
	}

	s.logger.Info().Str("shop", shop).Msg("stored access token")
	return nil
}
