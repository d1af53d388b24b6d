package ports

import (
	"context"

	"shopify-product-editor/internal/domain"
)

// OAuthClient performs the install-time authorization flow against Shopify.
type OAuthClient interface {
	// AuthorizeURL builds the merchant-facing install/consent URL.
	AuthorizeURL(shop string, state string) string
	// Exchange trades an authorization code for a permanent access token.
	Exchange(ctx context.Context, shop string, code string) (string, error)
}

// ProductGateway translates between the UI-facing product schema and the
// GraphQL Admin API.
type ProductGateway interface {
	// ListProducts fetches one page of published products. An empty cursor
	// requests the first page.
	ListProducts(ctx context.Context, shop, accessToken, cursor string) (*domain.ProductPage, error)

	// UpdateProductTitle runs the title mutation. A mutation-level user
	// error is returned as *domain.UserError.
	UpdateProductTitle(ctx context.Context, shop, accessToken, productID, title string) (*domain.UpdatedProduct, error)

	// BulkUpdateVariantPrices updates all given variant prices in a single
	// upstream call and reports per-variant outcomes. Upstream user errors
	// are folded into the outcome list, not returned as an error; only
	// transport failures and malformed responses error out.
	BulkUpdateVariantPrices(ctx context.Context, shop, accessToken, productID string, variants []domain.PriceInput) ([]domain.VariantUpdateOutcome, error)
}

// TokenValidator probes whether a stored access token is still accepted by
// the Admin API.
type TokenValidator interface {
	Validate(ctx context.Context, shop string, accessToken string) (bool, error)
}
