package application

import (
	"context"
	"encoding/json"

	"shopify-product-editor/internal/domain"
	"shopify-product-editor/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ProductService reads and mutates product data on behalf of a shop,
// resolving the stored access token before every upstream call.
type ProductService struct {
	store     ports.TokenStore
	gateway   ports.ProductGateway
	validator ports.TokenValidator
	logger    zerolog.Logger
}

// NewProductService creates a product service. validator may be nil, in
// which case stored tokens are handed out without a liveness probe.
func NewProductService(store ports.TokenStore, gateway ports.ProductGateway, validator ports.TokenValidator, logger zerolog.Logger) *ProductService {
	return &ProductService{
		store:     store,
		gateway:   gateway,
		validator: validator,
		logger:    logger,
	}
}

// AccessToken returns the stored token for shop. When a validator is
// configured, an invalid token is logged but still returned; the token
// might be temporarily rejected, and the UI surfaces the upstream failure
// on the next data call anyway.
func (s *ProductService) AccessToken(ctx context.Context, shop string) (string, error) {
	token, err := s.store.Get(ctx, shop)
	if err != nil {
		return "", err
	}

	if s.validator != nil {
		valid, err := s.validator.Validate(ctx, shop, token)
		if err != nil {
			s.logger.Warn().Err(err).Str("shop", shop).Msg("token validation failed")
		} else if !valid {
			s.logger.Warn().Str("shop", shop).Msg("stored token no longer accepted by Shopify")
		}
	}
	return token, nil
}

// ListProducts returns one page of published products for shop. An empty
// cursor requests the first page.
func (s *ProductService) ListProducts(ctx context.Context, shop string, cursor string) (*domain.ProductPage, error) {
	token, err := s.store.Get(ctx, shop)
	if err != nil {
		return nil, err
	}

	page, err := s.gateway.ListProducts(ctx, shop, token, cursor)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("failed to list products")
		return nil, err
	}
	return page, nil
}

// UpdateProductInput is a combined title + variant price change request.
type UpdateProductInput struct {
	ProductID      string
	NewTitle       string
	VariantUpdates []domain.VariantUpdate
}

// UpdateProduct applies the title mutation and then, best-effort, the bulk
// variant price mutation. A title-level user error aborts before any
// variant call is made; there is no compensation for a title change that
// already applied server-side. Variant-level failures never fail the
// operation: they are folded into the UpdatedPrices list.
func (s *ProductService) UpdateProduct(ctx context.Context, shop string, in UpdateProductInput) (*domain.UpdateResult, error) {
	token, err := s.store.Get(ctx, shop)
	if err != nil {
		return nil, err
	}

	product, err := s.gateway.UpdateProductTitle(ctx, shop, token, in.ProductID, in.NewTitle)
	if err != nil {
		return nil, err
	}

	result := &domain.UpdateResult{
		Product:       *product,
		UpdatedPrices: []domain.VariantUpdateOutcome{},
	}

	inputs := filterPriceInputs(in.VariantUpdates)
	if len(inputs) == 0 {
		return result, nil
	}

	outcomes, err := s.gateway.BulkUpdateVariantPrices(ctx, shop, token, in.ProductID, inputs)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Str("product_id", in.ProductID).Msg("bulk variant price update failed")
		result.UpdatedPrices = append(result.UpdatedPrices, domain.VariantUpdateOutcome{Error: err.Error()})
		return result, nil
	}

	result.UpdatedPrices = outcomes
	return result, nil
}

// filterPriceInputs keeps entries with an id and a usable price, coercing
// each price to its string form.
func filterPriceInputs(updates []domain.VariantUpdate) []domain.PriceInput {
	inputs := make([]domain.PriceInput, 0, len(updates))
	for _, u := range updates {
		if u.ID == "" {
			continue
		}
		price, ok := coercePrice(u.Price)
		if !ok {
			continue
		}
		inputs = append(inputs, domain.PriceInput{ID: u.ID, Price: price})
	}
	return inputs
}

// coercePrice renders a submitted price as a decimal string. Strings pass
// through untouched; JSON numbers go through decimal so the text form has
// no float formatting artifacts.
func coercePrice(v any) (string, bool) {
	switch p := v.(type) {
	case string:
		if p == "" {
			return "", false
		}
		return p, true
	case json.Number:
		return p.String(), true
	case float64:
		return decimal.NewFromFloat(p).String(), true
	default:
		return "", false
	}
}
