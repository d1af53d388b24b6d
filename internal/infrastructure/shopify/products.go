package shopify

import (
	"context"
	"encoding/json"

	"shopify-product-editor/internal/domain"

	"github.com/rs/zerolog"
)

// Page shape requested from the Admin API: 20 products, at most one image
// and 50 variants each.
var listProductsQuery = mustParse("listProducts", `
	query getProducts($cursor: String) {
		products(first: 20, after: $cursor) {
			pageInfo {
				hasNextPage
				endCursor
			}
			edges {
				node {
					id
					title
					handle
					publishedAt
					images(first: 1) {
						nodes {
							src
							altText
							id
						}
					}
					variants(first: 50) {
						edges {
							node {
								id
								title
								price
							}
						}
					}
				}
			}
		}
	}
`)

var updateProductTitleMutation = mustParse("productUpdate", `
	mutation productUpdate($input: ProductInput!) {
		productUpdate(input: $input) {
			product {
				id
				title
				handle
			}
			userErrors {
				field
				message
			}
		}
	}
`)

var bulkUpdateVariantPricesMutation = mustParse("productVariantsBulkUpdate", `
	mutation productVariantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
		productVariantsBulkUpdate(productId: $productId, variants: $variants) {
			product { id }
			productVariants { id price }
			userErrors { field message }
		}
	}
`)

// Gateway reshapes GraphQL Admin API responses into the stable UI-facing
// product schema.
type Gateway struct {
	gql    *GraphQLClient
	logger zerolog.Logger
}

// NewGateway creates a product gateway over the given GraphQL transport.
func NewGateway(gql *GraphQLClient, logger zerolog.Logger) *Gateway {
	return &Gateway{gql: gql, logger: logger}
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type productsData struct {
	Products *struct {
		PageInfo struct {
			HasNextPage bool    `json:"hasNextPage"`
			EndCursor   *string `json:"endCursor"`
		} `json:"pageInfo"`
		Edges []struct {
			Node struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				Handle      string  `json:"handle"`
				PublishedAt *string `json:"publishedAt"`
				Images      struct {
					Nodes []domain.ProductImage `json:"nodes"`
				} `json:"images"`
				Variants struct {
					Edges []struct {
						Node domain.VariantSummary `json:"node"`
					} `json:"edges"`
				} `json:"variants"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

// ListProducts fetches one page of products and projects each published
// node into a ProductSummary. Nodes without a publication timestamp are
// dropped; pageInfo passes through unmodified.
func (g *Gateway) ListProducts(ctx context.Context, shop, accessToken, cursor string) (*domain.ProductPage, error) {
	variables := map[string]any{"cursor": nil}
	if cursor != "" {
		variables["cursor"] = cursor
	}

	raw, err := g.gql.Do(ctx, shop, accessToken, listProductsQuery, variables)
	if err != nil {
		return nil, err
	}

	var data productsData
	if err := json.Unmarshal(raw, &data); err != nil || data.Products == nil {
		return nil, &ShapeError{Raw: raw}
	}

	page := &domain.ProductPage{
		Products:    make([]domain.ProductSummary, 0, len(data.Products.Edges)),
		HasNextPage: data.Products.PageInfo.HasNextPage,
		EndCursor:   data.Products.PageInfo.EndCursor,
	}
	for _, edge := range data.Products.Edges {
		node := edge.Node
		if node.PublishedAt == nil || *node.PublishedAt == "" {
			continue
		}
		variants := make([]domain.VariantSummary, 0, len(node.Variants.Edges))
		for _, v := range node.Variants.Edges {
			variants = append(variants, v.Node)
		}
		images := node.Images.Nodes
		if images == nil {
			images = []domain.ProductImage{}
		}
		page.Products = append(page.Products, domain.ProductSummary{
			ID:       node.ID,
			Title:    node.Title,
			Handle:   node.Handle,
			Images:   images,
			Variants: variants,
		})
	}

	g.logger.Debug().Str("shop", shop).Int("products", len(page.Products)).Bool("has_next", page.HasNextPage).Msg("listed products")
	return page, nil
}

type productUpdateData struct {
	ProductUpdate *struct {
		Product    *domain.UpdatedProduct `json:"product"`
		UserErrors []userError            `json:"userErrors"`
	} `json:"productUpdate"`
}

// UpdateProductTitle runs the title mutation. A mutation-level user error
// is returned as *domain.UserError so the caller can fail fast before any
// variant work.
func (g *Gateway) UpdateProductTitle(ctx context.Context, shop, accessToken, productID, title string) (*domain.UpdatedProduct, error) {
	variables := map[string]any{
		"input": map[string]any{
			"id":    productID,
			"title": title,
		},
	}

	raw, err := g.gql.Do(ctx, shop, accessToken, updateProductTitleMutation, variables)
	if err != nil {
		return nil, err
	}

	var data productUpdateData
	if err := json.Unmarshal(raw, &data); err != nil || data.ProductUpdate == nil {
		return nil, &ShapeError{Raw: raw}
	}
	if len(data.ProductUpdate.UserErrors) > 0 {
		first := data.ProductUpdate.UserErrors[0]
		return nil, &domain.UserError{Message: first.Message, Field: first.Field}
	}
	if data.ProductUpdate.Product == nil {
		return nil, &ShapeError{Raw: raw}
	}
	return data.ProductUpdate.Product, nil
}

type bulkUpdateData struct {
	ProductVariantsBulkUpdate *struct {
		ProductVariants []struct {
			ID    string `json:"id"`
			Price string `json:"price"`
		} `json:"productVariants"`
		UserErrors []userError `json:"userErrors"`
	} `json:"productVariantsBulkUpdate"`
}

// BulkUpdateVariantPrices updates all given variants in one upstream call.
// User errors and updated variants are both folded into the ordered
// outcome list; partial success is a normal result, not an error.
func (g *Gateway) BulkUpdateVariantPrices(ctx context.Context, shop, accessToken, productID string, variants []domain.PriceInput) ([]domain.VariantUpdateOutcome, error) {
	variables := map[string]any{
		"productId": productID,
		"variants":  variants,
	}

	raw, err := g.gql.Do(ctx, shop, accessToken, bulkUpdateVariantPricesMutation, variables)
	if err != nil {
		return nil, err
	}

	var data bulkUpdateData
	if err := json.Unmarshal(raw, &data); err != nil || data.ProductVariantsBulkUpdate == nil {
		return nil, &ShapeError{Raw: raw}
	}

	result := data.ProductVariantsBulkUpdate
	outcomes := make([]domain.VariantUpdateOutcome, 0, len(result.UserErrors)+len(result.ProductVariants))
	for _, ue := range result.UserErrors {
		outcomes = append(outcomes, domain.VariantUpdateOutcome{Error: ue.Message, Field: ue.Field})
	}
	for _, v := range result.ProductVariants {
		outcomes = append(outcomes, domain.VariantUpdateOutcome{ID: v.ID, Updated: true, Price: v.Price})
	}

	g.logger.Debug().Str("shop", shop).Int("updated", len(result.ProductVariants)).Int("errors", len(result.UserErrors)).Msg("bulk variant price update")
	return outcomes, nil
}
