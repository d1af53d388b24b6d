package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"shopify-product-editor/internal/application"
	"shopify-product-editor/internal/domain"
	"shopify-product-editor/internal/infrastructure/shopify"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler holds the HTTP surface of the service.
type Handler struct {
	auth        *application.AuthService
	products    *application.ProductService
	apiSecret   string
	frontendURL string
	publicURL   string
	useTunnel   bool
	logger      zerolog.Logger
}

// NewHandler creates the HTTP handler set. publicURL is the tunnel
// hostname used instead of frontendURL when useTunnel is set.
func NewHandler(
	auth *application.AuthService,
	products *application.ProductService,
	apiSecret string,
	frontendURL string,
	publicURL string,
	useTunnel bool,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		auth:        auth,
		products:    products,
		apiSecret:   apiSecret,
		frontendURL: frontendURL,
		publicURL:   publicURL,
		useTunnel:   useTunnel,
		logger:      logger,
	}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/auth/install", h.Install)
	r.Get("/auth/callback", h.OAuthCallback)
	r.Get("/api/access-token", h.AccessToken)
	r.Get("/api/products", h.Products)
	r.Post("/api/update-product-title", h.UpdateProductTitle)
	r.Get("/api/public-url", h.PublicURL)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// frontendBase is where the browser lands after a successful install.
func (h *Handler) frontendBase() string {
	if h.useTunnel && h.publicURL != "" {
		return h.publicURL
	}
	return h.frontendURL
}

// Install redirects the merchant's browser to the authorization page.
func (h *Handler) Install(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		writeError(w, http.StatusBadRequest, "Missing shop parameter")
		return
	}

	authURL, err := h.auth.InstallURL(shop)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build install url")
		writeError(w, http.StatusInternalServerError, "Failed to build install URL")
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback verifies the callback signature, exchanges the code and
// redirects the browser to the frontend with the shop in the query.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	shop := q.Get("shop")
	code := q.Get("code")
	if shop == "" || code == "" || q.Get("hmac") == "" {
		writeError(w, http.StatusBadRequest, "Missing required query params")
		return
	}

	params := make(map[string]string, len(q))
	for k := range q {
		params[k] = q.Get(k)
	}
	if !shopify.VerifySignature(params, h.apiSecret) {
		h.logger.Warn().Str("shop", shop).Msg("invalid hmac on oauth callback")
		writeError(w, http.StatusForbidden, "Invalid HMAC: Request may be forged")
		return
	}

	if err := h.auth.ExchangeAndStore(r.Context(), shop, code); err != nil {
		var exchangeErr *shopify.ExchangeError
		if errors.As(err, &exchangeErr) && exchangeErr.Body != "" {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   "OAuth failed",
				"details": exchangeErr.Body,
			})
			return
		}
		if errors.Is(err, shopify.ErrNoAccessToken) {
			writeError(w, http.StatusInternalServerError, "OAuth failed: No access token")
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "OAuth failed",
			"details": err.Error(),
		})
		return
	}

	http.Redirect(w, r, h.frontendBase()+"/?shop="+url.QueryEscape(shop), http.StatusFound)
}

// AccessToken returns the stored token for a shop.
func (h *Handler) AccessToken(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		writeError(w, http.StatusBadRequest, "Missing shop parameter")
		return
	}

	token, err := h.products.AccessToken(r.Context(), shop)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			writeError(w, http.StatusNotFound, "No access token found for this shop")
			return
		}
		h.logger.Error().Err(err).Str("shop", shop).Msg("failed to read access token")
		writeError(w, http.StatusInternalServerError, "Failed to read access token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}

// Products returns one page of published products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		writeError(w, http.StatusBadRequest, "Missing shop parameter")
		return
	}
	cursor := r.URL.Query().Get("cursor")

	page, err := h.products.ListProducts(r.Context(), shop, cursor)
	if err != nil {
		h.writeUpstreamError(w, err, "Failed to fetch products")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

type updateProductRequest struct {
	Shop           string                 `json:"shop"`
	ProductID      string                 `json:"productId"`
	NewTitle       string                 `json:"newTitle"`
	VariantUpdates []domain.VariantUpdate `json:"variantUpdates"`
}

// UpdateProductTitle applies a title change plus optional variant price
// changes. Variant-level failures come back inside updatedPrices with a
// 200; only a title user error or a transport failure fails the request.
func (h *Handler) UpdateProductTitle(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Shop == "" || req.ProductID == "" || req.NewTitle == "" {
		writeError(w, http.StatusBadRequest, "Missing parameters")
		return
	}

	result, err := h.products.UpdateProduct(r.Context(), req.Shop, application.UpdateProductInput{
		ProductID:      req.ProductID,
		NewTitle:       req.NewTitle,
		VariantUpdates: req.VariantUpdates,
	})
	if err != nil {
		var userErr *domain.UserError
		if errors.As(err, &userErr) {
			writeError(w, http.StatusBadRequest, userErr.Message)
			return
		}
		h.writeUpstreamError(w, err, "Failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"product":       result.Product,
		"updatedPrices": result.UpdatedPrices,
	})
}

// PublicURL reports the development tunnel hostname, if any.
func (h *Handler) PublicURL(w http.ResponseWriter, r *http.Request) {
	var publicURL *string
	if h.useTunnel && h.publicURL != "" {
		publicURL = &h.publicURL
	}
	writeJSON(w, http.StatusOK, map[string]any{"publicUrl": publicURL})
}

// writeUpstreamError maps the error taxonomy onto HTTP statuses, passing
// upstream detail through for diagnostics.
func (h *Handler) writeUpstreamError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, domain.ErrTokenNotFound) {
		writeError(w, http.StatusNotFound, "No access token found for this shop")
		return
	}

	var upstream *shopify.UpstreamError
	if errors.As(err, &upstream) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Shopify API error",
			"details": upstream.Errors,
		})
		return
	}

	var shape *shopify.ShapeError
	if errors.As(err, &shape) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Unexpected Shopify API response",
			"details": json.RawMessage(shape.Raw),
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error":   fallback,
		"details": err.Error(),
	})
}
