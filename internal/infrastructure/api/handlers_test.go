package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"shopify-product-editor/internal/application"
	"shopify-product-editor/internal/infrastructure/shopify"
	"shopify-product-editor/internal/infrastructure/store"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testEnv struct {
	router *chi.Mux
	store  *store.FileStore
}

// newTestEnv wires the full handler stack against a stub Shopify backend
// serving both the token exchange and the GraphQL endpoint.
func newTestEnv(t *testing.T, shopifyStub http.HandlerFunc) *testEnv {
	t.Helper()

	srv := httptest.NewServer(shopifyStub)
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	fileStore, err := store.NewFileStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	oauth := shopify.NewOAuthClient("key", testSecret, "read_products,write_products", "http://localhost:3001", 5*time.Second, logger).
		WithBaseURL(srv.URL)
	gql := shopify.NewGraphQLClient("2025-04", 5*time.Second, logger).WithBaseURL(srv.URL)
	gateway := shopify.NewGateway(gql, logger)

	authService := application.NewAuthService(fileStore, oauth, logger)
	productService := application.NewProductService(fileStore, gateway, nil, logger)

	handler := NewHandler(authService, productService, testSecret, "http://localhost:3000", "", false, logger)

	r := chi.NewRouter()
	handler.Register(r)
	return &testEnv{router: r, store: fileStore}
}

func signQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestOAuthCallback(t *testing.T) {
	t.Run("FullInstallFlow", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/admin/oauth/access_token", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok_1"})
		})

		params := map[string]string{
			"shop":      "test.myshopify.com",
			"code":      "code123",
			"timestamp": "1700000000",
		}
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		q.Set("hmac", signQuery(params))

		req := httptest.NewRequest(http.MethodGet, "/auth/callback?"+q.Encode(), nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Contains(t, rec.Header().Get("Location"), "shop=test.myshopify.com")

		token, err := env.store.Get(context.Background(), "test.myshopify.com")
		require.NoError(t, err)
		assert.Equal(t, "tok_1", token)
	})

	t.Run("MissingParams", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/auth/callback?shop=test.myshopify.com", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Missing required query params"}`, rec.Body.String())
	})

	t.Run("InvalidHmac", func(t *testing.T) {
		exchangeCalled := false
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			exchangeCalled = true
		})

		q := url.Values{}
		q.Set("shop", "test.myshopify.com")
		q.Set("code", "code123")
		q.Set("hmac", "deadbeef")

		req := httptest.NewRequest(http.MethodGet, "/auth/callback?"+q.Encode(), nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid HMAC: Request may be forged"}`, rec.Body.String())
		assert.False(t, exchangeCalled)
	})

	t.Run("ExchangeFailure", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
		})

		params := map[string]string{
			"shop": "test.myshopify.com",
			"code": "badcode",
		}
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		q.Set("hmac", signQuery(params))

		req := httptest.NewRequest(http.MethodGet, "/auth/callback?"+q.Encode(), nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "OAuth failed")
	})
}

func TestAccessTokenEndpoint(t *testing.T) {
	t.Run("MissingShop", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/api/access-token", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Missing shop parameter"}`, rec.Body.String())
	})

	t.Run("UnknownShop", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/api/access-token?shop=unknown.myshopify.com", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"No access token found for this shop"}`, rec.Body.String())
	})

	t.Run("KnownShop", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})
		require.NoError(t, env.store.Set(context.Background(), "test.myshopify.com", "tok_1"))

		req := httptest.NewRequest(http.MethodGet, "/api/access-token?shop=test.myshopify.com", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"accessToken":"tok_1"}`, rec.Body.String())
	})
}

func TestProductsEndpoint(t *testing.T) {
	t.Run("NoToken", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/api/products?shop=unknown.myshopify.com", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"No access token found for this shop"}`, rec.Body.String())
	})

	t.Run("Success", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{"products":{
				"pageInfo":{"hasNextPage":false,"endCursor":null},
				"edges":[{"node":{
					"id":"gid://shopify/Product/1","title":"Shirt","handle":"shirt",
					"publishedAt":"2024-01-01T00:00:00Z",
					"images":{"nodes":[]},
					"variants":{"edges":[{"node":{"id":"v1","title":"Default","price":"10.00"}}]}
				}}]}}}`))
		})
		require.NoError(t, env.store.Set(context.Background(), "test.myshopify.com", "tok_1"))

		req := httptest.NewRequest(http.MethodGet, "/api/products?shop=test.myshopify.com", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var page struct {
			Products []struct {
				ID string `json:"id"`
			} `json:"products"`
			HasNextPage bool `json:"hasNextPage"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		require.Len(t, page.Products, 1)
		assert.Equal(t, "gid://shopify/Product/1", page.Products[0].ID)
		assert.False(t, page.HasNextPage)
	})

	t.Run("UpstreamError", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":null,"errors":[{"message":"Throttled"}]}`))
		})
		require.NoError(t, env.store.Set(context.Background(), "test.myshopify.com", "tok_1"))

		req := httptest.NewRequest(http.MethodGet, "/api/products?shop=test.myshopify.com", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Shopify API error","details":[{"message":"Throttled"}]}`, rec.Body.String())
	})
}

func TestUpdateProductTitleEndpoint(t *testing.T) {
	t.Run("MissingParameters", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodPost, "/api/update-product-title",
			strings.NewReader(`{"shop":"test.myshopify.com"}`))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Missing parameters"}`, rec.Body.String())
	})

	t.Run("TitleUserError", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{"productUpdate":{
				"product":null,
				"userErrors":[{"field":["title"],"message":"Title is too long"}]}}}`))
		})
		require.NoError(t, env.store.Set(context.Background(), "test.myshopify.com", "tok_1"))

		req := httptest.NewRequest(http.MethodPost, "/api/update-product-title",
			strings.NewReader(`{"shop":"test.myshopify.com","productId":"gid://shopify/Product/1","newTitle":"x"}`))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Title is too long"}`, rec.Body.String())
	})

	t.Run("TitleAndPrices", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			var call struct {
				Query string `json:"query"`
			}
			json.NewDecoder(r.Body).Decode(&call)
			if strings.Contains(call.Query, "productVariantsBulkUpdate") {
				w.Write([]byte(`{"data":{"productVariantsBulkUpdate":{
					"product":{"id":"gid://shopify/Product/1"},
					"productVariants":[{"id":"v1","price":"25.00"}],
					"userErrors":[]}}}`))
				return
			}
			w.Write([]byte(`{"data":{"productUpdate":{
				"product":{"id":"gid://shopify/Product/1","title":"Renamed","handle":"renamed"},
				"userErrors":[]}}}`))
		})
		require.NoError(t, env.store.Set(context.Background(), "test.myshopify.com", "tok_1"))

		body := `{"shop":"test.myshopify.com","productId":"gid://shopify/Product/1","newTitle":"Renamed",
			"variantUpdates":[{"id":"v1","price":"25.00"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/update-product-title", strings.NewReader(body))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success bool `json:"success"`
			Product struct {
				Title string `json:"title"`
			} `json:"product"`
			UpdatedPrices []struct {
				ID      string `json:"id"`
				Updated bool   `json:"updated"`
				Price   string `json:"price"`
			} `json:"updatedPrices"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "Renamed", resp.Product.Title)
		require.Len(t, resp.UpdatedPrices, 1)
		assert.True(t, resp.UpdatedPrices[0].Updated)
		assert.Equal(t, "25.00", resp.UpdatedPrices[0].Price)
	})

	t.Run("TitleOnly", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{"productUpdate":{
				"product":{"id":"gid://shopify/Product/1","title":"Renamed","handle":"renamed"},
				"userErrors":[]}}}`))
		})
		require.NoError(t, env.store.Set(context.Background(), "test.myshopify.com", "tok_1"))

		body := `{"shop":"test.myshopify.com","productId":"gid://shopify/Product/1","newTitle":"Renamed"}`
		req := httptest.NewRequest(http.MethodPost, "/api/update-product-title", strings.NewReader(body))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"updatedPrices":[]`)
	})
}

func TestPublicURLEndpoint(t *testing.T) {
	t.Run("NoTunnel", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/api/public-url", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"publicUrl":null}`, rec.Body.String())
	})
}
