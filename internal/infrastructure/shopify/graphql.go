package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// GraphQLErrorDetail is one entry of the top-level errors list in a
// GraphQL Admin API response.
type GraphQLErrorDetail struct {
	Message string `json:"message"`
}

// UpstreamError is a non-empty top-level errors list reported by the
// Admin API inside an otherwise successful response.
type UpstreamError struct {
	Errors []GraphQLErrorDetail
}

func (e *UpstreamError) Error() string {
	if len(e.Errors) == 0 || e.Errors[0].Message == "" {
		return "unknown Shopify error"
	}
	return e.Errors[0].Message
}

// ShapeError is a response that decoded cleanly but is missing the data
// path the query asked for. Raw keeps the body for diagnostics.
type ShapeError struct {
	Raw json.RawMessage
}

func (e *ShapeError) Error() string { return "unexpected Shopify API response" }

// TransportError is a failure to complete the HTTP round trip, including
// non-2xx statuses.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("shopify request failed: %v", e.Err)
	}
	return fmt.Sprintf("shopify request failed: status %d: %s", e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// mustParse validates a GraphQL document at package load so a malformed
// template fails fast instead of at request time.
func mustParse(name, doc string) string {
	if _, err := parser.ParseQuery(&ast.Source{Name: name, Input: doc}); err != nil {
		panic(fmt.Sprintf("invalid graphql document %q: %v", name, err))
	}
	return doc
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// GraphQLClient posts GraphQL documents to a shop's Admin API endpoint and
// peels off the response envelope.
type GraphQLClient struct {
	apiVersion string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewGraphQLClient creates a client pinned to one Admin API version. Every
// call is bounded by the given timeout; there are no retries.
func NewGraphQLClient(apiVersion string, timeout time.Duration, logger zerolog.Logger) *GraphQLClient {
	return &GraphQLClient{
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// WithBaseURL overrides the https://{shop} endpoint base, so calls can be
// pointed at a stub server.
func (c *GraphQLClient) WithBaseURL(base string) *GraphQLClient {
	c.baseURL = base
	return c
}

func (c *GraphQLClient) endpoint(shop string) string {
	if c.baseURL != "" {
		return fmt.Sprintf("%s/admin/api/%s/graphql.json", c.baseURL, c.apiVersion)
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, c.apiVersion)
}

// Do executes one GraphQL document and returns the raw data payload.
// Failure ladder: transport problems surface as *TransportError, a
// non-empty errors list as *UpstreamError, and a missing data field as
// *ShapeError. Callers decode data into the shape they asked for.
func (c *GraphQLClient) Do(ctx context.Context, shop, accessToken, query string, variables map[string]any) (json.RawMessage, error) {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(shop), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Status: resp.StatusCode, Body: string(body)}
	}

	var envelope struct {
		Data   json.RawMessage      `json:"data"`
		Errors []GraphQLErrorDetail `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ShapeError{Raw: body}
	}
	if len(envelope.Errors) > 0 {
		c.logger.Error().Str("shop", shop).Str("error", envelope.Errors[0].Message).Msg("shopify graphql error")
		return nil, &UpstreamError{Errors: envelope.Errors}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, &ShapeError{Raw: body}
	}
	return envelope.Data, nil
}
