package domain

// ProductImage is a single product image as rendered by the operator UI.
type ProductImage struct {
	Src     string `json:"src"`
	AltText string `json:"altText"`
	ID      string `json:"id"`
}

// VariantSummary is the UI-facing projection of a product variant.
// Price is kept as a decimal string end-to-end to avoid float rounding.
type VariantSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
}

// ProductSummary is the UI-facing projection of a product. Only published
// products are ever surfaced in listings.
type ProductSummary struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Handle   string           `json:"handle"`
	Images   []ProductImage   `json:"images"`
	Variants []VariantSummary `json:"variants"`
}

// ProductPage is one page of a product listing. EndCursor is an opaque
// continuation marker passed back verbatim to fetch the next page; it is
// nil on the last page.
type ProductPage struct {
	Products    []ProductSummary `json:"products"`
	HasNextPage bool             `json:"hasNextPage"`
	EndCursor   *string          `json:"endCursor"`
}

// VariantUpdate is a requested price change as submitted by the UI. Price
// may arrive as a string, a JSON number, or be absent entirely; entries
// without a usable price are skipped.
type VariantUpdate struct {
	ID    string `json:"id"`
	Price any    `json:"price"`
}

// PriceInput is a variant price change after filtering and coercion,
// ready to send upstream.
type PriceInput struct {
	ID    string `json:"id"`
	Price string `json:"price"`
}

// VariantUpdateOutcome is one entry of the per-variant result list for a
// bulk price update. Exactly one of the two shapes is populated: an
// updated variant carries ID/Updated/Price, a failure carries Error and
// optionally Field.
type VariantUpdateOutcome struct {
	ID      string   `json:"id,omitempty"`
	Updated bool     `json:"updated,omitempty"`
	Price   string   `json:"price,omitempty"`
	Error   string   `json:"error,omitempty"`
	Field   []string `json:"field,omitempty"`
}

// UpdatedProduct echoes the product fields returned by a successful title
// mutation.
type UpdatedProduct struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

// UpdateResult is the combined outcome of a title update plus an optional
// bulk variant price update. UpdatedPrices may mix successes and failures;
// a fully failed bulk step still yields a successful result.
type UpdateResult struct {
	Product       UpdatedProduct         `json:"product"`
	UpdatedPrices []VariantUpdateOutcome `json:"updatedPrices"`
}
