package domain

import (
	"context"
	"fmt"
)

// Store is one configured Shopify store. Built from config at startup and
// passed explicitly to every entry point; there is no process-wide registry.
type Store struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Token string `json:"-"`
}

// MediaAsset is a product-level file known to the catalog.
// Name is the normalized filename key derived from URL; it is computed
// locally, never stored remotely.
type MediaAsset struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// ImageRef is one raw source-image URL with its normalized key.
type ImageRef struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type Variant struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// RawImages is the authoritative target state, sourced from the
	// custom.variant_images_url metafield.
	RawImages []ImageRef `json:"rawImages"`

	// AssetIDs is the current state: the ordered asset id list stored in
	// the custom.variant_images metafield.
	AssetIDs []string `json:"assetIds"`

	// ExistingAssets expands AssetIDs into id+url records when the query
	// resolved the file references.
	ExistingAssets []MediaAsset `json:"existingAssets"`

	// Filled means the variant already has at least one attached asset.
	Filled bool `json:"filled"`
}

type Product struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	PreviewURL   string       `json:"previewUrl"`
	MediaCount   int          `json:"mediaCount"`
	VariantCount int          `json:"variantCount"`
	Media        []MediaAsset `json:"media"`
	Variants     []Variant    `json:"variants"`
}

// IsFilled reports whether any variant already carries attached assets.
func (p *Product) IsFilled() bool {
	for _, v := range p.Variants {
		if v.Filled {
			return true
		}
	}
	return false
}

// TotalVariantImageCount sums raw source URLs across all variants.
func (p *Product) TotalVariantImageCount() int {
	total := 0
	for _, v := range p.Variants {
		total += len(v.RawImages)
	}
	return total
}

// ConsistencyWarnings compares asset-count against URL-count per variant.
// These are advisory; a mismatch is a detectable inconsistency state, not
// a hard failure.
func (p *Product) ConsistencyWarnings() []string {
	var warnings []string
	for idx, v := range p.Variants {
		title := v.Title
		if title == "" {
			title = fmt.Sprintf("Variant %d", idx+1)
		}
		countAssets := len(v.AssetIDs)
		countURLs := len(v.RawImages)

		switch {
		case countAssets == 0 && countURLs == 0:
			warnings = append(warnings, fmt.Sprintf("%s has neither asset images nor image URLs", title))
		case countAssets == 0 && countURLs > 0:
			warnings = append(warnings, fmt.Sprintf("%s has %d image URLs but no asset images", title, countURLs))
		case countURLs == 0 && countAssets > 0:
			warnings = append(warnings, fmt.Sprintf("%s has %d asset images but no image URLs", title, countAssets))
		case countAssets != countURLs:
			warnings = append(warnings, fmt.Sprintf("%s has %d asset images but %d image URLs", title, countAssets, countURLs))
		}
	}
	return warnings
}

// --- Remote catalog boundary ---

// UserError is a field-level validation error reported by the platform.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

type FileCreateInput struct {
	Alt            string `json:"alt,omitempty"`
	ContentType    string `json:"contentType"`
	OriginalSource string `json:"originalSource"`
}

type CreatedFile struct {
	ID         string `json:"id"`
	Alt        string `json:"alt"`
	FileStatus string `json:"fileStatus"`
}

type FileCreateResult struct {
	Files      []CreatedFile `json:"files"`
	UserErrors []UserError   `json:"userErrors"`
}

type MetafieldInput struct {
	OwnerID   string `json:"ownerId"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

type MetafieldResult struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	Namespace string `json:"namespace"`
}

type MetafieldsSetResult struct {
	Metafields []MetafieldResult `json:"metafields"`
	UserErrors []UserError       `json:"userErrors"`
}

// ProductPage is one page of a cursor-paginated product listing.
// EndCursor is the cursor of the last edge; passing it back fetches
// the next page.
type ProductPage struct {
	Products    []*Product
	EndCursor   string
	HasNextPage bool
	TotalCount  int
}

// CatalogClient is the boundary to the remote commerce platform.
//
// Positional correlation contract: SetMetafields responses do not echo
// the owning variant id, so the caller attributes entries in
// result.Metafields to its inputs by ordinal position. Implementations
// must preserve request order and fail loudly when the response carries
// more entries than the request.
type CatalogClient interface {
	GetProduct(ctx context.Context, store Store, productGID string) (*Product, error)
	ListProducts(ctx context.Context, store Store, cursor string, pageSize int) (*ProductPage, error)
	CreateFiles(ctx context.Context, store Store, files []FileCreateInput) (*FileCreateResult, error)
	SetMetafields(ctx context.Context, store Store, inputs []MetafieldInput) (*MetafieldsSetResult, error)
}
