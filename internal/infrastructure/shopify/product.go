package shopify

import (
	"context"
	"fmt"
	"strings"

	"variantsync-backend/internal/domain"
	"variantsync-backend/pkg/utils"

	"github.com/goccy/go-json"
)

// ProductGID builds a product admin GID from a bare numeric id. Ids that
// already carry the gid:// prefix pass through unchanged.
func ProductGID(id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	return "gid://shopify/Product/" + id
}

// --- wire shapes ---

type mediaImageNode struct {
	ID    string `json:"id"`
	Image struct {
		URL string `json:"url"`
	} `json:"image"`
}

type metafieldNode struct {
	JSONValue  json.RawMessage `json:"jsonValue"`
	References *struct {
		Nodes []mediaImageNode `json:"nodes"`
	} `json:"references"`
}

type variantNode struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	ImagesURL   *metafieldNode `json:"imagesUrl"`
	AssetImages *metafieldNode `json:"assetImages"`
}

type countField struct {
	Count int `json:"count"`
}

type productNode struct {
	ID                    string     `json:"id"`
	Title                 string     `json:"title"`
	OnlineStorePreviewURL string     `json:"onlineStorePreviewUrl"`
	MediaCount            countField `json:"mediaCount"`
	VariantsCount         countField `json:"variantsCount"`
	Media                 struct {
		Nodes []mediaImageNode `json:"nodes"`
	} `json:"media"`
	Variants struct {
		Nodes []variantNode `json:"nodes"`
	} `json:"variants"`
}

// GetProduct fetches one product with its media and variant metafields.
// Bare numeric ids are accepted and expanded into admin GIDs.
func (c *Client) GetProduct(ctx context.Context, store domain.Store, productID string) (*domain.Product, error) {
	productGID := ProductGID(productID)
	data, err := c.query(ctx, store, queryGetProduct, map[string]interface{}{"id": productGID})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Product *productNode `json:"product"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	if payload.Product == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productGID)
	}

	return mapProduct(payload.Product), nil
}

// ListProducts fetches one page of the product listing. The next page's
// cursor is the cursor of the last edge, per the platform's pagination
// contract.
func (c *Client) ListProducts(ctx context.Context, store domain.Store, cursor string, pageSize int) (*domain.ProductPage, error) {
	variables := map[string]interface{}{"first": pageSize}
	if cursor != "" {
		variables["after"] = cursor
	}

	data, err := c.query(ctx, store, queryListProducts, variables)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ProductsCount countField `json:"productsCount"`
		Products      struct {
			Edges []struct {
				Cursor string      `json:"cursor"`
				Node   productNode `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"products"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode product listing: %w", err)
	}

	page := &domain.ProductPage{
		HasNextPage: payload.Products.PageInfo.HasNextPage,
		EndCursor:   payload.Products.PageInfo.EndCursor,
		TotalCount:  payload.ProductsCount.Count,
	}
	for _, edge := range payload.Products.Edges {
		node := edge.Node
		page.Products = append(page.Products, mapProduct(&node))
		if edge.Cursor != "" {
			page.EndCursor = edge.Cursor
		}
	}
	return page, nil
}

// mapProduct converts the wire shape into the domain model, deriving a
// normalized filename key for every URL on the way. Absent metafields and
// media come out as empty slices, never errors.
func mapProduct(node *productNode) *domain.Product {
	p := &domain.Product{
		ID:           node.ID,
		Title:        node.Title,
		PreviewURL:   node.OnlineStorePreviewURL,
		MediaCount:   node.MediaCount.Count,
		VariantCount: node.VariantsCount.Count,
	}

	for _, m := range node.Media.Nodes {
		// Non-image media survive the inline fragment as empty nodes.
		if m.ID == "" || m.Image.URL == "" {
			continue
		}
		p.Media = append(p.Media, domain.MediaAsset{
			ID:   m.ID,
			URL:  m.Image.URL,
			Name: utils.NormalizeImageName(m.Image.URL),
		})
	}

	for _, v := range node.Variants.Nodes {
		variant := domain.Variant{
			ID:    v.ID,
			Title: v.Title,
		}

		for _, url := range stringList(v.ImagesURL) {
			variant.RawImages = append(variant.RawImages, domain.ImageRef{
				URL:  url,
				Name: utils.NormalizeImageName(url),
			})
		}

		variant.AssetIDs = stringList(v.AssetImages)
		variant.Filled = len(variant.AssetIDs) > 0

		if v.AssetImages != nil && v.AssetImages.References != nil {
			for _, ref := range v.AssetImages.References.Nodes {
				if ref.ID == "" || ref.Image.URL == "" {
					continue
				}
				variant.ExistingAssets = append(variant.ExistingAssets, domain.MediaAsset{
					ID:   ref.ID,
					URL:  ref.Image.URL,
					Name: utils.NormalizeImageName(ref.Image.URL),
				})
			}
		}

		p.Variants = append(p.Variants, variant)
	}

	return p
}

// stringList decodes a metafield jsonValue that should be a JSON string
// array. Nulls and mistyped values yield an empty list.
func stringList(m *metafieldNode) []string {
	if m == nil || len(m.JSONValue) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(m.JSONValue, &values); err != nil {
		return nil
	}
	return values
}
