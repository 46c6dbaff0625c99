package usecase

import (
	"testing"

	"variantsync-backend/internal/domain"
	"variantsync-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mediaAsset(id, url string) domain.MediaAsset {
	return domain.MediaAsset{ID: id, URL: url, Name: utils.NormalizeImageName(url)}
}

func imageRef(url string) domain.ImageRef {
	return domain.ImageRef{URL: url, Name: utils.NormalizeImageName(url)}
}

func TestMatchProductImages(t *testing.T) {
	product := &domain.Product{
		ID: "gid://shopify/Product/1",
		Media: []domain.MediaAsset{
			mediaAsset("gid://shopify/MediaImage/10", "https://cdn.example.com/a/red.jpg"),
			mediaAsset("gid://shopify/MediaImage/11", "https://cdn.example.com/a/blue.jpg"),
		},
		Variants: []domain.Variant{
			{
				ID:    "gid://shopify/ProductVariant/100",
				Title: "Red",
				RawImages: []domain.ImageRef{
					// different host and query string, same filename key
					imageRef("https://supplier.example.org/x/red.jpg?v=9"),
					imageRef("https://supplier.example.org/x/missing-one.jpg"),
				},
			},
			{
				ID:    "gid://shopify/ProductVariant/101",
				Title: "Blue",
				RawImages: []domain.ImageRef{
					imageRef("https://supplier.example.org/x/blue.jpg"),
					imageRef("https://supplier.example.org/x/missing-two.jpg"),
				},
			},
		},
	}

	result := MatchProductImages(product)

	require.Len(t, result.Variants, 2)
	assert.Equal(t, 2, result.UnmatchedCount)

	red := result.Variants[0]
	require.Len(t, red.Images, 2)
	assert.True(t, red.Images[0].Matched)
	assert.Equal(t, "gid://shopify/MediaImage/10", red.Images[0].AssetID)
	assert.False(t, red.Images[1].Matched)
	assert.True(t, red.Images[1].NeedsUpload)

	blue := result.Variants[1]
	assert.Equal(t, "gid://shopify/MediaImage/11", blue.Images[0].AssetID)
	assert.True(t, blue.Images[1].NeedsUpload)

	// order of resolved ids follows the raw URL order
	assert.Equal(t, []string{"gid://shopify/MediaImage/10"}, red.ResolvedAssetIDs())
}

func TestMatchProductImagesDeterministic(t *testing.T) {
	product := &domain.Product{
		ID: "gid://shopify/Product/2",
		Media: []domain.MediaAsset{
			mediaAsset("gid://shopify/MediaImage/20", "https://cdn.example.com/a.jpg"),
			mediaAsset("gid://shopify/MediaImage/21", "https://cdn.example.com/b.jpg"),
			mediaAsset("gid://shopify/MediaImage/22", "https://cdn.example.com/c.jpg"),
		},
		Variants: []domain.Variant{
			{
				ID: "gid://shopify/ProductVariant/200",
				RawImages: []domain.ImageRef{
					imageRef("https://src.example.org/c.jpg"),
					imageRef("https://src.example.org/a.jpg"),
					imageRef("https://src.example.org/b.jpg"),
				},
			},
		},
	}

	first := MatchProductImages(product)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, MatchProductImages(product))
	}
}

// Two media assets normalizing to the same key: the later one wins, and
// every colliding URL resolves to that same asset.
func TestMatchProductImagesKeyCollision(t *testing.T) {
	product := &domain.Product{
		ID: "gid://shopify/Product/3",
		Media: []domain.MediaAsset{
			mediaAsset("gid://shopify/MediaImage/30", "https://cdn.example.com/v1/photo.jpg"),
			mediaAsset("gid://shopify/MediaImage/31", "https://cdn.example.com/v2/photo.jpg"),
		},
		Variants: []domain.Variant{
			{
				ID: "gid://shopify/ProductVariant/300",
				RawImages: []domain.ImageRef{
					imageRef("https://src.example.org/photo.jpg"),
				},
			},
		},
	}

	result := MatchProductImages(product)
	require.Len(t, result.Variants, 1)
	require.Len(t, result.Variants[0].Images, 1)
	assert.Equal(t, "gid://shopify/MediaImage/31", result.Variants[0].Images[0].AssetID)
	assert.Zero(t, result.UnmatchedCount)
}
