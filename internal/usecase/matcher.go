package usecase

import (
	"variantsync-backend/internal/domain"
	"variantsync-backend/pkg/logger"
)

// buildMediaIndex builds the product-wide lookup from normalized filename
// key to media asset. When two assets normalize to the same key the later
// one wins; that tie-break is deliberate and logged, since which asset a
// colliding URL resolves to would otherwise depend silently on iteration
// order.
func buildMediaIndex(product *domain.Product) map[string]domain.MediaAsset {
	index := make(map[string]domain.MediaAsset, len(product.Media))
	for _, asset := range product.Media {
		if prev, ok := index[asset.Name]; ok && prev.ID != asset.ID {
			logger.Warn().
				Str("product_id", product.ID).
				Str("key", asset.Name).
				Str("kept", asset.ID).
				Str("shadowed", prev.ID).
				Msg("media filename key collision, last asset wins")
		}
		index[asset.Name] = asset
	}
	return index
}

// MatchProductImages joins every variant's raw source URLs against the
// product's media assets by normalized filename key. Pure: no remote
// calls, and the same product yields the same partition every time.
func MatchProductImages(product *domain.Product) *domain.MatchResult {
	index := buildMediaIndex(product)

	result := &domain.MatchResult{}
	for _, variant := range product.Variants {
		vm := domain.VariantMatch{
			VariantID:    variant.ID,
			VariantTitle: variant.Title,
		}

		for _, img := range variant.RawImages {
			match, found := index[img.Name]

			im := domain.ImageMatch{
				RawURL:  img.URL,
				Name:    img.Name,
				Matched: found,
			}
			if found {
				im.AssetID = match.ID
				im.AssetURL = match.URL
			} else {
				im.NeedsUpload = true
				result.UnmatchedCount++
			}
			vm.Images = append(vm.Images, im)
		}

		result.Variants = append(result.Variants, vm)
	}
	return result
}
