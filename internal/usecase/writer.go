package usecase

import (
	"context"
	"strconv"

	"variantsync-backend/internal/domain"

	"github.com/goccy/go-json"
)

// writeMetafields pushes every variant's resolved asset-id list in one
// batched metafieldsSet call. deleteExisting forces an empty list for
// every variant regardless of input. Variants with nothing to write are
// skipped, not failed.
//
// The returned error is non-nil only for transport or top-level protocol
// failures; in that case every attempted variant is already recorded in
// the summary's Errors and no partial success is assumed. Field-level
// validation errors never produce an error return.
func (u *syncUsecase) writeMetafields(ctx context.Context, store domain.Store, variants []domain.VariantMatch, deleteExisting bool) (*domain.WriteSummary, error) {
	summary := &domain.WriteSummary{}

	var payload []domain.MetafieldInput
	var attempted []*domain.VariantMatch
	var attemptedCounts []int

	for i := range variants {
		variant := &variants[i]

		var ids []string
		if deleteExisting {
			ids = []string{}
		} else {
			ids = variant.ResolvedAssetIDs()
			if len(ids) == 0 {
				summary.Skipped = append(summary.Skipped, domain.WriteSkip{
					VariantID:    variant.VariantID,
					VariantTitle: variant.VariantTitle,
					Reason:       "no valid image ids found to populate",
				})
				continue
			}
		}

		value, err := json.Marshal(ids)
		if err != nil {
			summary.Errors = append(summary.Errors, domain.WriteFailure{
				VariantID:    variant.VariantID,
				VariantTitle: variant.VariantTitle,
				Message:      "encode asset id list: " + err.Error(),
			})
			continue
		}

		payload = append(payload, domain.MetafieldInput{
			OwnerID:   variant.VariantID,
			Namespace: domain.MetafieldNamespace,
			Key:       domain.MetafieldKeyAssets,
			Type:      domain.MetafieldTypeFileList,
			Value:     string(value),
		})
		attempted = append(attempted, variant)
		attemptedCounts = append(attemptedCounts, len(ids))
	}

	if len(payload) == 0 {
		return summary, nil
	}

	result, err := u.client.SetMetafields(ctx, store, payload)
	if err != nil {
		for _, variant := range attempted {
			summary.Errors = append(summary.Errors, domain.WriteFailure{
				VariantID:    variant.VariantID,
				VariantTitle: variant.VariantTitle,
				Message:      err.Error(),
			})
		}
		return summary, err
	}

	for _, ue := range result.UserErrors {
		failure := domain.WriteFailure{
			VariantID: "unknown",
			Field:     ue.Field,
			Message:   ue.Message,
		}
		// field paths look like ["metafields", "2", "value"]; the middle
		// element indexes into our request payload
		if idx, ok := payloadIndex(ue.Field); ok && idx < len(attempted) {
			failure.VariantID = attempted[idx].VariantID
			failure.VariantTitle = attempted[idx].VariantTitle
		}
		summary.Errors = append(summary.Errors, failure)
	}

	// The response omits ownerId, so successes map back to the request by
	// ordinal position (contract documented on CatalogClient).
	for idx, mf := range result.Metafields {
		if idx >= len(attempted) {
			break
		}
		summary.Success = append(summary.Success, domain.WriteSuccess{
			VariantID:    attempted[idx].VariantID,
			VariantTitle: attempted[idx].VariantTitle,
			ImageCount:   attemptedCounts[idx],
			MetafieldID:  mf.ID,
		})
	}

	return summary, nil
}

func payloadIndex(field []string) (int, bool) {
	if len(field) < 2 {
		return 0, false
	}
	idx, err := strconv.Atoi(field[1])
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}
