package shopify

import (
	"context"
	"fmt"

	"variantsync-backend/internal/domain"

	"github.com/goccy/go-json"
)

// SetMetafields issues one batched metafieldsSet mutation.
//
// The response does not echo ownerId, so callers attribute successful
// entries back to inputs by ordinal position. That correlation only holds
// when the platform preserves request order; a response longer than the
// request would make it meaningless, so that case fails loudly here
// instead of producing silently misattributed results.
func (c *Client) SetMetafields(ctx context.Context, store domain.Store, inputs []domain.MetafieldInput) (*domain.MetafieldsSetResult, error) {
	if len(inputs) == 0 {
		return &domain.MetafieldsSetResult{}, nil
	}

	data, err := c.query(ctx, store, mutationMetafieldsSet, map[string]interface{}{"metafields": inputs})
	if err != nil {
		return nil, err
	}

	var payload struct {
		MetafieldsSet domain.MetafieldsSetResult `json:"metafieldsSet"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode metafieldsSet: %w", err)
	}

	if len(payload.MetafieldsSet.Metafields) > len(inputs) {
		return nil, fmt.Errorf("metafieldsSet returned %d entries for %d inputs, positional correlation broken",
			len(payload.MetafieldsSet.Metafields), len(inputs))
	}

	return &payload.MetafieldsSet, nil
}
