package shopify

import (
	"context"
	"fmt"

	"variantsync-backend/internal/domain"

	"github.com/goccy/go-json"
)

// CreateFiles issues one batched fileCreate mutation. File creation is
// asynchronous on the platform side; returned files carry a fileStatus
// the caller may inspect. Validation failures come back as userErrors,
// not as an error return.
func (c *Client) CreateFiles(ctx context.Context, store domain.Store, files []domain.FileCreateInput) (*domain.FileCreateResult, error) {
	if len(files) == 0 {
		return &domain.FileCreateResult{}, nil
	}

	data, err := c.query(ctx, store, mutationFileCreate, map[string]interface{}{"files": files})
	if err != nil {
		return nil, err
	}

	var payload struct {
		FileCreate domain.FileCreateResult `json:"fileCreate"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode fileCreate: %w", err)
	}

	return &payload.FileCreate, nil
}
