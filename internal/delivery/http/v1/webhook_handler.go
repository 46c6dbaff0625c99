package v1

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"variantsync-backend/internal/usecase"
	"variantsync-backend/pkg/cache"
	"variantsync-backend/pkg/logger"
	"variantsync-backend/pkg/utils"

	"github.com/goccy/go-json"
)

type WebhookHandler struct {
	syncUC      usecase.SyncUsecase
	debounce    cache.CacheService
	debounceTTL time.Duration
	syncTimeout time.Duration
}

func NewWebhookHandler(syncUC usecase.SyncUsecase, debounce cache.CacheService, debounceTTL time.Duration) *WebhookHandler {
	return &WebhookHandler{
		syncUC:      syncUC,
		debounce:    debounce,
		debounceTTL: debounceTTL,
		syncTimeout: 2 * time.Minute,
	}
}

// productWebhookPayload is the subset of the product webhook body we need.
type productWebhookPayload struct {
	ID                int64  `json:"id"`
	AdminGraphqlAPIID string `json:"admin_graphql_api_id"`
	Title             string `json:"title"`
}

// ProductUpdated handles POST /api/v1/webhooks/{store}/products.
// The webhook must be acknowledged fast, so reconciliation runs in the
// background. Repeated deliveries for the same product inside the
// debounce window collapse into one trailing run after the current one
// finishes, so the newest product state is never dropped.
func (h *WebhookHandler) ProductUpdated(w http.ResponseWriter, r *http.Request) {
	storeKey := r.PathValue("store")
	if _, err := h.syncUC.StoreFor(storeKey); err != nil {
		utils.WriteError(w, http.StatusNotFound, "unknown store")
		return
	}

	var payload productWebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	productID := payload.AdminGraphqlAPIID
	if productID == "" && payload.ID != 0 {
		productID = strconv.FormatInt(payload.ID, 10)
	}
	if productID == "" {
		utils.WriteError(w, http.StatusBadRequest, "webhook payload has no product id")
		return
	}

	// Key on the bare numeric id so GID and numeric payload forms
	// collapse into the same debounce slot.
	debounceKey := fmt.Sprintf("webhook:%s:%s", storeKey, utils.NumericID(productID))
	pendingKey := debounceKey + ":pending"
	if _, hit := h.debounce.Get(debounceKey); hit {
		// A run is already in flight or just finished. Mark the slot so
		// the running goroutine picks the newer state up afterwards
		// instead of the delivery being lost until the next webhook.
		h.debounce.Set(pendingKey, struct{}{}, h.debounceTTL)
		utils.WriteMessage(w, http.StatusOK, "debounced, trailing sync pending")
		return
	}
	h.debounce.Set(debounceKey, struct{}{}, h.debounceTTL)

	go func() {
		for {
			h.runSync(storeKey, productID)
			if _, again := h.debounce.Get(pendingKey); !again {
				return
			}
			h.debounce.Delete(pendingKey)
		}
	}()

	utils.WriteMessage(w, http.StatusAccepted, "sync scheduled")
}

func (h *WebhookHandler) runSync(storeKey, productID string) {
	ctx, cancel := context.WithTimeout(context.Background(), h.syncTimeout)
	defer cancel()

	result, err := h.syncUC.SyncProduct(ctx, storeKey, productID)
	if err != nil {
		logger.Error().Err(err).
			Str("store", storeKey).
			Str("product_id", productID).
			Msg("webhook-triggered sync failed")
		return
	}
	logger.Info().
		Str("store", storeKey).
		Str("product_id", result.ProductID).
		Bool("noop", result.NoOp).
		Msg("webhook-triggered sync finished")
}
