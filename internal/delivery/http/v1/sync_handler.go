package v1

import (
	"errors"
	"net/http"

	"variantsync-backend/internal/domain"
	"variantsync-backend/internal/usecase"
	"variantsync-backend/pkg/utils"
)

type SyncHandler struct {
	syncUC  usecase.SyncUsecase
	sweepUC usecase.SweepUsecase
}

func NewSyncHandler(syncUC usecase.SyncUsecase, sweepUC usecase.SweepUsecase) *SyncHandler {
	return &SyncHandler{syncUC: syncUC, sweepUC: sweepUC}
}

// SyncProduct handles POST /api/v1/sync/products/{id}?store={key}
func (h *SyncHandler) SyncProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if productID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Product ID required")
		return
	}
	storeKey := r.URL.Query().Get("store")
	if storeKey == "" {
		utils.WriteError(w, http.StatusBadRequest, "store query parameter required")
		return
	}

	result, err := h.syncUC.SyncProduct(r.Context(), storeKey, productID)
	if err != nil {
		writeSyncError(w, result, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// DeleteVariantImages handles DELETE /api/v1/sync/products/{id}/images?store={key}
func (h *SyncHandler) DeleteVariantImages(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if productID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Product ID required")
		return
	}
	storeKey := r.URL.Query().Get("store")
	if storeKey == "" {
		utils.WriteError(w, http.StatusBadRequest, "store query parameter required")
		return
	}

	result, err := h.syncUC.DeleteVariantImages(r.Context(), storeKey, productID)
	if err != nil {
		writeSyncError(w, result, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// StartSweep handles POST /api/v1/sync/run
func (h *SyncHandler) StartSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweepUC.Start()
	if err != nil {
		if errors.Is(err, domain.ErrSweepRunning) {
			utils.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusAccepted, result)
}

// CancelSweep handles DELETE /api/v1/sync/run
func (h *SyncHandler) CancelSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweepUC.Cancel()
	if err != nil {
		if errors.Is(err, domain.ErrNoSweep) {
			utils.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// SweepStatus handles GET /api/v1/sync/run
func (h *SyncHandler) SweepStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweepUC.Status()
	if err != nil {
		if errors.Is(err, domain.ErrNoSweep) {
			utils.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// writeSyncError maps domain errors to status codes. A partial result is
// returned alongside the error so callers can see what happened before
// the rollback.
func writeSyncError(w http.ResponseWriter, result *domain.ProductSyncResult, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrStoreNotConfigured):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		status = http.StatusNotFound
	}

	body := map[string]interface{}{"error": err.Error()}
	if result != nil {
		body["result"] = result
	}
	utils.WriteJSON(w, status, body)
}
