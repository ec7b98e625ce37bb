package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/xact-softwaresolution/e-cart/internal/catalog"
	"github.com/xact-softwaresolution/e-cart/internal/inventory"
)

const defaultLowStockThreshold = 10

type InventoryService interface {
	Adjust(ctx context.Context, productID string, delta int, reason inventory.Reason) (catalog.Product, error)
	Report(ctx context.Context, lowStockThreshold int) (catalog.Report, error)
	LowStock(ctx context.Context, threshold int) ([]catalog.Product, error)
}

type InventoryHandler struct {
	svc InventoryService
}

func NewInventoryHandler(svc InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

type adjustRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Delta     int    `json:"delta" validate:"required"`
	Reason    string `json:"reason" validate:"omitempty,oneof=RESTOCK DAMAGE LOST ADJUSTMENT"`
}

func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "productId, a non-zero delta and a known reason are required")
		return
	}

	reason, err := inventory.ParseReason(req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	p, err := h.svc.Adjust(r.Context(), req.ProductID, req.Delta, reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *InventoryHandler) Report(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Report(r.Context(), thresholdParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.LowStock(r.Context(), thresholdParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func thresholdParam(r *http.Request) int {
	if v := r.URL.Query().Get("threshold"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return defaultLowStockThreshold
}
