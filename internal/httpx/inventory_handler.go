package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/communityshop/go-inventory-service/internal/inventory"
	"github.com/communityshop/go-inventory-service/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// InventoryHandler is the thin read/write surface over the same stock rows
// the consumer mutates. No reservation logic lives here.
type InventoryHandler struct {
	Store *inventory.PGStore
	Redis *redis.Client
}

func (h *InventoryHandler) Register(r *chi.Mux) {
	r.Get("/inventory", h.listItems)
	r.Get("/inventory/{productID}", h.getItem)
	r.Put("/inventory/{productID}", h.updateItem)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *InventoryHandler) listItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.Store.ListItems(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if items == nil {
		items = []inventory.StockItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *InventoryHandler) getItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if _, err := uuid.Parse(productID); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first
	key := fmt.Sprintf(redisx.KeyInventory, productID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	it, err := h.Store.GetItem(ctx, productID)
	if err == inventory.ErrNotFound {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	b, _ := json.Marshal(it)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLInventoryCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *InventoryHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if _, err := uuid.Parse(productID); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	var req inventory.UpdateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be >= 0"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.Store.SetQuantity(ctx, productID, req.Quantity)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// refresh the read cache so GET sees the new quantity right away
	key := fmt.Sprintf(redisx.KeyInventory, productID)
	b, _ := json.Marshal(it)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLInventoryCache).Err()

	writeJSON(w, http.StatusOK, it)
}
