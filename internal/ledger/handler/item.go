package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forkpoint/forkpoint-backend/internal/ledger/domain"
	"github.com/forkpoint/forkpoint-backend/internal/ledger/service"
	"github.com/forkpoint/forkpoint-backend/pkg/errors"
	"github.com/forkpoint/forkpoint-backend/pkg/httputil"
	"github.com/forkpoint/forkpoint-backend/pkg/logger"
)

// expirationLayout is the wire format for lot expiration dates. Only the
// calendar date matters for expiry decisions, so no time of day is accepted.
const expirationLayout = "2006-01-02"

// ItemHandler handles ledger item endpoints
type ItemHandler struct {
	service *service.LedgerService
	logger  *logger.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(svc *service.LedgerService, log *logger.Logger) *ItemHandler {
	return &ItemHandler{
		service: svc,
		logger:  log,
	}
}

// List lists all ledger items with expired lots already swept
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Get gets an item by ID
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Create creates a new item with no lots and no history
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name" validate:"required"`
		Category  string `json:"category"`
		Supplier  string `json:"supplier"`
		Threshold int    `json:"threshold" validate:"gte=0"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	item := &domain.Item{
		Name:      req.Name,
		Category:  req.Category,
		Supplier:  req.Supplier,
		Threshold: req.Threshold,
	}

	view, err := h.service.CreateItem(r.Context(), item)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, view)
}

// Delete deletes an item and its history
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Restock adds a new lot to an item
func (h *ItemHandler) Restock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Quantity   int    `json:"quantity" validate:"required,gt=0"`
		Expiration string `json:"expiration" validate:"required,datetime=2006-01-02"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	expiration, err := time.ParseInLocation(expirationLayout, req.Expiration, time.UTC)
	if err != nil {
		httputil.Error(w, errors.Validation(map[string]string{
			"expiration": "must be a date in format " + expirationLayout,
		}))
		return
	}

	view, err := h.service.Restock(r.Context(), id, req.Quantity, expiration)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, view)
}

// Consume draws stock from the oldest usable lot
func (h *ItemHandler) Consume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Quantity int `json:"quantity" validate:"required,gt=0"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	view, err := h.service.Consume(r.Context(), id, req.Quantity)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, view)
}

// Damage records damaged or spoiled stock against a specific lot. The lot is
// addressed by id; older POS clients may send the lot's expiration date
// instead.
func (h *ItemHandler) Damage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		LotID      string `json:"lot_id"`
		Expiration string `json:"expiration" validate:"omitempty,datetime=2006-01-02"`
		Quantity   int    `json:"quantity" validate:"required,gt=0"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	if req.LotID == "" && req.Expiration == "" {
		httputil.Error(w, errors.Validation(map[string]string{
			"lot_id": "either lot_id or expiration is required",
		}))
		return
	}

	var expiration *time.Time
	if req.Expiration != "" {
		parsed, err := time.ParseInLocation(expirationLayout, req.Expiration, time.UTC)
		if err != nil {
			httputil.Error(w, errors.Validation(map[string]string{
				"expiration": "must be a date in format " + expirationLayout,
			}))
			return
		}
		expiration = &parsed
	}

	view, err := h.service.RecordDamage(r.Context(), id, req.LotID, expiration, req.Quantity)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, view)
}

// Reverse undoes a restock or consumption history entry
func (h *ItemHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Type  string `json:"type" validate:"required,oneof=restock consumption"`
		Index *int   `json:"index" validate:"required,gte=0"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	view, err := h.service.ReverseHistory(r.Context(), id, req.Type, *req.Index)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, view)
}

// History returns an item's lot and consumption history
func (h *ItemHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"restocks":     item.Lots,
		"consumptions": item.Consumptions,
	})
}
