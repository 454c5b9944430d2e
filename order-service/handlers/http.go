package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/draftea/order-system/order-service/application"
	"github.com/draftea/order-system/shared/models"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// OrderHandlers contains order HTTP handlers
type OrderHandlers struct {
	submitOrder    *application.SubmitOrder
	getOrderStatus *application.GetOrderStatus
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(
	submitOrder *application.SubmitOrder,
	getOrderStatus *application.GetOrderStatus,
) *OrderHandlers {
	return &OrderHandlers{
		submitOrder:    submitOrder,
		getOrderStatus: getOrderStatus,
	}
}

// SubmitOrder handles order submission requests
func (h *OrderHandlers) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.SubmitOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.submitOrder.Execute(r.Context(), &cmd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(response)
}

// GetOrderStatus handles order status requests
func (h *OrderHandlers) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "id")

	orderID, err := models.NewID(rawID)
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	query := &application.GetOrderStatusQuery{
		OrderID: orderID,
	}

	response, err := h.getOrderStatus.Execute(r.Context(), query)
	if err != nil {
		if errors.Is(errors.Cause(err), application.ErrOrderNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.SubmitOrder)
		r.Get("/{id}", h.GetOrderStatus)
	})
}
