package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/oakline/oakline/internal/domain"
	"github.com/oakline/oakline/internal/handler"
)

// OrdersHandler serves order read endpoints and the admin status update.
type OrdersHandler struct {
	orders domain.OrderService
}

// NewOrdersHandler creates a new orders handler.
func NewOrdersHandler(orders domain.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

type orderItemResponse struct {
	ProductID   string  `json:"product_id,omitempty"`
	ProductName string  `json:"product_name"`
	Quantity    int32   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type orderResponse struct {
	ID              string                  `json:"id"`
	Status          string                  `json:"status"`
	PaymentStatus   string                  `json:"payment_status"`
	TotalAmount     float64                 `json:"total_amount"`
	ShippingAddress domain.ShippingAddress  `json:"shipping_address"`
	Items           []orderItemResponse     `json:"items,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

func toOrderResponse(order domain.Order, items []domain.OrderItem) orderResponse {
	resp := orderResponse{
		ID:              order.ID.String(),
		Status:          string(order.Status),
		PaymentStatus:   string(order.PaymentStatus),
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range items {
		out := orderItemResponse{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
		if item.ProductID != uuid.Nil {
			out.ProductID = item.ProductID.String()
		}
		resp.Items = append(resp.Items, out)
	}
	return resp
}

// ListOrders handles GET /orders for the authenticated user.
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	limit := queryInt32(r, "limit", 20)
	offset := queryInt32(r, "offset", 0)

	orders, err := h.orders.ListOrders(r.Context(), userID, limit, offset)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order, nil))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": out})
}

// GetOrder handles GET /orders/{id} for the authenticated user.
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "order.get", "Invalid order id"))
		return
	}

	detail, err := h.orders.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(detail.Order, detail.Items))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /admin/orders/{id}/status. The admin check
// happens in middleware; this handler only validates the transition.
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "order.update_status", "Invalid order id"))
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "order.update_status", "Invalid request body"))
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), orderID, domain.OrderStatus(req.Status))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*order, nil))
}

func queryInt32(r *http.Request, key string, fallback int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}
