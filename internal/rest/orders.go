package rest

import (
	"context"
	"net/http"
	"time"

	"ravello/domain"
	"ravello/internal/middleware"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type OrdersService interface {
	PlaceOrder(ctx context.Context, in domain.PlaceOrderInput) (domain.PlacedOrder, error)
	UpdateFulfillment(ctx context.Context, orderID, storeID uint64, status domain.OrderStatus) (domain.FulfillmentUpdate, error)
	ListOrderDetails(ctx context.Context, clientID uint64) ([]domain.OrderDetailView, error)
	PreviewPrice(ctx context.Context, productID uint64, quantity int) (domain.PricePreview, error)
}

type OrdersHandler struct {
	ordersService OrdersService
	validate      *validator.Validate
	timeout       time.Duration
}

func NewOrdersHandler(ordersService OrdersService) *OrdersHandler {
	return &OrdersHandler{
		ordersService: ordersService,
		validate:      validator.New(),
		timeout:       10 * time.Second,
	}
}

type OrderItem struct {
	ProductID uint64 `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type PlaceOrderRequest struct {
	Items           []OrderItem `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string      `json:"payment_method" validate:"required"`
	ShippingAddress string      `json:"shipping_address"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type PreviewPriceRequest struct {
	ProductID uint64 `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// PlaceOrder creates an order from the submitted items. The stock check and
// decrement happen in one transaction in the service.
func (h *OrdersHandler) PlaceOrder(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthenticated(c)
	}

	var req PlaceOrderRequest
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	items := make([]domain.OrderItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.OrderItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	placed, err := h.ordersService.PlaceOrder(ctx, domain.PlaceOrderInput{
		ClientID:        identity.ClientID,
		Items:           items,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.DefaultSuccessResponse{
		Success: true,
		Message: "order created",
		Data:    placed,
	})
}

// UpdateStatus moves an order of the caller's store to shipped or completed.
// RequireStoreOwner must run first.
func (h *OrdersHandler) UpdateStatus(c echo.Context) error {
	store, ok := middleware.StoreFrom(c)
	if !ok {
		return c.JSON(http.StatusForbidden, fres.DefaultErrorResponse{
			Success: false,
			Status:  string(domain.KindAuthorization),
			Message: "access denied: store not found",
		})
	}

	orderID, ok := parseIDParam(c, "order_id")
	if !ok {
		return invalidParam(c, "order id")
	}

	var req UpdateStatusRequest
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res, err := h.ordersService.UpdateFulfillment(ctx, orderID, store.StoreID, domain.OrderStatus(req.Status))
	if err != nil {
		return writeError(c, err)
	}

	msg := "order status updated"
	if !res.Changed {
		msg = "order status unchanged"
	}
	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{Success: true, Message: msg, Data: res})
}

func (h *OrdersHandler) ListOrderDetails(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthenticated(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	details, err := h.ordersService.ListOrderDetails(ctx, identity.ClientID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(details))
}

func (h *OrdersHandler) PreviewPrice(c echo.Context) error {
	var req PreviewPriceRequest
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	preview, err := h.ordersService.PreviewPrice(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "price preview",
		Data:    preview,
	})
}
