package rest

import (
	"context"
	"net/http"
	"time"

	"ravello/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type CartService interface {
	AddToCart(ctx context.Context, clientID, productID uint64) (domain.CartAddResult, error)
	ListCart(ctx context.Context, clientID uint64) ([]domain.CartItem, error)
	RemoveFromCart(ctx context.Context, clientID, cartID uint64) error
	CartSummary(ctx context.Context, clientID uint64) (domain.CartSummary, error)
}

type CartHandler struct {
	cartService CartService
	validator   *validator.Validate
	timeout     time.Duration
}

func NewCartHandler(cartService CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validator:   validator.New(),
		timeout:     10 * time.Second,
	}
}

type AddToCartRequest struct {
	ProductID uint64 `json:"product_id" validate:"required"`
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthenticated(c)
	}

	var req AddToCartRequest
	if ok, err := bindAndValidate(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res, err := h.cartService.AddToCart(ctx, identity.ClientID, req.ProductID)
	if err != nil {
		return writeError(c, err)
	}

	if res.Created {
		return c.JSON(http.StatusCreated, fres.DefaultSuccessResponse{
			Success: true,
			Message: "product added to cart",
			Data:    res,
		})
	}
	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "cart quantity updated",
		Data:    res,
	})
}

func (h *CartHandler) ListCart(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthenticated(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	items, err := h.cartService.ListCart(ctx, identity.ClientID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(items))
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthenticated(c)
	}

	cartID, ok := parseIDParam(c, "cart_id")
	if !ok {
		return invalidParam(c, "cart id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.cartService.RemoveFromCart(ctx, identity.ClientID, cartID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{Success: true, Message: "cart item removed"})
}

func (h *CartHandler) CartSummary(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthenticated(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	summary, err := h.cartService.CartSummary(ctx, identity.ClientID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "cart summary",
		Data:    summary,
	})
}
