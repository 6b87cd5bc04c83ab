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

type PaymentsService interface {
	ConfirmPayment(ctx context.Context, orderID, clientID uint64) (domain.PaymentConfirmation, error)
}

type PaymentsHandler struct {
	paymentsService PaymentsService
	validate        *validator.Validate
	timeout         time.Duration
}

func NewPaymentsHandler(paymentsService PaymentsService) *PaymentsHandler {
	return &PaymentsHandler{
		paymentsService: paymentsService,
		validate:        validator.New(),
		timeout:         10 * time.Second,
	}
}

type ConfirmPaymentRequest struct {
	OrderID uint64 `json:"order_id" validate:"required"`
}

func (h *PaymentsHandler) ConfirmPayment(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthenticated(c)
	}

	var req ConfirmPaymentRequest
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res, err := h.paymentsService.ConfirmPayment(ctx, req.OrderID, identity.ClientID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "payment confirmed",
		Data:    res,
	})
}
