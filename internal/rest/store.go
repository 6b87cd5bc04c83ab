package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"ravello/business/store"
	"ravello/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type StoreService interface {
	CreateStore(ctx context.Context, clientID uint64, in store.StoreInput) (domain.Store, error)
	GetProfile(ctx context.Context, clientID uint64) (domain.StoreProfile, error)
	UpdateStore(ctx context.Context, clientID uint64, in store.StoreInput) (domain.Store, error)
	Report(ctx context.Context, clientID uint64, year int) (domain.StoreReport, error)
}

type StoreHandler struct {
	storeService StoreService
	validator    *validator.Validate
	timeout      time.Duration
}

func NewStoreHandler(storeService StoreService) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
		validator:    validator.New(),
		timeout:      10 * time.Second,
	}
}

type StoreRequest struct {
	StoreName   string `json:"store_name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Address     string `json:"address" validate:"required"`
}

func (r StoreRequest) input() store.StoreInput {
	return store.StoreInput{
		StoreName:   r.StoreName,
		Description: r.Description,
		Address:     r.Address,
	}
}

func (h *StoreHandler) CreateStore(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthenticated(c)
	}

	var req StoreRequest
	if ok, err := bindAndValidate(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	created, err := h.storeService.CreateStore(ctx, identity.ClientID, req.input())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.DefaultSuccessResponse{
		Success: true,
		Message: "Store created, please log in again to refresh your session",
		Data:    created,
	})
}

func (h *StoreHandler) GetProfile(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthenticated(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	profile, err := h.storeService.GetProfile(ctx, identity.ClientID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "Store profile",
		Data:    profile,
	})
}

func (h *StoreHandler) UpdateStore(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthenticated(c)
	}

	var req StoreRequest
	if ok, err := bindAndValidate(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.storeService.UpdateStore(ctx, identity.ClientID, req.input())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "Store updated",
		Data:    updated,
	})
}

// Report returns monthly sales of completed orders. The year query parameter
// defaults to the current year.
func (h *StoreHandler) Report(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthenticated(c)
	}

	var year int
	if raw := c.QueryParam("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return invalidParam(c, "year")
		}
		year = y
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	report, err := h.storeService.Report(ctx, identity.ClientID, year)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "Store report",
		Data:    report,
	})
}
