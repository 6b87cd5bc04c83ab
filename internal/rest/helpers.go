package rest

import (
	"net/http"
	"strconv"

	"ravello/domain"
	"ravello/internal/middleware"
	"ravello/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// writeError renders a service error with the status of its kind.
func writeError(c echo.Context, err error) error {
	return middleware.WriteError(c, err)
}

// bindAndValidate decodes the request body into req and runs its validate
// tags. The returned error has already been written to the response.
func bindAndValidate(c echo.Context, v *validator.Validate, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		logger.Error("Invalid request body", err)
		return false, c.JSON(http.StatusBadRequest, fres.DefaultErrorResponse{
			Success: false,
			Status:  string(domain.KindValidation),
			Message: "Invalid request body",
		})
	}

	if err := v.Struct(req); err != nil {
		logger.Debug("Request validation failed", "error", err)
		return false, c.JSON(http.StatusBadRequest, fres.DefaultErrorResponse{
			Success: false,
			Status:  string(domain.KindValidation),
			Message: validationMessage(err),
		})
	}

	return true, nil
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	}
	return fe.Field() + " is invalid"
}

func parseIDParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func invalidParam(c echo.Context, name string) error {
	return c.JSON(http.StatusBadRequest, fres.DefaultErrorResponse{
		Success: false,
		Status:  string(domain.KindValidation),
		Message: "invalid "+name,
	})
}

// currentIdentity returns the caller set by the auth middleware.
func currentIdentity(c echo.Context) (domain.Identity, bool) {
	return middleware.IdentityFrom(c)
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, fres.DefaultErrorResponse{
		Success: false,
		Status:  string(domain.KindAuthentication),
		Message: "User not authenticated",
	})
}
