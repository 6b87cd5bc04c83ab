package rest

import (
	"context"
	"net/http"
	"time"

	"ravello/domain"
	"ravello/internal/middleware"
	"ravello/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type UserService interface {
	RequestRegistration(ctx context.Context, req domain.RegistrationRequest) error
	VerifyOTP(ctx context.Context, email, code string, purpose domain.OTPPurpose) (domain.VerificationResult, error)
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Logout(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, clientID uint64, update domain.ProfileUpdate) (domain.Client, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, ticket, email, newPassword string) error
}

type UserHandler struct {
	userService UserService
	validator   *validator.Validate
	timeout     time.Duration
}

func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   validator.New(),
		timeout:     10 * time.Second,
	}
}

type RegisterRequest struct {
	Name        string  `json:"name" validate:"required"`
	Email       string  `json:"email" validate:"required,email"`
	PhoneNumber *string `json:"phone_number"`
	Password    string  `json:"password" validate:"required"`
	Role        string  `json:"role" validate:"omitempty,oneof=user seller"`
}

type VerifyOTPRequest struct {
	Email      string `json:"email" validate:"required,email"`
	OTP        string `json:"otp" validate:"required"`
	ActionFlow string `json:"action_flow" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number"`
	Bio         *string `json:"bio"`
	Address     *string `json:"address"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	ResetTicket string `json:"reset_ticket" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Register stages a pending registration and mails the verification code.
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if ok, err := bindAndValidate(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	err := h.userService.RequestRegistration(ctx, domain.RegistrationRequest{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Role:        req.Role,
	})
	if err != nil {
		logger.Error("Failed to request registration", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.DefaultSuccessResponse{
		Success: true,
		Message: "Verification code sent. Please check your email to complete registration.",
	})
}

func (h *UserHandler) VerifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if ok, err := bindAndValidate(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res, err := h.userService.VerifyOTP(ctx, req.Email, req.OTP, domain.OTPPurpose(req.ActionFlow))
	if err != nil {
		return writeError(c, err)
	}

	if res.Session != nil {
		return c.JSON(http.StatusCreated, fres.DefaultSuccessResponse{
			Success: true,
			Message: "Registration completed",
			Data:    res,
		})
	}
	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "Code verified, you may now reset your password",
		Data:    res,
	})
}

func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if ok, err := bindAndValidate(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	session, err := h.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "Login successful",
		Data:    session,
	})
}

// Logout removes the caller's token from the session registry.
func (h *UserHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.userService.Logout(ctx, middleware.TokenFrom(c)); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{Success: true, Message: "Logout successful"})
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return unauthenticated(c)
	}

	var req UpdateProfileRequest
	if ok, err := bindAndValidate(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	client, err := h.userService.UpdateProfile(ctx, identity.ClientID, domain.ProfileUpdate{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Bio:         req.Bio,
		Address:     req.Address,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "Profile updated",
		Data:    client,
	})
}

// ForgotPassword always answers the same way so callers cannot tell which
// emails are registered.
func (h *UserHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if ok, err := bindAndValidate(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.userService.ForgotPassword(ctx, req.Email); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "If the email is registered, a verification code has been sent",
	})
}

func (h *UserHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if ok, err := bindAndValidate(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.userService.ResetPassword(ctx, req.ResetTicket, req.Email, req.NewPassword); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.DefaultSuccessResponse{
		Success: true,
		Message: "Password has been reset",
	})
}
