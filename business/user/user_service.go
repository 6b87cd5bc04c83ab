package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ravello/domain"
	"ravello/pkg/logger"
	"ravello/pkg/metrics"
	"ravello/pkg/utils"

	"github.com/go-playground/validator/v10"
)

// UserRepository contract interface
type UserRepository interface {
	FindByID(ctx context.Context, id uint64) (domain.Client, error)
	FindByEmail(ctx context.Context, email string) (domain.Client, error)
	FindLoginByEmail(ctx context.Context, email string) (domain.ClientLogin, error)
	UpdateProfile(ctx context.Context, id uint64, update domain.ProfileUpdate) (domain.Client, error)
	// UpdatePassword swaps currentHash for newHash and reports
	// ErrRecordNotFound when the stored credential is no longer currentHash.
	UpdatePassword(ctx context.Context, email, currentHash, newHash string) error
}

// RegistrationTx holds the statements that stage and promote registrations
// and manage one-time codes inside a single transaction.
type RegistrationTx interface {
	ClientExists(ctx context.Context, email string) (bool, error)
	CreateClient(ctx context.Context, client *domain.Client) error
	CreatePending(ctx context.Context, pending *domain.TempRegistration) error
	FindPending(ctx context.Context, tempID uint64) (domain.TempRegistration, error)
	DeletePending(ctx context.Context, tempID uint64) error
	DeletePendingByEmail(ctx context.Context, email string) error
	CreateCode(ctx context.Context, code *domain.OTPVerification) error
	FindCode(ctx context.Context, email, code string, purpose domain.OTPPurpose) (domain.OTPVerification, error)
	DeleteCodes(ctx context.Context, email string, purpose domain.OTPPurpose) error
}

// OTPRepository contract interface
type OTPRepository interface {
	WithinTx(ctx context.Context, fn func(tx RegistrationTx) error) error
	// PurgeExpired removes codes past their expiry together with the pending
	// registrations they were issued for.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// NotificationRepository contract interface
type NotificationRepository interface {
	SendEmail(ctx context.Context, toName, toEmail, subject, message string) error
}

// SessionRegistry is optional; without one tokens stay valid until expiry.
type SessionRegistry interface {
	Register(ctx context.Context, token string, clientID uint64, ttl time.Duration) error
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, clientID uint64) error
}

type userService struct {
	userRepo  UserRepository
	otpRepo   OTPRepository
	notifRepo NotificationRepository
	sessions  SessionRegistry
	tokens    *utils.TokenIssuer
	tickets   *utils.ResetTicketer
	validate  *validator.Validate
	now       func() time.Time
}

const (
	SubjectRegisterAccount   = "Activate Your Account!"
	EmailBodyRegisterAccount = `Halo, %v, kode verifikasi akun anda adalah</br></br><b>%v</b></br>catatan: kode hanya berlaku %v menit`
	SubjectResetPassword     = "Reset Your Password"
	EmailBodyResetPassword   = `Halo, %v, kode untuk mengatur ulang password anda adalah</br></br><b>%v</b></br>catatan: kode hanya berlaku %v menit`
)

const (
	invalidCredentials = "invalid email or password"
	usedResetTicket    = "reset ticket has already been used"
)

func NewUserService(
	userRepo UserRepository,
	otpRepo OTPRepository,
	notifRepo NotificationRepository,
	sessions SessionRegistry,
	tokens *utils.TokenIssuer,
	tickets *utils.ResetTicketer,
	validate *validator.Validate,
) *userService {
	return &userService{
		userRepo:  userRepo,
		otpRepo:   otpRepo,
		notifRepo: notifRepo,
		sessions:  sessions,
		tokens:    tokens,
		tickets:   tickets,
		validate:  validate,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestRegistration stages the account and mails a registration code.
// Nothing is written to client until the code is verified.
func (s *userService) RequestRegistration(ctx context.Context, req domain.RegistrationRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return domain.NewValidationError("name, email and password are required")
	}

	if err := s.validate.Var(req.Email, "email"); err != nil {
		logger.Error("Invalid email format", err)
		return domain.NewValidationError("invalid email format")
	}

	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleSeller {
		return domain.NewValidationError("invalid role")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return domain.NewStorageError("failed to hash password", err)
	}

	code, expAt, err := utils.GenerateOTP(s.now())
	if err != nil {
		logger.Error("Failed to generate verification code", err)
		return domain.NewStorageError("failed to generate verification code", err)
	}

	err = s.otpRepo.WithinTx(ctx, func(tx RegistrationTx) error {
		exists, err := tx.ClientExists(ctx, req.Email)
		if err != nil {
			return domain.NewStorageError("failed to check email", err)
		}
		if exists {
			return domain.NewConflictError("email already registered")
		}

		if err := tx.DeleteCodes(ctx, req.Email, domain.PurposeRegistration); err != nil {
			return domain.NewStorageError("failed to clear previous codes", err)
		}
		if err := tx.DeletePendingByEmail(ctx, req.Email); err != nil {
			return domain.NewStorageError("failed to clear previous registration", err)
		}

		pending := domain.TempRegistration{
			Name:        req.Name,
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			Password:    passwordHash,
			Role:        role,
			CreatedAt:   s.now(),
		}
		if err := tx.CreatePending(ctx, &pending); err != nil {
			return domain.NewStorageError("failed to stage registration", err)
		}

		tempID := pending.TempID
		if err := tx.CreateCode(ctx, &domain.OTPVerification{
			Email:     req.Email,
			OTP:       code,
			OTPExpire: expAt,
			Purpose:   domain.PurposeRegistration,
			TempRegID: &tempID,
		}); err != nil {
			return domain.NewStorageError("failed to store verification code", err)
		}

		return nil
	})
	if err != nil {
		logger.Error("Failed to stage registration", "email", req.Email, "error", err)
		return asDomainError(err, "failed to stage registration")
	}

	metrics.OTPIssued.WithLabelValues(string(domain.PurposeRegistration)).Inc()

	body := fmt.Sprintf(EmailBodyRegisterAccount, req.Name, code, int(utils.OTPTTL.Minutes()))
	if err := s.notifRepo.SendEmail(ctx, req.Name, req.Email, SubjectRegisterAccount, body); err != nil {
		logger.Error("Failed to send verification email", err)
		return domain.NewDependencyError("failed to send verification code", err)
	}

	return nil
}

// VerifyOTP checks a code for the given purpose. Registration codes promote
// the pending row to an account and sign the client in; reset codes yield a
// short lived reset ticket.
func (s *userService) VerifyOTP(ctx context.Context, email, code string, purpose domain.OTPPurpose) (domain.VerificationResult, error) {
	if !purpose.Valid() {
		return domain.VerificationResult{}, domain.NewValidationError("invalid action_flow, use REGISTRATION or PASSWORD_RESET")
	}

	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return domain.VerificationResult{}, domain.NewValidationError("email and otp are required")
	}

	var (
		expired bool
		client  domain.Client
		token   string
	)

	err := s.otpRepo.WithinTx(ctx, func(tx RegistrationTx) error {
		otp, err := tx.FindCode(ctx, email, code, purpose)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return domain.NewAuthenticationError("invalid verification code")
			}
			return domain.NewStorageError("failed to load verification code", err)
		}

		if otp.Expired(s.now()) {
			// the cleanup has to commit, the caller still gets an error below
			expired = true
			if err := tx.DeleteCodes(ctx, email, purpose); err != nil {
				return domain.NewStorageError("failed to delete expired code", err)
			}
			if otp.TempRegID != nil {
				if err := tx.DeletePending(ctx, *otp.TempRegID); err != nil {
					return domain.NewStorageError("failed to delete expired registration", err)
				}
			}
			return nil
		}

		if err := tx.DeleteCodes(ctx, email, purpose); err != nil {
			return domain.NewStorageError("failed to delete verification code", err)
		}

		if purpose != domain.PurposeRegistration {
			return nil
		}

		if otp.TempRegID == nil {
			return domain.NewAuthenticationError("invalid verification code")
		}

		pending, err := tx.FindPending(ctx, *otp.TempRegID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return domain.NewAuthenticationError("registration request no longer exists, please register again")
			}
			return domain.NewStorageError("failed to load pending registration", err)
		}

		client = domain.Client{
			Name:        pending.Name,
			Email:       pending.Email,
			PhoneNumber: pending.PhoneNumber,
			Password:    pending.Password,
			Role:        pending.Role,
			CreatedAt:   s.now(),
		}
		if err := tx.CreateClient(ctx, &client); err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) {
				return domain.NewConflictError("email already registered")
			}
			return domain.NewStorageError("failed to create account", err)
		}

		if err := tx.DeletePending(ctx, pending.TempID); err != nil {
			return domain.NewStorageError("failed to delete pending registration", err)
		}

		token, err = s.tokens.GenerateJWT(identityOf(client, nil))
		if err != nil {
			return domain.NewStorageError("failed to generate token", err)
		}

		return nil
	})
	if err != nil {
		logger.Warn("Verification failed", "email", email, "purpose", purpose, "error", err)
		return domain.VerificationResult{}, asDomainError(err, "failed to verify code")
	}

	if expired {
		return domain.VerificationResult{}, domain.NewAuthenticationError("verification code has expired")
	}

	result := domain.VerificationResult{Purpose: purpose, Email: email}

	if purpose == domain.PurposePasswordReset {
		account, err := s.userRepo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return domain.VerificationResult{}, domain.NewNotFoundError("account not found")
			}
			logger.Error("Failed to load client for reset ticket", err)
			return domain.VerificationResult{}, domain.NewStorageError("failed to load account", err)
		}

		ticket, err := s.tickets.Issue(utils.ResetClaims{
			Email: email,
			Stamp: utils.CredentialStamp(account.Password),
		}, s.now())
		if err != nil {
			logger.Error("Failed to issue reset ticket", err)
			return domain.VerificationResult{}, domain.NewStorageError("failed to issue reset ticket", err)
		}
		result.ResetTicket = ticket
		return result, nil
	}

	if err := s.registerSession(ctx, token, client.ClientID); err != nil {
		return domain.VerificationResult{}, err
	}

	result.Session = &domain.Session{Token: token, Profile: identityOf(client, nil)}
	logger.Info("Account created", "client_id", client.ClientID)
	return result, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.Session{}, domain.NewValidationError("email and password are required")
	}

	login, err := s.userRepo.FindLoginByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Warn("Login with unknown email", "email", email)
			return domain.Session{}, domain.NewAuthenticationError(invalidCredentials)
		}
		logger.Error("Failed to load client for login", err)
		return domain.Session{}, domain.NewStorageError("failed to load account", err)
	}

	if !utils.CheckPassword(password, login.Password) {
		logger.Warn("User password incorrect", "client_id", login.ClientID)
		return domain.Session{}, domain.NewAuthenticationError(invalidCredentials)
	}

	identity := domain.Identity{
		ClientID:  login.ClientID,
		Email:     login.Email,
		Name:      login.Name,
		Role:      login.Role,
		StoreID:   login.StoreID,
		StoreName: login.StoreName,
	}

	token, err := s.tokens.GenerateJWT(identity)
	if err != nil {
		logger.Error("Failed to generated token", err)
		return domain.Session{}, domain.NewStorageError("failed to generate token", err)
	}

	if err := s.registerSession(ctx, token, login.ClientID); err != nil {
		return domain.Session{}, err
	}

	return domain.Session{Token: token, Profile: identity}, nil
}

func (s *userService) Logout(ctx context.Context, token string) error {
	if s.sessions == nil {
		return nil
	}

	if err := s.sessions.Revoke(ctx, token); err != nil {
		logger.Error("Failed to revoke session", err)
		return domain.NewDependencyError("failed to revoke session", err)
	}

	return nil
}

func (s *userService) registerSession(ctx context.Context, token string, clientID uint64) error {
	if s.sessions == nil {
		return nil
	}

	if err := s.sessions.Register(ctx, token, clientID, s.tokens.TTL()); err != nil {
		logger.Error("Failed to register session", err)
		return domain.NewDependencyError("failed to register session", err)
	}

	return nil
}

// UpdateProfile applies the non-nil fields of update to the client.
func (s *userService) UpdateProfile(ctx context.Context, clientID uint64, update domain.ProfileUpdate) (domain.Client, error) {
	if update.IsEmpty() {
		return domain.Client{}, domain.NewValidationError("at least one field must be provided")
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return domain.Client{}, domain.NewValidationError("name cannot be empty")
		}
		update.Name = &name
	}

	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if err := s.validate.Var(email, "required,email"); err != nil {
			logger.Error("Invalid email format", err)
			return domain.Client{}, domain.NewValidationError("invalid email format")
		}

		existing, err := s.userRepo.FindByEmail(ctx, email)
		if err == nil && existing.ClientID != clientID {
			return domain.Client{}, domain.NewConflictError("email already registered")
		}
		if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
			logger.Error("Failed to check email", err)
			return domain.Client{}, domain.NewStorageError("failed to check email", err)
		}
		update.Email = &email
	}

	client, err := s.userRepo.UpdateProfile(ctx, clientID, update)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			return domain.Client{}, domain.NewNotFoundError("client not found")
		case errors.Is(err, domain.ErrDuplicateKey):
			return domain.Client{}, domain.NewConflictError("email already registered")
		}
		logger.Error("Failed to update profile", err)
		return domain.Client{}, domain.NewStorageError("failed to update profile", err)
	}

	return client, nil
}

// ForgotPassword mails a reset code. Unknown emails report success without
// sending anything.
func (s *userService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return domain.NewValidationError("a valid email is required")
	}

	client, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Info("Password reset requested for unknown email", "email", email)
			return nil
		}
		logger.Error("Failed to load client for password reset", err)
		return domain.NewStorageError("failed to load account", err)
	}

	code, expAt, err := utils.GenerateOTP(s.now())
	if err != nil {
		logger.Error("Failed to generate reset code", err)
		return domain.NewStorageError("failed to generate reset code", err)
	}

	err = s.otpRepo.WithinTx(ctx, func(tx RegistrationTx) error {
		if err := tx.DeleteCodes(ctx, email, domain.PurposePasswordReset); err != nil {
			return err
		}
		return tx.CreateCode(ctx, &domain.OTPVerification{
			Email:     email,
			OTP:       code,
			OTPExpire: expAt,
			Purpose:   domain.PurposePasswordReset,
		})
	})
	if err != nil {
		logger.Error("Failed to store reset code", err)
		return domain.NewStorageError("failed to store reset code", err)
	}

	metrics.OTPIssued.WithLabelValues(string(domain.PurposePasswordReset)).Inc()

	body := fmt.Sprintf(EmailBodyResetPassword, client.Name, code, int(utils.OTPTTL.Minutes()))
	if err := s.notifRepo.SendEmail(ctx, client.Name, email, SubjectResetPassword, body); err != nil {
		logger.Error("Failed to send reset email", err)
		return domain.NewDependencyError("failed to send reset code", err)
	}

	return nil
}

// ResetPassword sets a new password for the account the ticket was issued
// to. A ticket authorises one change: it is bound to the credential it was
// issued against, and the update only applies while that credential is
// still stored.
func (s *userService) ResetPassword(ctx context.Context, ticket, email, newPassword string) error {
	email = normalizeEmail(email)
	if ticket == "" || email == "" || newPassword == "" {
		return domain.NewValidationError("reset_ticket, email and new_password are required")
	}

	claims, err := s.tickets.Verify(ticket, s.now())
	if err != nil || claims.Email != email {
		logger.Warn("Rejected reset ticket", "email", email)
		return domain.NewAuthenticationError("invalid or expired reset ticket")
	}

	client, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.NewNotFoundError("account not found")
		}
		logger.Error("Failed to load client for password reset", err)
		return domain.NewStorageError("failed to load account", err)
	}

	if utils.CredentialStamp(client.Password) != claims.Stamp {
		logger.Warn("Reset ticket replayed", "email", email)
		return domain.NewAuthenticationError(usedResetTicket)
	}

	passwordHash, err := utils.HashPassword(newPassword)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return domain.NewStorageError("failed to hash password", err)
	}

	// a concurrent reset with the same ticket loses here
	if err := s.userRepo.UpdatePassword(ctx, email, client.Password, passwordHash); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Warn("Reset ticket raced another password change", "email", email)
			return domain.NewAuthenticationError(usedResetTicket)
		}
		logger.Error("Failed to update password", err)
		return domain.NewStorageError("failed to update password", err)
	}

	// sessions opened with the old password end here
	if s.sessions != nil {
		if err := s.sessions.RevokeAll(ctx, client.ClientID); err != nil {
			logger.Warn("Failed to revoke sessions after password reset", "client_id", client.ClientID, "error", err)
		}
	}

	return nil
}

// PurgeExpired is run periodically to drop stale codes and the pending
// registrations that will never be verified.
func (s *userService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.otpRepo.PurgeExpired(ctx, s.now())
	if err != nil {
		logger.Error("Failed to purge expired codes", err)
		return 0, domain.NewStorageError("failed to purge expired codes", err)
	}

	if n > 0 {
		logger.Debug("Purged expired codes", "count", n)
	}

	return n, nil
}

func identityOf(client domain.Client, storeName *string) domain.Identity {
	return domain.Identity{
		ClientID:  client.ClientID,
		Email:     client.Email,
		Name:      client.Name,
		Role:      client.Role,
		StoreID:   client.StoreID,
		StoreName: storeName,
	}
}

func asDomainError(err error, msg string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.NewStorageError(msg, err)
}
