package domain

import "time"

type OTPPurpose string

const (
	PurposeRegistration  OTPPurpose = "REGISTRATION"
	PurposePasswordReset OTPPurpose = "PASSWORD_RESET"
)

func (p OTPPurpose) Valid() bool {
	return p == PurposeRegistration || p == PurposePasswordReset
}

// CREATE TABLE public.otp_verification (
//     id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     email       TEXT NOT NULL,
//     otp         TEXT NOT NULL,
//     otp_expire  TIMESTAMPTZ NOT NULL,
//     purpose     TEXT NOT NULL,
//     temp_reg_id BIGINT
// );

type OTPVerification struct {
	ID        uint64     `gorm:"primaryKey;column:id;autoIncrement"`
	Email     string     `gorm:"column:email;index:idx_otp_email_purpose;not null"`
	OTP       string     `gorm:"column:otp;not null"`
	OTPExpire time.Time  `gorm:"column:otp_expire;not null"`
	Purpose   OTPPurpose `gorm:"column:purpose;index:idx_otp_email_purpose;not null"`
	TempRegID *uint64    `gorm:"column:temp_reg_id"`
}

func (OTPVerification) TableName() string {
	return "otp_verification"
}

func (o OTPVerification) Expired(now time.Time) bool {
	return now.After(o.OTPExpire)
}

type TempRegistration struct {
	TempID      uint64    `gorm:"primaryKey;column:temp_id;autoIncrement"`
	Name        string    `gorm:"column:name;not null"`
	Email       string    `gorm:"column:email;index;not null"`
	PhoneNumber *string   `gorm:"column:phone_number"`
	Password    string    `gorm:"column:password;not null"`
	Role        string    `gorm:"column:role;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (TempRegistration) TableName() string {
	return "temp_registration"
}

type RegistrationRequest struct {
	Name        string
	Email       string
	PhoneNumber *string
	Password    string
	Role        string
}

// VerificationResult is returned by a successful code verification. Session
// is set for registrations, ResetTicket for password resets.
type VerificationResult struct {
	Purpose     OTPPurpose `json:"action_flow"`
	Email       string     `json:"email"`
	Session     *Session   `json:"session,omitempty"`
	ResetTicket string     `json:"reset_ticket,omitempty"`
}
