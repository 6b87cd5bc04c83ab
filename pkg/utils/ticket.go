package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pobyzaarif/goshortcute"
)

const ResetTicketTTL = 10 * time.Minute

var ErrInvalidTicket = errors.New("invalid or expired reset ticket")

// ResetClaims is what a verified reset ticket carries.
type ResetClaims struct {
	Email string
	// Stamp identifies the credential that was current when the ticket was
	// issued. Once the password changes the ticket no longer matches.
	Stamp string
}

// ResetTicketer binds a verified password reset code to the follow-up
// password change. A ticket is base64(AES-CBC("email|expiryUnix|stamp") + "." + hmac).
type ResetTicketer struct {
	key    []byte
	macKey []byte
	ttl    time.Duration
}

func NewResetTicketer(key string) *ResetTicketer {
	macKey := sha256.Sum256([]byte("reset-ticket-mac:" + key))
	return &ResetTicketer{
		key:    []byte(key),
		macKey: macKey[:],
		ttl:    ResetTicketTTL,
	}
}

// CredentialStamp returns the salt half of a stored credential. HashPassword
// draws a fresh salt every time, so the stamp changes with every password.
func CredentialStamp(credential string) string {
	salt, _, _ := strings.Cut(credential, ".")
	return salt
}

func (t *ResetTicketer) sign(encrypted string) string {
	mac := hmac.New(sha256.New, t.macKey)
	mac.Write([]byte(encrypted))
	return hex.EncodeToString(mac.Sum(nil))
}

func (t *ResetTicketer) Issue(claims ResetClaims, now time.Time) (string, error) {
	if claims.Email == "" || claims.Stamp == "" {
		return "", errors.New("reset ticket needs an email and a credential stamp")
	}

	plain := fmt.Sprintf("%v|%v|%v", claims.Email, now.Add(t.ttl).Unix(), claims.Stamp)
	encrypted, err := goshortcute.AESCBCEncrypt([]byte(plain), t.key)
	if err != nil {
		return "", err
	}

	return goshortcute.StringtoBase64Encode(encrypted + "." + t.sign(encrypted)), nil
}

// Verify checks the signature and expiry and returns the ticket claims. Only
// ciphertexts this ticketer produced are ever decrypted.
func (t *ResetTicketer) Verify(ticket string, now time.Time) (ResetClaims, error) {
	if ticket == "" {
		return ResetClaims{}, ErrInvalidTicket
	}

	decoded, err := base64.StdEncoding.DecodeString(ticket)
	if err != nil {
		return ResetClaims{}, ErrInvalidTicket
	}

	encrypted, sig, ok := strings.Cut(string(decoded), ".")
	if !ok || encrypted == "" || !hmac.Equal([]byte(sig), []byte(t.sign(encrypted))) {
		return ResetClaims{}, ErrInvalidTicket
	}

	plain, err := goshortcute.AESCBCDecrypt([]byte(encrypted), t.key)
	if err != nil {
		return ResetClaims{}, ErrInvalidTicket
	}

	// the email may itself contain '|', so split from the right
	rest, stamp, ok := cutLast(plain, "|")
	if !ok || stamp == "" {
		return ResetClaims{}, ErrInvalidTicket
	}
	email, exp, ok := cutLast(rest, "|")
	if !ok || email == "" {
		return ResetClaims{}, ErrInvalidTicket
	}

	ts, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return ResetClaims{}, ErrInvalidTicket
	}
	if now.After(time.Unix(ts, 0)) {
		return ResetClaims{}, ErrInvalidTicket
	}

	return ResetClaims{Email: email, Stamp: stamp}, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
