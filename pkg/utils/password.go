package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16
)

// HashPassword returns base64(salt) + "." + base64(scrypt key).
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(salt) + "." + base64.StdEncoding.EncodeToString(key), nil
}

// CheckPassword reports whether password matches a credential produced by
// HashPassword. Malformed credentials never match.
func CheckPassword(password, credential string) bool {
	saltB64, keyB64, ok := strings.Cut(credential, ".")
	if !ok || saltB64 == "" || keyB64 == "" {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}
	stored, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return false
	}

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(key, stored) == 1
}
