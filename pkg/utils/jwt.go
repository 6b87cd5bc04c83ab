package utils

import (
	"errors"
	"strconv"
	"time"

	"ravello/domain"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	ClientID  uint64  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	StoreID   *uint64 `json:"storeId"`
	StoreName *string `json:"storeName"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 session tokens with a fixed secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

func (i *TokenIssuer) GenerateJWT(id domain.Identity) (string, error) {
	now := i.now()
	claims := Claims{
		ClientID:  id.ClientID,
		Email:     id.Email,
		Name:      id.Name,
		Role:      id.Role,
		StoreID:   id.StoreID,
		StoreName: id.StoreName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(id.ClientID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *TokenIssuer) ParseJWT(tokenString string) (domain.Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return domain.Identity{}, err
	}
	if !token.Valid || claims.ClientID == 0 {
		return domain.Identity{}, errors.New("invalid token")
	}

	return domain.Identity{
		ClientID:  claims.ClientID,
		Email:     claims.Email,
		Name:      claims.Name,
		Role:      claims.Role,
		StoreID:   claims.StoreID,
		StoreName: claims.StoreName,
	}, nil
}
