// Package auth issues and verifies the access tokens that carry a sender's
// mail address.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/otpmail/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "otpmail"

// GenerateToken signs an HS256 token whose subject is address.
func GenerateToken(address string, secretKey []byte, validityDuration time.Duration) (string, error) {
	if address == "" {
		return "", fmt.Errorf("%w: empty address", common.ErrorValidation)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   address,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// AddressFromToken verifies tokenString and returns its subject.
func AddressFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
