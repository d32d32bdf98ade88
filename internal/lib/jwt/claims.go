// Package jwt выпускает и проверяет токены доступа сотрудников клуба.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims данные сотрудника внутри токена.
type CustomClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Maker подписывает токены секретным ключом и задаёт им срок жизни.
type Maker struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт Maker на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *Maker {
	return &Maker{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
