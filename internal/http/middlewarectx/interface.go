package middlewarectx

import "github.com/magabrotheeeer/membership-manager/internal/lib/jwt"

// TokenParser проверяет токен доступа и возвращает его claims.
type TokenParser interface {
	ParseToken(token string) (*jwt.CustomClaims, error)
}
