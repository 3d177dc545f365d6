package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/collectedworks/backend/config"
	"github.com/golang-jwt/jwt/v5"
)

// JWTValidator validates HS256-signed tokens against the configured
// secret, issuer and audience.
type JWTValidator struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTValidator creates a validator from the auth configuration
func NewJWTValidator(cfg config.AuthConfig) *JWTValidator {
	return &JWTValidator{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// ValidateToken parses and verifies a JWT token and returns its claims.
// With no secret configured every token is rejected; an empty HMAC key
// would otherwise verify tokens signed with the empty string.
func (v *JWTValidator) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("no signing secret configured")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	claims := &Claims{}
	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Sub = sub
	}
	if iss, err := mapClaims.GetIssuer(); err == nil {
		claims.Iss = iss
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if aud, err := mapClaims.GetAudience(); err == nil && len(aud) > 0 {
		claims.Aud = aud[0]
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.Exp = exp.Unix()
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.Iat = iat.Unix()
	}

	return claims, nil
}

// IssueToken signs a token for the given subject. Used by tooling and
// tests; the service itself only verifies tokens.
func (v *JWTValidator) IssueToken(subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"iss":   v.issuer,
		"aud":   v.audience,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})

	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
