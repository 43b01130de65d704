package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/ports"
)

// Claims are the custom claims carried by collaborator-issued tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// JWTService validates access tokens minted by the platform's external
// identity provider. Only validation lives here; issuance stays out of this
// service entirely.
type JWTService struct {
	secret   string
	issuer   string
	audience string
	log      *zap.Logger
}

func NewJWTService(secret, issuer, audience string, log *zap.Logger) ports.AuthService {
	return &JWTService{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		log:      log,
	}
}

func (s *JWTService) ValidateToken(ctx context.Context, tokenString string) (*domain.Principal, error) {
	var opts []jwt.ParserOption
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("auth: validate token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: token claims invalid")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("auth: token missing subject")
	}

	return &domain.Principal{
		UserID: claims.Subject,
		Role:   claims.Role,
	}, nil
}
