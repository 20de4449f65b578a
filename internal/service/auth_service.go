package service

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ndmlinh/campusmeet-gateway/config"
	apperrors "github.com/ndmlinh/campusmeet-gateway/internal/errors"
	repo "github.com/ndmlinh/campusmeet-gateway/internal/repository/redis"
	"github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

// AuthService resolves a gateway token to a user identity. Signature and
// expiry verification happen here; the gateway itself never inspects
// tokens.
type AuthService interface {
	ResolveFromToken(ctx context.Context, token string) (string, error)
}

type authService struct {
	repo repo.UserRepository
	conf config.JWTConfig
	l    logger.Logger
}

func NewAuthService(repo repo.UserRepository, conf config.JWTConfig, l logger.Logger) AuthService {
	return &authService{
		repo: repo,
		conf: conf,
		l:    l,
	}
}

func (s *authService) ResolveFromToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.ErrAuthentication
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.conf.Secret), nil
	})
	if err != nil {
		s.l.Warnf(ctx, "authService.ResolveFromToken: %v", err)
		return "", fmt.Errorf("%w: %v", apperrors.ErrAuthentication, err)
	}

	if !parsed.Valid {
		return "", apperrors.ErrAuthentication
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: missing user_id claim", apperrors.ErrAuthentication)
	}

	if _, err := s.repo.Get(ctx, userID); err != nil {
		if err == redis.Nil {
			s.l.Warnf(ctx, "authService.ResolveFromToken: token for unknown user %s", userID)
			return "", fmt.Errorf("%w: unknown user", apperrors.ErrAuthentication)
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	return userID, nil
}
