package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/plant-care/pkg/errors"
)

const defaultTokenTTL = 24 * time.Hour

// Service issues and validates owner tokens. The owner id is opaque: it is
// never looked up, only carried through to scope plant data.
type Service interface {
	Enabled() bool
	IssueToken(ctx context.Context, ownerID string) (Token, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
}

type service struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service instance. An empty secret disables auth.
func NewService(cfg Config, logger *slog.Logger) Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return &service{
		cfg:    cfg,
		logger: logger.With("component", "auth.service"),
		now:    time.Now,
	}
}

func (s *service) Enabled() bool {
	return s.cfg.Secret != ""
}

func (s *service) IssueToken(_ context.Context, ownerID string) (Token, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Token{}, apperrors.Wrap(apperrors.CodeInvalidInput, "owner id is required", nil)
	}
	if len(ownerID) > 128 {
		return Token{}, apperrors.Wrap(apperrors.CodeInvalidInput, "owner id must be at most 128 characters", nil)
	}
	if !s.Enabled() {
		return Token{}, apperrors.Wrap(apperrors.CodeInvalidInput, "auth secret is not configured", nil)
	}

	now := s.now()
	expires := now.Add(s.cfg.TokenTTL)
	claims := tokenClaims{
		OwnerID: ownerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			Issuer:    s.cfg.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return Token{}, apperrors.Wrap(apperrors.CodeUnauthorized, "failed to sign token", err)
	}
	s.logger.Info("owner token issued", "owner_id", ownerID, "expires_at", expires.UTC())
	return Token{Token: signed, OwnerID: ownerID, ExpiresAt: expires.UTC()}, nil
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	if !s.Enabled() {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token validation is disabled", nil)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token invalid", nil)
	}
	if strings.TrimSpace(claims.OwnerID) == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing owner", nil)
	}
	return Claims{
		OwnerID:   claims.OwnerID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	OwnerID string `json:"ownerId"`
}
