package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AdminSubject = "admin"
	RoleAdmin    = "admin"

	tokenIssuer   = "bigfive-api"
	tokenAudience = "bigfive-admin"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

// Claims de los tokens del panel. TokenType separa access de refresh para
// que ninguno sirva en el flujo del otro.
type Claims struct {
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// JWTService firma y valida los tokens HS256 del panel de administracion.
// Sin secreto queda deshabilitado (Configured() == false).
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      RefreshTokenStore
	now        func() time.Time
	parser     *jwt.Parser
}

func NewJWTService(secret string, accessTTL, refreshTTL time.Duration) *JWTService {
	return NewJWTServiceWithStore(secret, accessTTL, refreshTTL, nil)
}

// NewJWTServiceWithStore usa store para los jti de refresh; nil cae al
// store en memoria.
func NewJWTServiceWithStore(secret string, accessTTL, refreshTTL time.Duration, store RefreshTokenStore) *JWTService {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	if store == nil {
		store = NewMemoryRefreshTokenStore()
	}
	s := &JWTService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		now:        func() time.Time { return time.Now().UTC() },
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s
}

func (s *JWTService) Configured() bool {
	return len(s.secret) > 0
}

func (s *JWTService) GeneratePair(subject string) (TokenPair, error) {
	subject = strings.TrimSpace(subject)
	if !s.Configured() || subject == "" {
		return TokenPair{}, ErrJWTInvalid
	}
	now := s.now()
	access, _, err := s.sign(subject, now, s.accessTTL, tokenTypeAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, jti, err := s.sign(subject, now, s.refreshTTL, tokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.Save(context.Background(), jti, subject, s.refreshTTL); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// RefreshPair consume el refresh token y emite un par nuevo. Reusar un
// refresh token ya rotado devuelve ErrJWTInvalid.
func (s *JWTService) RefreshPair(refreshToken string) (TokenPair, error) {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	subject, err := s.store.Consume(context.Background(), claims.ID)
	if err != nil || subject != claims.Subject {
		return TokenPair{}, ErrJWTInvalid
	}
	return s.GeneratePair(subject)
}

// RevokeRefresh invalida el refresh token (logout).
func (s *JWTService) RevokeRefresh(refreshToken string) error {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return err
	}
	_, err = s.store.Consume(context.Background(), claims.ID)
	return err
}

func (s *JWTService) ParseAccessToken(accessToken string) (Claims, error) {
	return s.parse(accessToken, tokenTypeAccess)
}

func (s *JWTService) sign(subject string, now time.Time, ttl time.Duration, tokenType string) (string, string, error) {
	jti := uuid.NewString()
	claims := Claims{
		Role:      RoleAdmin,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return signed, jti, err
}

func (s *JWTService) parse(tokenString, wantType string) (Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if !s.Configured() || tokenString == "" {
		return Claims{}, ErrJWTInvalid
	}
	var claims Claims
	_, err := s.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrJWTExpired
	case err != nil:
		return Claims{}, ErrJWTInvalid
	}
	if claims.TokenType != wantType || claims.Role != RoleAdmin || strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, ErrJWTInvalid
	}
	if wantType == tokenTypeRefresh && claims.ID == "" {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}
