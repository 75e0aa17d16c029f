package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	jwtIssuer   = "tokenbook-api"
	jwtAudience = "tokenbook-users"

	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	clockSkew = 5 * time.Second
)

type tokenKind string

const (
	tokenTypeAccess  tokenKind = "access"
	tokenTypeRefresh tokenKind = "refresh"
)

var ttls = map[tokenKind]time.Duration{
	tokenTypeAccess:  AccessTokenTTL,
	tokenTypeRefresh: RefreshTokenTTL,
}

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrEmptyJWTSecret   = errors.New("jwt secret cannot be empty")
)

// JWTClaims carries the actor in every token. Subject mirrors UserID and ID
// is unique per issued token.
type JWTClaims struct {
	UserID    int       `json:"user_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	TokenType tokenKind `json:"token_type"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) Actor() Actor {
	return Actor{UserID: c.UserID, Role: c.Role}
}

func sign(kind tokenKind, userID int, email string, role Role, secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptyJWTSecret
	}

	now := time.Now()
	claims := JWTClaims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.Itoa(userID),
			Issuer:    jwtIssuer,
			Audience:  jwt.ClaimStrings{jwtAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttls[kind])),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func GenerateAccessToken(userID int, email string, role Role, secret string) (string, error) {
	return sign(tokenTypeAccess, userID, email, role, secret)
}

func GenerateRefreshToken(userID int, email string, role Role, secret string) (string, error) {
	return sign(tokenTypeRefresh, userID, email, role, secret)
}

// GenerateTokens issues an access/refresh pair; either both succeed or
// neither is returned.
func GenerateTokens(userID int, email string, role Role, accessSecret, refreshSecret string) (string, string, error) {
	access, err := GenerateAccessToken(userID, email, role, accessSecret)
	if err != nil {
		return "", "", err
	}
	refresh, err := GenerateRefreshToken(userID, email, role, refreshSecret)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

var parser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithIssuer(jwtIssuer),
	jwt.WithAudience(jwtAudience),
	jwt.WithExpirationRequired(),
	jwt.WithLeeway(clockSkew),
)

// ValidateToken checks signature, issuer, audience and expiry of a token of
// either kind.
func ValidateToken(tokenString, secret string) (*JWTClaims, error) {
	if secret == "" {
		return nil, ErrEmptyJWTSecret
	}

	claims := &JWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case !token.Valid:
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func parseKind(tokenString, secret string, want tokenKind) (*JWTClaims, error) {
	claims, err := ValidateToken(tokenString, secret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != want {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

// ParseAccessToken validates tokenString and insists on an access token.
func ParseAccessToken(tokenString, secret string) (*JWTClaims, error) {
	return parseKind(tokenString, secret, tokenTypeAccess)
}

// RefreshAccessToken trades a refresh token for a new access token carrying
// the refresh token's claims.
func RefreshAccessToken(refreshToken, refreshSecret, accessSecret string) (string, *JWTClaims, error) {
	claims, err := parseKind(refreshToken, refreshSecret, tokenTypeRefresh)
	if err != nil {
		return "", nil, err
	}

	access, err := GenerateAccessToken(claims.UserID, claims.Email, claims.Role, accessSecret)
	if err != nil {
		return "", nil, err
	}
	return access, claims, nil
}
