package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long issued tokens stay valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// JWTConfig configures token issue and verification.
type JWTConfig struct {
	// Issuer is written to and required in the iss claim when set.
	Issuer string

	// TTL is the token lifetime.
	// Default: DefaultTokenTTL
	TTL time.Duration

	// KeyID is placed in the kid header and passed to the KeyProvider.
	KeyID string

	// Clock overrides time.Now.
	Clock func() time.Time
}

// KeyProvider retrieves signing keys.
type KeyProvider interface {
	// GetKey returns the HMAC key for the given key ID.
	GetKey(ctx context.Context, keyID string) (any, error)
}

// StaticKeyProvider provides a static signing key.
type StaticKeyProvider struct {
	key []byte
}

// NewStaticKeyProvider creates a static key provider.
func NewStaticKeyProvider(key []byte) *StaticKeyProvider {
	return &StaticKeyProvider{key: key}
}

// GetKey returns the static key.
func (p *StaticKeyProvider) GetKey(_ context.Context, _ string) (any, error) {
	if len(p.key) == 0 {
		return nil, ErrKeyNotFound
	}
	return p.key, nil
}

// Claims is the token payload. UserID mirrors the subject.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// JWTAuthenticator issues and validates HS256 tokens.
type JWTAuthenticator struct {
	config      JWTConfig
	keyProvider KeyProvider
}

// NewJWTAuthenticator creates a new JWT authenticator.
func NewJWTAuthenticator(config JWTConfig, keyProvider KeyProvider) *JWTAuthenticator {
	if config.TTL <= 0 {
		config.TTL = DefaultTokenTTL
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &JWTAuthenticator{
		config:      config,
		keyProvider: keyProvider,
	}
}

// Name returns "jwt".
func (a *JWTAuthenticator) Name() string {
	return "jwt"
}

// Issue signs a token for userID.
func (a *JWTAuthenticator) Issue(ctx context.Context, userID string) (string, error) {
	key, err := a.hmacKey(ctx, a.config.KeyID)
	if err != nil {
		return "", err
	}

	now := a.config.Clock()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    a.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if a.config.KeyID != "" {
		token.Header["kid"] = a.config.KeyID
	}

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns the identity it carries. Only the
// principal and token times are set; callers look up the rest.
func (a *JWTAuthenticator) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMissingCredentials
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.config.Clock),
		jwt.WithExpirationRequired(),
	}
	if a.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.config.Issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		return a.hmacKey(ctx, kid)
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	return a.buildIdentity(claims)
}

func (a *JWTAuthenticator) hmacKey(ctx context.Context, kid string) ([]byte, error) {
	if a.keyProvider == nil {
		return nil, ErrKeyNotFound
	}
	raw, err := a.keyProvider.GetKey(ctx, kid)
	if err != nil {
		return nil, err
	}
	key, ok := raw.([]byte)
	if !ok || len(key) == 0 {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

func (a *JWTAuthenticator) buildIdentity(claims Claims) (*Identity, error) {
	principal := claims.UserID
	if principal == "" {
		principal = claims.Subject
	}
	if principal == "" {
		return nil, fmt.Errorf("%w: no user id", ErrTokenMalformed)
	}

	identity := &Identity{
		Principal: principal,
		Method:    AuthMethodJWT,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	return identity, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return "", ErrMissingCredentials
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	if token == "" {
		return "", ErrMissingCredentials
	}
	return token, nil
}

// Ensure StaticKeyProvider implements KeyProvider
var _ KeyProvider = (*StaticKeyProvider)(nil)
