package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/templatedir/templatedir-server/internal/domain"
	"github.com/templatedir/templatedir-server/internal/id"
)

const (
	tokenIssuer   = "templatedir-server"
	tokenAudience = "templatedir-client"

	// 256 bits.
	refreshTokenBytes = 32
)

// AccessClaims is the payload of a v4.local access token.
type AccessClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	SessionID string `json:"session_id"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// TokenService mints short-lived access tokens tied to a session and
// opaque refresh tokens whose hashes the session row keeps.
type TokenService struct {
	key        paseto.V4SymmetricKey
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService builds a service around a 32-byte symmetric key.
func NewTokenService(key []byte, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("token key must be %d bytes, got %d", keyLength, len(key))
	}
	k, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("load token key: %w", err)
	}
	return &TokenService{key: k, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// GenerateAccessToken mints an access token for user within sessionID.
func (s *TokenService) GenerateAccessToken(user *domain.User, sessionID string) (string, error) {
	jti, err := id.Generate(id.PrefixToken)
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}

	now := time.Now()
	t := paseto.NewToken()
	t.SetIssuer(tokenIssuer)
	t.SetAudience(tokenAudience)
	t.SetSubject(user.ID)
	t.SetJti(jti)
	t.SetIssuedAt(now)
	t.SetNotBefore(now)
	t.SetExpiration(now.Add(s.accessTTL))

	for claim, value := range map[string]string{
		"user_id":    user.ID,
		"email":      user.Email,
		"session_id": sessionID,
	} {
		if err := t.Set(claim, value); err != nil {
			return "", fmt.Errorf("set %s claim: %w", claim, err)
		}
	}
	return t.V4Encrypt(s.key, nil), nil
}

// VerifyAccessToken decrypts token and checks issuer, audience and time
// bounds. Whether the session is still open is the caller's concern.
func (s *TokenService) VerifyAccessToken(token string) (*AccessClaims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(time.Now()))

	t, err := parser.ParseV4Local(s.key, token, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	var claims AccessClaims
	if err := json.Unmarshal(t.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return &claims, nil
}

// GenerateRefreshToken returns a random URL-safe token. Only
// HashRefreshToken of it is persisted.
func (s *TokenService) GenerateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashRefreshToken returns the hex SHA-256 of token.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// AccessTokenDuration returns the access token lifetime.
func (s *TokenService) AccessTokenDuration() time.Duration { return s.accessTTL }

// RefreshTokenDuration returns the refresh token lifetime.
func (s *TokenService) RefreshTokenDuration() time.Duration { return s.refreshTTL }
