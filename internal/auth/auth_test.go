package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templatedir/templatedir-server/internal/domain"
)

// cheap parameters keep the suite fast.
var testParams = Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := hashWithParams("correct horse", testParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))

	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))
	assert.False(t, VerifyPassword("not-a-hash", "correct horse"))
	assert.False(t, VerifyPassword(hash, strings.Repeat("x", MaxPasswordLength+1)))
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	a, err := hashWithParams("pw", testParams)
	require.NoError(t, err)
	b, err := hashWithParams("pw", testParams)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashPassword_Rejects(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)

	_, err = HashPassword(strings.Repeat("x", MaxPasswordLength+1))
	assert.Error(t, err)
}

func TestLoadOrGenerateKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "nested", "auth.key")

	first, err := LoadOrGenerateKey(keyPath)
	require.NoError(t, err)
	assert.Len(t, first, keyLength)

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrGenerateKey(keyPath)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, os.WriteFile(keyPath, []byte("short"), 0o600))
	_, err = LoadOrGenerateKey(keyPath)
	assert.Error(t, err)
}

func newTestTokenService(t *testing.T, access time.Duration) *TokenService {
	t.Helper()
	key := make([]byte, keyLength)
	for i := range key {
		key[i] = byte(i)
	}
	svc, err := NewTokenService(key, access, time.Hour)
	require.NoError(t, err)
	return svc
}

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Minute)
	user := &domain.User{ID: "u-1", Email: "ada@example.com"}

	token, err := svc.GenerateAccessToken(user, "sess-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "u-1", claims.Subject)
	assert.True(t, strings.HasPrefix(claims.TokenID, "tok-"))
}

func TestAccessToken_Rejects(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)
	token, err := svc.GenerateAccessToken(&domain.User{ID: "u-1"}, "sess-1")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err, "expired token")

	other := newTestTokenService(t, time.Minute)
	_, err = other.VerifyAccessToken("v4.local.garbage")
	assert.Error(t, err)
}

func TestNewTokenService_KeyLength(t *testing.T) {
	_, err := NewTokenService(make([]byte, 16), time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestRefreshTokens(t *testing.T) {
	svc := newTestTokenService(t, time.Minute)

	a, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	b, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	assert.Len(t, HashRefreshToken(a), 64)
	assert.Equal(t, HashRefreshToken(a), HashRefreshToken(a))
	assert.NotEqual(t, HashRefreshToken(a), HashRefreshToken(b))
}
