package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/templatedir/templatedir-server/internal/auth"
	"github.com/templatedir/templatedir-server/internal/config"
	"github.com/templatedir/templatedir-server/internal/logger"
)

// AuthKey is the symmetric PASETO key shared by every token the server
// issues.
type AuthKey []byte

// ProvideAuthKey reads the key file under the data path, creating it on
// first start.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := cfg.AuthKeyPath()
	key, err := auth.LoadOrGenerateKey(path)
	if err != nil {
		return nil, fmt.Errorf("auth key %s: %w", path, err)
	}
	cfg.Auth.AccessTokenKey = key

	log.Info("Auth key ready",
		"path", path,
		"access_ttl", cfg.Auth.AccessTokenDuration,
		"refresh_ttl", cfg.Auth.RefreshTokenDuration)
	return AuthKey(key), nil
}

// ProvideTokenService issues and verifies session tokens.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)
	return auth.NewTokenService(key, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
}
