package app

import (
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
)

// InitAuthKeys creates the KeyManager that signs access tokens.
//
// Key sources:
//   - AUTH_SIGNING_KEY_FILE: Ed25519 PKCS8 PEM files shared by every
//     instance. Tokens survive restarts and are valid across replicas.
//   - otherwise: AUTH_SIGNING_KEYS keys generated in memory. All access
//     tokens become invalid on restart; refresh tokens are unaffected.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	keys := make([]ed25519.PrivateKey, 0, len(cfg.SigningKeyFiles))
	for _, path := range cfg.SigningKeyFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read signing key %s: %w", path, err)
		}
		key, err := cryptox.ParseEd25519Key(data)
		if err != nil {
			return nil, fmt.Errorf("signing key %s: %w", path, err)
		}
		keys = append(keys, key)
	}

	keyManager, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Issuer:      cfg.Issuer,
		Audience:    cfg.Audience,
		PrivateKeys: keys,
		NumKeys:     cfg.NumKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	if len(keys) > 0 {
		logger.Info("signing keys loaded", "num_keys", keyManager.NumSigners(), "issuer", cfg.Issuer)
	} else {
		logger.Info("generated ephemeral signing keys", "num_keys", keyManager.NumSigners(), "issuer", cfg.Issuer)
		logger.Warn("access tokens issued before this start are now invalid")
	}
	return keyManager, nil
}
