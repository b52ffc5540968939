package app

import (
	"fmt"
	"log/slog"

	"github.com/bwirakes/temu-v2/pkg/cryptox"
	"github.com/bwirakes/temu-v2/pkg/jwtx"
)

// InitSessionKeys loads the session signing key.
//
// With SESSION_KEY_FILE set, the key is read from that file, which is created
// with a fresh key of SESSION_ALGORITHM on first start. Without it a key is
// generated in memory and sessions do not survive a restart.
func InitSessionKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Algorithm: cfg.SessionAlgorithm,
		Issuer:    cfg.SessionIssuer,
		Leeway:    cfg.SessionLeeway,
	}

	if cfg.SessionKeyFile != "" {
		pemKey, err := cryptox.LoadOrCreateFile(cfg.SessionKeyFile, func() ([]byte, error) {
			return jwtx.GenerateKeyPEM(cfg.SessionAlgorithm)
		})
		if err != nil {
			return nil, fmt.Errorf("load session key: %w", err)
		}
		opts.PrivateKeyPEM = pemKey
	}

	km, err := jwtx.NewKeyManager(opts)
	if err != nil {
		return nil, err
	}

	if cfg.SessionKeyFile == "" {
		logger.Warn("using an ephemeral session key, all sessions end on restart",
			"algorithm", km.Signer.Alg(),
		)
	} else {
		logger.Info("session key loaded",
			"algorithm", km.Signer.Alg(),
			"kid", km.Signer.KID(),
			"path", cfg.SessionKeyFile,
		)
	}
	return km, nil
}
