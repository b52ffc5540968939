package jwtx

import (
	"fmt"
	"time"

	"github.com/bwirakes/temu-v2/pkg/cryptox"
)

// KeyManager bundles the session signer with a verifier for the same key.
type KeyManager struct {
	Signer   Signer
	Verifier Verifier
	KeySet   *KeySet
}

// KeyManagerOptions configures NewKeyManager.
type KeyManagerOptions struct {
	// Algorithm is used only when PrivateKeyPEM is empty: "EdDSA" or "ES256".
	Algorithm string

	// PrivateKeyPEM is a PKCS8 key. Empty means generate an ephemeral key,
	// which invalidates every session on restart.
	PrivateKeyPEM []byte

	Issuer string
	Leeway time.Duration
}

// NewKeyManager loads or generates the signing key and wires the verifier.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	pemKey := opts.PrivateKeyPEM
	if len(pemKey) == 0 {
		var err error
		pemKey, err = GenerateKeyPEM(opts.Algorithm)
		if err != nil {
			return nil, err
		}
	}

	key, err := cryptox.ParsePrivateKeyPEM(pemKey)
	if err != nil {
		return nil, err
	}
	signer, err := NewSigner(key)
	if err != nil {
		return nil, err
	}

	keys := NewKeySet()
	keys.AddSigner(signer)

	return &KeyManager{
		Signer:   signer,
		Verifier: NewVerifier(keys, opts.Issuer, opts.Leeway, nil),
		KeySet:   keys,
	}, nil
}

// GenerateKeyPEM returns a fresh PKCS8 key for the algorithm.
func GenerateKeyPEM(algorithm string) ([]byte, error) {
	switch algorithm {
	case AlgorithmEdDSA, "":
		return cryptox.GenerateEd25519Key()
	case AlgorithmES256:
		return cryptox.GenerateES256Key()
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: EdDSA, ES256)", algorithm)
	}
}

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}
