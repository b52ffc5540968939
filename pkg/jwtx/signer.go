package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Supported JWT signing algorithms
const (
	AlgorithmES256 = "ES256"
	AlgorithmEdDSA = "EdDSA"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Public() crypto.PublicKey
	Sign(Claims) (string, error)
}

type keySigner struct {
	kid    string
	key    crypto.Signer
	method jwt.SigningMethod
}

// NewSigner wraps an Ed25519 or P-256 private key. The kid is derived from
// the public key so a key loaded from disk keeps the same kid across restarts.
func NewSigner(key crypto.Signer) (Signer, error) {
	var method jwt.SigningMethod
	switch key.(type) {
	case ed25519.PrivateKey:
		method = jwt.SigningMethodEdDSA
	case *ecdsa.PrivateKey:
		method = jwt.SigningMethodES256
	default:
		return nil, fmt.Errorf("jwtx: unsupported signing key %T", key)
	}

	kid, err := keyID(key.Public())
	if err != nil {
		return nil, err
	}

	return &keySigner{kid: kid, key: key, method: method}, nil
}

func (s *keySigner) Alg() string              { return s.method.Alg() }
func (s *keySigner) KID() string              { return s.kid }
func (s *keySigner) Public() crypto.PublicKey { return s.key.Public() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *keySigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(s.method, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func keyID(pub crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("jwtx: marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return base64.RawURLEncoding.EncodeToString(sum[:12]), nil
}
