package cryptox

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseKeys(t *testing.T) {
	t.Run("ed25519", func(t *testing.T) {
		pemKey, err := GenerateEd25519Key()
		require.NoError(t, err)

		key, err := ParsePrivateKeyPEM(pemKey)
		require.NoError(t, err)
		_, ok := key.(ed25519.PrivateKey)
		require.True(t, ok)
	})

	t.Run("es256", func(t *testing.T) {
		pemKey, err := GenerateES256Key()
		require.NoError(t, err)

		key, err := ParsePrivateKeyPEM(pemKey)
		require.NoError(t, err)
		_, ok := key.(*ecdsa.PrivateKey)
		require.True(t, ok)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParsePrivateKeyPEM([]byte("not a pem"))
		require.Error(t, err)
	})
}
