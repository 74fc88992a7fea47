package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := EncryptSecret("broker-api-secret", "correct horse")
	require.NoError(t, err)

	secret, err := DecryptSecret(blob, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "broker-api-secret", secret)
}

func TestDecryptWrongPassword(t *testing.T) {
	blob, err := EncryptSecret("broker-api-secret", "right")
	require.NoError(t, err)

	_, err = DecryptSecret(blob, "wrong")
	assert.Error(t, err)
}

func TestEncryptProducesUniqueBlobs(t *testing.T) {
	a, err := EncryptSecret("same secret", "pw")
	require.NoError(t, err)
	b, err := EncryptSecret("same secret", "pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "salt and nonce must be fresh per encryption")
}

func TestEncryptRejectsEmptyInputs(t *testing.T) {
	_, err := EncryptSecret("", "pw")
	assert.Error(t, err)

	_, err = EncryptSecret("secret", "")
	assert.Error(t, err)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := DecryptSecret([]byte("not json"), "pw")
	assert.Error(t, err)

	_, err = DecryptSecret([]byte(`{"version": 99}`), "pw")
	assert.Error(t, err)
}

func TestLoadSecretPrefersRaw(t *testing.T) {
	secret, err := LoadSecret(SecretConfig{
		RawSecret:     "plain",
		EncryptedPath: "/does/not/exist",
	})
	require.NoError(t, err)
	assert.Equal(t, "plain", secret)
}

func TestLoadSecretFromEncryptedFile(t *testing.T) {
	blob, err := EncryptSecret("file-secret", "pw")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "secret.enc")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	secret, err := LoadSecret(SecretConfig{EncryptedPath: path, Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "file-secret", secret)
}

func TestLoadSecretNoSource(t *testing.T) {
	_, err := LoadSecret(SecretConfig{})
	assert.Error(t, err)
}
