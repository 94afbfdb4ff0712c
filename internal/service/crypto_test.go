package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastcallsw/trackeats/internal/service"
	"github.com/lastcallsw/trackeats/internal/testhelpers"
)

func TestCipherRoundTrip(t *testing.T) {
	cipher, err := service.NewCipher(testhelpers.TestEmailKey)
	require.NoError(t, err)

	blob, err := cipher.Encrypt("alice@example.com")
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "alice@example.com")

	plaintext, err := cipher.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", plaintext)
}

func TestCipherNonceVaries(t *testing.T) {
	cipher, err := service.NewCipher(testhelpers.TestEmailKey)
	require.NoError(t, err)

	a, err := cipher.Encrypt("alice@example.com")
	require.NoError(t, err)
	b, err := cipher.Encrypt("alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewCipherRejectsBadKeys(t *testing.T) {
	_, err := service.NewCipher("not hex")
	assert.Error(t, err)

	_, err = service.NewCipher("00010203")
	assert.Error(t, err, "short keys are refused")
}

func TestDecryptRejectsTampering(t *testing.T) {
	cipher, err := service.NewCipher(testhelpers.TestEmailKey)
	require.NoError(t, err)

	blob, err := cipher.Encrypt("alice@example.com")
	require.NoError(t, err)
	blob[len(blob)-1] ^= 0xff

	_, err = cipher.Decrypt(blob)
	assert.Error(t, err)

	_, err = cipher.Decrypt([]byte{0x01, 0x02})
	assert.Error(t, err)
}
