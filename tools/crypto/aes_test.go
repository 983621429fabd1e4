package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	enc, err := c.Encrypt("hello, 世界")
	require.NoError(t, err)
	assert.NotEqual(t, "hello, 世界", enc)

	plain, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "hello, 世界", plain)
}

func TestNonceMakesCiphertextUnique(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	a, err := c.Encrypt("same plaintext")
	require.NoError(t, err)
	b, err := c.Encrypt("same plaintext")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRejectsBadKeyLength(t *testing.T) {
	_, err := NewCipher([]byte("short"))
	assert.Error(t, err)
}

func TestDecryptRejectsTampering(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	enc, err := c.Encrypt("secret")
	require.NoError(t, err)

	_, err = c.Decrypt("@@@not base64@@@")
	assert.Error(t, err)

	_, err = c.Decrypt(enc[:len(enc)-8])
	assert.Error(t, err)

	other, err := NewCipher(bytes.Repeat([]byte{0x43}, 32))
	require.NoError(t, err)
	_, err = other.Decrypt(enc)
	assert.Error(t, err, "decrypting with a different key must fail")
}
