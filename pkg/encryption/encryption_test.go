package encryption

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, KeySize)
}

func TestCipher_RoundTripAllTypes(t *testing.T) {
	for _, ct := range []CipherType{CipherChaCha20Poly1305, CipherXChaCha20Poly1305, CipherAES256GCM} {
		t.Run(string(ct), func(t *testing.T) {
			c, err := NewCipher(ct, testKey(1))
			require.NoError(t, err)
			require.Equal(t, ct, c.Type())

			a, err := c.Encrypt([]byte("refresh-token"))
			require.NoError(t, err)
			b, err := c.Encrypt([]byte("refresh-token"))
			require.NoError(t, err)
			require.NotEqual(t, a, b, "nonces must differ")

			got, err := c.Decrypt(a)
			require.NoError(t, err)
			require.Equal(t, "refresh-token", string(got))

			a[len(a)-1] ^= 0xff
			_, err = c.Decrypt(a)
			require.Error(t, err)
			_, err = c.Decrypt([]byte{1, 2})
			require.Error(t, err)
		})
	}
}

func TestNewCipher_Rejects(t *testing.T) {
	_, err := NewCipher(CipherChaCha20Poly1305, []byte("short"))
	require.Error(t, err)
	_, err = NewCipher("rot13", testKey(1))
	require.Error(t, err)
}

func TestParseKey(t *testing.T) {
	key := testKey(7)
	for _, s := range []string{
		base64.StdEncoding.EncodeToString(key),
		base64.URLEncoding.EncodeToString(key),
		"  " + hex.EncodeToString(key) + "\n",
	} {
		got, err := ParseKey(s)
		require.NoError(t, err, s)
		require.Equal(t, key, got)
	}

	_, err := ParseKey("too-short")
	require.Error(t, err)
}

type token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func TestSealOpen(t *testing.T) {
	m, err := NewManagerFromKey(base64.StdEncoding.EncodeToString(testKey(3)))
	require.NoError(t, err)

	sealed, err := Seal(m, token{AccessToken: "a", RefreshToken: "r"})
	require.NoError(t, err)
	require.True(t, IsSealed(sealed))
	require.NotContains(t, string(sealed), "refresh")

	got, err := Open[token](m, sealed)
	require.NoError(t, err)
	require.Equal(t, token{"a", "r"}, got)

	other, err := NewManagerFromKey(hex.EncodeToString(testKey(4)))
	require.NoError(t, err)
	_, err = Open[token](other, sealed)
	require.Error(t, err)

	_, err = Open[token](m, []byte(`{"access_token":"plain"}`))
	require.ErrorIs(t, err, ErrNotSealed)
	require.False(t, IsSealed([]byte(`{}`)))
}

func TestOpen_AcceptsOtherCipherWithSameKey(t *testing.T) {
	key := testKey(5)
	aes, err := NewCipher(CipherAES256GCM, key)
	require.NoError(t, err)
	sealed, err := Seal(NewManager(aes, key), "secret")
	require.NoError(t, err)

	m, err := NewManagerFromKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	got, err := Open[string](m, sealed)
	require.NoError(t, err)
	require.Equal(t, "secret", got)
}
