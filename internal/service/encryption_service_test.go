package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Valid 32-byte key in hex (64 chars)
const testAESKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestAESEncryptionService_NewRejectsBadKeys(t *testing.T) {
	_, err := NewAESEncryptionService("not-hex")
	assert.Error(t, err)

	// Valid hex but only 16 bytes
	_, err = NewAESEncryptionService("0123456789abcdef0123456789abcdef")
	assert.Error(t, err)
}

func TestAESEncryptionService_WalletAddressRoundTrip(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	address := "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"
	ciphertext, err := svc.Encrypt(address)
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, address)

	decrypted, err := svc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, address, decrypted)
}

func TestAESEncryptionService_DifferentNonces(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	address := "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"
	c1, err := svc.Encrypt(address)
	require.NoError(t, err)
	c2, err := svc.Encrypt(address)
	require.NoError(t, err)

	// Equal ciphertexts would let anyone correlate withdrawal targets.
	assert.NotEqual(t, c1, c2)

	d1, _ := svc.Decrypt(c1)
	d2, _ := svc.Decrypt(c2)
	assert.Equal(t, d1, d2)
}

func TestAESEncryptionService_TamperedCiphertext(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	ciphertext, err := svc.Encrypt("bc1qtampered")
	require.NoError(t, err)

	tampered := ciphertext[:len(ciphertext)-2] + "ff"
	_, err = svc.Decrypt(tampered)
	assert.Error(t, err, "GCM must reject a flipped tag")
}

func TestAESEncryptionService_WrongKey(t *testing.T) {
	svc1, _ := NewAESEncryptionService(testAESKey)
	otherKey := "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"
	svc2, _ := NewAESEncryptionService(otherKey)

	ciphertext, err := svc1.Encrypt("bc1qwrongkey")
	require.NoError(t, err)

	_, err = svc2.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestAESEncryptionService_InvalidCiphertext(t *testing.T) {
	svc, _ := NewAESEncryptionService(testAESKey)

	_, err := svc.Decrypt("not-hex-at-all!!!")
	assert.Error(t, err)

	// Shorter than the GCM nonce
	_, err = svc.Decrypt("abcdef")
	assert.Error(t, err)
}
