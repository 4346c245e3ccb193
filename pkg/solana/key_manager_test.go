package solana

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeystore(t *testing.T) {
	ks := NewKeystore(t.TempDir())

	// Test identity generation
	t.Run("Generate Identity", func(t *testing.T) {
		address, err := ks.GenerateIdentity("keeper", "test-passphrase")
		require.NoError(t, err)
		assert.NotEmpty(t, address)
		assert.True(t, ks.HasIdentity(address))
	})

	// Test the stored entry shape
	t.Run("Entry File Contents", func(t *testing.T) {
		address, err := ks.GenerateIdentity("keeper", "test-passphrase")
		require.NoError(t, err)

		data, err := os.ReadFile(ks.entryPath(address))
		require.NoError(t, err)

		var entry IdentityEntry
		require.NoError(t, json.Unmarshal(data, &entry))
		assert.Equal(t, address, entry.Address)
		assert.Equal(t, "keeper", entry.Role)
		assert.Equal(t, identityVersion, entry.Version)
		assert.NotEmpty(t, entry.EncryptedKey)
		assert.False(t, entry.CreatedAt.IsZero())
	})

	// Test loading round trip
	t.Run("Load Identity", func(t *testing.T) {
		address, err := ks.GenerateIdentity("keeper", "test-passphrase")
		require.NoError(t, err)

		account, err := ks.LoadIdentity(address, "test-passphrase")
		require.NoError(t, err)
		assert.Equal(t, address, account.PublicKey.ToBase58())
		assert.Equal(t, 64, len(account.PrivateKey), "Private key should be 64 bytes")
	})

	// Test encryption round trip at the primitive level
	t.Run("Encrypt and Decrypt", func(t *testing.T) {
		privateKey := make([]byte, 64)
		for i := range privateKey {
			privateKey[i] = byte(i)
		}

		encrypted, err := encryptKey(privateKey, "test-passphrase")
		require.NoError(t, err)
		assert.NotEmpty(t, encrypted)

		decrypted, err := decryptKey(encrypted, "test-passphrase")
		require.NoError(t, err)
		assert.True(t, bytes.Equal(privateKey, decrypted), "Decrypted private key should match original")
	})

	// Test error cases
	t.Run("Error Cases", func(t *testing.T) {
		// Wrong passphrase
		address, err := ks.GenerateIdentity("keeper", "passphrase1")
		require.NoError(t, err)

		_, err = ks.LoadIdentity(address, "passphrase2")
		assert.Error(t, err)

		// Missing entry
		_, err = ks.LoadIdentity("nonexistent-address", "passphrase1")
		assert.Error(t, err)
		assert.False(t, ks.HasIdentity("nonexistent-address"))

		// Empty passphrase is refused
		_, err = ks.GenerateIdentity("keeper", "")
		assert.Error(t, err)
	})

	// Test generated addresses are unique
	t.Run("Multiple Identities", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 10; i++ {
			address, err := ks.GenerateIdentity("keeper", "test-passphrase")
			require.NoError(t, err)
			assert.False(t, seen[address], "Generated duplicate address")
			seen[address] = true
		}
	})
}
