package solana

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/blocto/solana-go-sdk/types"
)

const identityVersion = 1

// IdentityEntry is one stored keeper identity. The private key is
// AES-256-GCM encrypted under a passphrase-derived key.
type IdentityEntry struct {
	Address      string    `json:"address"`
	EncryptedKey string    `json:"encrypted_key"`
	Role         string    `json:"role"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
}

// Keystore generates and stores keeper identities, one JSON file per
// address under the keystore directory.
type Keystore struct {
	dir string
}

// NewKeystore returns a keystore rooted at dir. An empty dir falls back
// to KEYSTORE_DIR, then to configs/keystore.
func NewKeystore(dir string) *Keystore {
	if dir == "" {
		dir = os.Getenv("KEYSTORE_DIR")
	}
	if dir == "" {
		dir = "configs/keystore"
	}
	return &Keystore{dir: dir}
}

// GenerateIdentity creates a fresh key pair, encrypts the private key
// under the passphrase, and writes the entry. The base58 address doubles
// as the filename and is returned for registration.
func (ks *Keystore) GenerateIdentity(role, passphrase string) (string, error) {
	if passphrase == "" {
		return "", errors.New("keystore passphrase is empty")
	}

	account := types.NewAccount()
	encrypted, err := encryptKey(account.PrivateKey, passphrase)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt private key: %w", err)
	}

	address := account.PublicKey.ToBase58()
	entry := IdentityEntry{
		Address:      address,
		EncryptedKey: encrypted,
		Role:         role,
		Version:      identityVersion,
		CreatedAt:    time.Now().UTC(),
	}

	jsonData, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal keystore entry: %w", err)
	}

	if err := os.MkdirAll(ks.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create keystore directory: %w", err)
	}
	if err := os.WriteFile(ks.entryPath(address), jsonData, 0600); err != nil {
		return "", fmt.Errorf("failed to write keystore entry: %w", err)
	}

	return address, nil
}

// LoadIdentity reads an entry back and decrypts the key pair.
func (ks *Keystore) LoadIdentity(address, passphrase string) (*types.Account, error) {
	data, err := os.ReadFile(ks.entryPath(address))
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore entry: %w", err)
	}

	var entry IdentityEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keystore entry: %w", err)
	}
	if entry.Address != address {
		return nil, fmt.Errorf("address mismatch: expected %s, got %s", address, entry.Address)
	}

	privateKey, err := decryptKey(entry.EncryptedKey, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt private key: %w", err)
	}

	account, err := types.AccountFromBytes(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild account from private key: %w", err)
	}
	return &account, nil
}

// HasIdentity reports whether an entry exists for the address.
func (ks *Keystore) HasIdentity(address string) bool {
	_, err := os.Stat(ks.entryPath(address))
	return err == nil
}

func (ks *Keystore) entryPath(address string) string {
	return filepath.Join(ks.dir, address+".json")
}

// encryptKey encrypts a private key with AES-256-GCM, prepending the
// nonce to the ciphertext before base64 encoding.
func encryptKey(privateKey []byte, passphrase string) (string, error) {
	block, err := aes.NewCipher(deriveKey(passphrase))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, privateKey, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decryptKey reverses encryptKey.
func decryptKey(encoded, passphrase string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(passphrase))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce := ciphertext[:gcm.NonceSize()]
	ciphertext = ciphertext[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// deriveKey creates a 32-byte AES key from a passphrase using SHA-256
func deriveKey(passphrase string) []byte {
	hash := sha256.Sum256([]byte(passphrase))
	return hash[:]
}
