package keystore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKey = "EKEQpDAjj7dP3j7fQy4qBU7Kxns85wwq5xMn4zxdyQm83pEWzQ62"

func TestEncryptDecryptPrivateKey(t *testing.T) {
	password := "secure-password"

	// 1. Encrypt
	keyJSON, err := EncryptPrivateKey(testPrivateKey, "B62qexample", password, LightScryptN)
	require.NoError(t, err)
	assert.Equal(t, "aes-256-gcm", keyJSON.Crypto.Cipher)
	assert.Equal(t, LightScryptN, keyJSON.Crypto.KDFParams.N)
	assert.NotEmpty(t, keyJSON.Id)

	// 2. Decrypt with correct password
	plaintext, err := DecryptPrivateKey(keyJSON, password)
	require.NoError(t, err)
	assert.Equal(t, testPrivateKey, plaintext)

	// 3. Decrypt with wrong password
	_, err = DecryptPrivateKey(keyJSON, "wrong-password")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestDecryptPrivateKey_Unsupported(t *testing.T) {
	keyJSON, err := EncryptPrivateKey(testPrivateKey, "", "pw", LightScryptN)
	require.NoError(t, err)

	keyJSON.Crypto.KDF = "pbkdf2"
	_, err = DecryptPrivateKey(keyJSON, "pw")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestLoadFromFile(t *testing.T) {
	password := "123456"
	filename := filepath.Join(t.TempDir(), "wallet.json")

	keyJSON, err := EncryptPrivateKey(testPrivateKey, "", password, LightScryptN)
	require.NoError(t, err)
	data, err := json.MarshalIndent(keyJSON, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filename, data, 0600))

	loadedJSON, err := LoadFromFile(filename)
	require.NoError(t, err)
	assert.Equal(t, keyJSON.Id, loadedJSON.Id)

	decrypted, err := DecryptPrivateKey(loadedJSON, password)
	require.NoError(t, err)
	assert.Equal(t, testPrivateKey, decrypted)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
