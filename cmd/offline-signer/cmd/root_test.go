package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offline-signer/internal/signer"
	"offline-signer/internal/signer/local"
	"offline-signer/internal/wallet"
	"offline-signer/pkg/errno"
	"offline-signer/pkg/keystore"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(NewRootCmd(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func newKeypair(t *testing.T) signer.Keypair {
	t.Helper()
	res := execute(t, "", "newwallet")
	require.Equal(t, 0, res.code, res.stdout)
	out := decode[walletOutput](t, res.stdout)
	return signer.Keypair{PrivateKey: out.PrivateKey, PublicKey: out.PublicKey}
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"unknown-command"}} {
		res := execute(t, "", args...)
		assert.Equal(t, 0, res.code)
		assert.Contains(t, res.stdout, "Usage:")
		assert.Contains(t, res.stdout, "payment")
	}
}

func TestNewWallet_PublicKeyRoundTrip(t *testing.T) {
	kp := newKeypair(t)
	assert.True(t, strings.HasPrefix(kp.PublicKey, "B62"))
	assert.True(t, strings.HasPrefix(kp.PrivateKey, "EK"))

	res := execute(t, "", "publickey", kp.PrivateKey)
	require.Equal(t, 0, res.code, res.stdout)
	out := decode[walletOutput](t, res.stdout)
	assert.Equal(t, kp.PublicKey, out.PublicKey)
	assert.Equal(t, kp.PrivateKey, out.PrivateKey)
}

func TestNewWallet_Mnemonic(t *testing.T) {
	res := execute(t, "", "newwallet", "--mnemonic")
	require.Equal(t, 0, res.code, res.stdout)
	out := decode[walletOutput](t, res.stdout)
	assert.Len(t, strings.Fields(out.Mnemonic), 24)
	assert.Equal(t, "m/44'/12586'/0'/0/0", out.DerivationPath)

	p, err := local.NewLocalSigner("mainnet")
	require.NoError(t, err)
	w, err := wallet.FromMnemonic(p, out.Mnemonic, "", out.DerivationPath)
	require.NoError(t, err)
	assert.Equal(t, out.PublicKey, w.PublicKey)
	assert.Equal(t, out.PrivateKey, w.PrivateKey)
}

func TestNewWallet_Keystore(t *testing.T) {
	t.Setenv("OFFLINE_SIGNER_WALLET_KEYSTORE_SCRYPT_N", "4096")

	res := execute(t, "secret\nwrong\nsecret\nsecret\n", "newwallet", "--keystore")
	require.Equal(t, 0, res.code, res.stdout)
	out := decode[walletOutput](t, res.stdout)
	assert.Empty(t, out.PrivateKey)
	require.NotNil(t, out.Keystore)
	assert.Equal(t, out.PublicKey, out.Keystore.Address)
	assert.Contains(t, res.stderr, "Passwords do not match.")

	secret, err := keystore.DecryptPrivateKey(out.Keystore, "secret")
	require.NoError(t, err)
	p, err := local.NewLocalSigner("mainnet")
	require.NoError(t, err)
	pub, err := p.DerivePublicKey(secret)
	require.NoError(t, err)
	assert.Equal(t, out.PublicKey, pub)
}

func TestPublicKey_Invalid(t *testing.T) {
	res := execute(t, "", "publickey", "EKnotavalidkey")
	assert.Equal(t, 1, res.code)

	out := decode[errorOutput](t, res.stdout)
	assert.Equal(t, errno.ErrInvalidPrivateKey.Code, out.Code)
	assert.Equal(t, errno.ErrInvalidPrivateKey.Message, out.Message)
	assert.NotContains(t, res.stdout, "EKnotavalidkey")
}

func TestPayment(t *testing.T) {
	sender := newKeypair(t)
	receiver := newKeypair(t)

	res := execute(t, "", "payment", sender.PrivateKey, receiver.PublicKey, "5.5", "0.01", "3", "test")
	require.Equal(t, 0, res.code, res.stdout)

	artifact := decode[signer.SignedArtifact](t, res.stdout)
	assert.Equal(t, sender.PublicKey, artifact.PublicKey)
	assert.Equal(t, "5500000000", artifact.Data.Amount)
	assert.Equal(t, "10000000", artifact.Data.Fee)
	assert.Equal(t, "3", artifact.Data.Nonce)
	assert.Equal(t, "test", artifact.Data.Memo)

	p, err := local.NewLocalSigner("mainnet")
	require.NoError(t, err)
	assert.NoError(t, p.Verify(&artifact))
}

func TestPayment_Errors(t *testing.T) {
	sender := newKeypair(t)
	receiver := newKeypair(t)

	tests := []struct {
		name string
		args []string
		want errno.Errno
	}{
		{"precision", []string{receiver.PublicKey, "0.0000000001", "0.01", "0"}, errno.ErrPrecision},
		{"amount", []string{receiver.PublicKey, "abc", "0.01", "0"}, errno.ErrInvalidAmount},
		{"address", []string{"XYZ123", "1", "0.01", "0"}, errno.ErrInvalidAddress},
		{"nonce", []string{receiver.PublicKey, "1", "0.01", "1.5"}, errno.ErrInvalidNonce},
		{"checksum", []string{"B62notarealaddress", "1", "0.01", "0"}, errno.ErrSigningFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"payment", sender.PrivateKey}, tt.args...)
			res := execute(t, "", args...)
			assert.Equal(t, 1, res.code)
			out := decode[errorOutput](t, res.stdout)
			assert.Equal(t, tt.want.Code, out.Code, out.Error)
			assert.NotContains(t, res.stdout, sender.PrivateKey)
		})
	}
}

func TestPayment_WrongArgCount(t *testing.T) {
	res := execute(t, "", "payment", "EK")
	assert.Equal(t, 1, res.code)
	out := decode[errorOutput](t, res.stdout)
	assert.Equal(t, errno.ErrUnexpected.Code, out.Code)
}

func TestDelegation(t *testing.T) {
	sender := newKeypair(t)
	validator := newKeypair(t)

	res := execute(t, "", "delegation", sender.PrivateKey, validator.PublicKey, "0.1", "9")
	require.Equal(t, 0, res.code, res.stdout)

	artifact := decode[signer.SignedArtifact](t, res.stdout)
	assert.Equal(t, validator.PublicKey, artifact.Data.To)
	assert.Equal(t, "100000000", artifact.Data.Fee)
	assert.Equal(t, "9", artifact.Data.Nonce)
	assert.Empty(t, artifact.Data.Amount)
	assert.Empty(t, artifact.Data.Memo)
}

func TestNetworkFlag(t *testing.T) {
	res := execute(t, "", "--network", "devnet", "newwallet")
	assert.Equal(t, 1, res.code)
	out := decode[errorOutput](t, res.stdout)
	assert.Contains(t, out.Error, "unknown network")
}

func TestSession(t *testing.T) {
	receiver := newKeypair(t)

	script := strings.Join([]string{"2", "", "1", "2", receiver.PublicKey, "0", "", "", "n"}, "\n") + "\n"
	res := execute(t, script, "session")
	require.Equal(t, 0, res.code, res.stderr)

	artifact := decode[signer.SignedArtifact](t, strings.TrimSpace(res.stdout))
	assert.Equal(t, "2000000000", artifact.Data.Amount)
	assert.Equal(t, "0", artifact.Data.Nonce)
	assert.Contains(t, res.stderr, "Wallet Public Address: "+artifact.PublicKey)
}

func TestSession_Cancelled(t *testing.T) {
	res := execute(t, "", "session")
	assert.Equal(t, 1, res.code)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "Operation cancelled")
}
