package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offline-signer/internal/prompt"
	"offline-signer/internal/signer"
	"offline-signer/internal/signer/local"
	"offline-signer/pkg/errno"
)

type harness struct {
	orchestrator *Orchestrator
	session      *Session
	out          *bytes.Buffer
	prompts      *bytes.Buffer
}

func newHarness(t *testing.T, script ...string) *harness {
	t.Helper()
	p, err := local.NewLocalSigner("mainnet")
	require.NoError(t, err)

	s := New(nil, p, nil)
	out := &bytes.Buffer{}
	prompts := &bytes.Buffer{}
	term := prompt.NewTerminal(strings.NewReader(strings.Join(script, "")), prompts)

	return &harness{
		orchestrator: NewOrchestrator(s, term, out),
		session:      s,
		out:          out,
		prompts:      prompts,
	}
}

func (h *harness) artifacts(t *testing.T) []signer.SignedArtifact {
	t.Helper()
	var list []signer.SignedArtifact
	dec := json.NewDecoder(h.out)
	for {
		var a signer.SignedArtifact
		err := dec.Decode(&a)
		if errors.Is(err, io.EOF) {
			return list
		}
		require.NoError(t, err)
		list = append(list, a)
	}
}

func keypair(t *testing.T) signer.Keypair {
	t.Helper()
	p, err := local.NewLocalSigner("mainnet")
	require.NoError(t, err)
	kp, err := p.GenerateKeypair()
	require.NoError(t, err)
	return kp
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateStart, StateWalletAcquired, true},
		{StateStart, StateSigning, false},
		{StateStart, StateIdle, false},
		{StateWalletAcquired, StateSigning, true},
		{StateSigning, StateIdle, true},
		{StateSigning, StateDone, false},
		{StateIdle, StateSigning, true},
		{StateIdle, StateDone, true},
		{StateIdle, StateCancelled, true},
		{StateDone, StateSigning, false},
		{StateCancelled, StateStart, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
	assert.True(t, StateDone.Terminal())
	assert.False(t, StateIdle.Terminal())
}

func TestSigningRequiresWallet(t *testing.T) {
	h := newHarness(t, "1\n")
	err := h.orchestrator.signTransaction(context.Background())
	assert.True(t, errno.Is(err, errno.ErrUnexpected))
	assert.Equal(t, StateStart, h.orchestrator.State())
	assert.Empty(t, h.out.String())
}

func TestRun_CancelAtWalletSelection(t *testing.T) {
	h := newHarness(t)

	outcome, err := h.orchestrator.Run(context.Background())
	assert.True(t, errors.Is(err, errno.ErrCancelled))
	assert.Equal(t, StateCancelled, outcome.State)
	assert.Equal(t, 1, outcome.ExitCode())
	assert.Empty(t, h.out.String())
	assert.Contains(t, h.prompts.String(), "Operation cancelled")
}

func TestRun_CancelledContext(t *testing.T) {
	h := newHarness(t, "2\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := h.orchestrator.Run(ctx)
	assert.True(t, errors.Is(err, errno.ErrCancelled))
	assert.Equal(t, 1, outcome.ExitCode())
	assert.Nil(t, h.session.Wallet)
}

func TestRun_BadPrivateKey(t *testing.T) {
	h := newHarness(t, "1\n", "EKnotakey\n")

	outcome, err := h.orchestrator.Run(context.Background())
	assert.True(t, errors.Is(err, errno.ErrCancelled))
	assert.Equal(t, 1, outcome.ExitCode())
	assert.Nil(t, h.session.Wallet)
	assert.False(t, h.session.Nonces.Seeded())
	assert.Contains(t, h.prompts.String(), errno.ErrInvalidPrivateKey.Message)
	assert.NotContains(t, h.prompts.String(), "Wallet Public Address")
}

func TestRun_PaymentScenario(t *testing.T) {
	sender := keypair(t)
	receiver := keypair(t)

	h := newHarness(t,
		"1\n", sender.PrivateKey+"\n", "\n", // wallet, hide private key
		"1\n", "1.0000000001\n", "5.5\n", receiver.PublicKey+"\n", "3\n", "\n", "test\n",
		"n\n",
	)

	outcome, err := h.orchestrator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, outcome.State)
	assert.Equal(t, 0, outcome.ExitCode())
	assert.Equal(t, 1, outcome.Signed)

	list := h.artifacts(t)
	require.Len(t, list, 1)
	data := list[0].Data
	assert.Equal(t, sender.PublicKey, data.From)
	assert.Equal(t, receiver.PublicKey, data.To)
	assert.Equal(t, "5500000000", data.Amount)
	assert.Equal(t, "10000000", data.Fee)
	assert.Equal(t, "3", data.Nonce)
	assert.Equal(t, "test", data.Memo)

	assert.Equal(t, "4", h.session.Nonces.Suggest())
	assert.Contains(t, h.prompts.String(), errno.ErrPrecision.Message)
	assert.NotContains(t, h.prompts.String(), sender.PrivateKey[4:])
}

func TestRun_ShowPrivateKey(t *testing.T) {
	sender := keypair(t)
	h := newHarness(t, "1\n", sender.PrivateKey+"\n", "y\n")

	_, err := h.orchestrator.Run(context.Background())
	assert.True(t, errors.Is(err, errno.ErrCancelled))
	assert.Contains(t, h.prompts.String(), "Wallet Private Key: "+sender.PrivateKey)
	assert.Contains(t, h.prompts.String(), "Keep your Private Key secure")
}

func TestRun_NonceAdvancesWithDefaults(t *testing.T) {
	validator := keypair(t)
	delegate := func(nonce, another string) []string {
		return []string{"2\n", validator.PublicKey + "\n", nonce + "\n", "\n", "\n", another + "\n"}
	}

	script := []string{"2\n", "\n"} // new wallet
	script = append(script, delegate("7", "y")...)
	script = append(script, delegate("", "y")...)
	script = append(script, delegate("", "n")...)
	h := newHarness(t, script...)

	outcome, err := h.orchestrator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Signed)

	list := h.artifacts(t)
	require.Len(t, list, 3)
	for i, want := range []string{"7", "8", "9"} {
		assert.Equal(t, want, list[i].Data.Nonce)
		assert.Empty(t, list[i].Data.Amount)
		assert.Equal(t, h.session.Wallet.PublicKey, list[i].PublicKey)
	}
	assert.Equal(t, "10", h.session.Nonces.Suggest())
}

func TestRun_SigningFailureReturnsToIdle(t *testing.T) {
	receiver := keypair(t)
	memo := strings.Repeat("m", local.MemoMaxBytes+1)

	h := newHarness(t,
		"2\n", "\n",
		"1\n", "1\n", receiver.PublicKey+"\n", "0\n", "\n", memo+"\n",
		"n\n",
	)

	outcome, err := h.orchestrator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, outcome.State)
	assert.Equal(t, 0, outcome.Signed)
	assert.Empty(t, h.artifacts(t))
	assert.False(t, h.session.Nonces.Seeded())
	assert.Contains(t, h.prompts.String(), errno.ErrSigningFailure.Message)

	summary, err := h.session.Metrics.Summary()
	require.NoError(t, err)
	assert.Equal(t, float64(1), summary["signer_failures_total{code=30401}"])
}

func TestRun_EOFAtSignAnother(t *testing.T) {
	receiver := keypair(t)
	h := newHarness(t,
		"2\n", "\n",
		"2\n", receiver.PublicKey+"\n", "1\n", "\n", "\n",
	)

	outcome, err := h.orchestrator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, outcome.State)
	assert.Len(t, h.artifacts(t), 1)
}

func TestRun_MnemonicWallet(t *testing.T) {
	phrase := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	h := newHarness(t, "3\n", "not a phrase\n", phrase+"\n", "\n", "\n")

	_, err := h.orchestrator.Run(context.Background())
	assert.True(t, errors.Is(err, errno.ErrCancelled))
	require.NotNil(t, h.session.Wallet)
	assert.True(t, strings.HasPrefix(h.session.Wallet.PublicKey, "B62"))
	assert.Equal(t, StateCancelled, h.orchestrator.State())
}

func TestRun_EchoesTransaction(t *testing.T) {
	receiver := keypair(t)
	h := newHarness(t,
		"2\n", "\n",
		"1\n", "5.5\n", receiver.PublicKey+"\n", "3\n", "\n", "\n",
		"n\n",
	)

	_, err := h.orchestrator.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, h.prompts.String(), "Payment 5.5 to "+receiver.PublicKey+", fee 0.01, nonce 3")
}

func TestRun_MemoSignedAsEntered(t *testing.T) {
	receiver := keypair(t)
	h := newHarness(t,
		"2\n", "\n",
		"2\n", receiver.PublicKey+"\n", "1\n", "\n", " gm \n",
		"n\n",
	)

	_, err := h.orchestrator.Run(context.Background())
	require.NoError(t, err)

	list := h.artifacts(t)
	require.Len(t, list, 1)
	assert.Equal(t, " gm ", list[0].Data.Memo)
}
