package tx

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"offline-signer/internal/nonce"
	"offline-signer/internal/signer"
	"offline-signer/internal/wallet"
	"offline-signer/pkg/errno"
	"offline-signer/pkg/monitor"
)

// Dispatcher 按 Intent 类型路由到签名原语，是唯一接触私钥的地方
type Dispatcher struct {
	primitive signer.Primitive
	logger    *zap.Logger
	metrics   *monitor.SessionMetrics
}

// NewDispatcher logger 和 metrics 可以为 nil
func NewDispatcher(p signer.Primitive, logger *zap.Logger, metrics *monitor.SessionMetrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{primitive: p, logger: logger, metrics: metrics}
}

// Sign 签名 intent。成功后把 tracker 推进到 intent.Nonce()+1；失败时 tracker 不变。
func (d *Dispatcher) Sign(intent Intent, w *wallet.Identity, tracker *nonce.Tracker) (*signer.SignedArtifact, error) {
	artifact, err := d.sign(intent, w)
	if err != nil {
		d.fail(err)
		return nil, err
	}

	if tracker != nil {
		tracker.Seed(intent.Nonce())
		if err := tracker.Advance(); err != nil {
			return nil, err
		}
	}

	if d.metrics != nil {
		d.metrics.SignedTotal.WithLabelValues(string(intent.Kind())).Inc()
	}
	d.logger.Info("transaction signed",
		zap.String("kind", string(intent.Kind())),
		zap.String("from", intent.From()),
		zap.String("to", intent.To()),
		zap.Uint32("nonce", intent.Nonce()),
	)
	return artifact, nil
}

func (d *Dispatcher) sign(intent Intent, w *wallet.Identity) (*signer.SignedArtifact, error) {
	if intent == nil {
		return nil, errno.ErrSigningFailure.Wrap("no transaction to sign")
	}
	if !w.CanSign() {
		return nil, errno.ErrSigningFailure.Wrap("wallet has no private key")
	}
	if intent.From() != w.PublicKey {
		return nil, errno.ErrSigningFailure.Wrap("transaction sender does not match the wallet")
	}
	// 签名后 tracker 无法推进的 nonce 直接拒绝，避免产出签名又丢弃
	if !nonce.HasSuccessor(intent.Nonce()) {
		return nil, nonce.ErrExhausted
	}

	var (
		artifact *signer.SignedArtifact
		err      error
	)
	switch it := intent.(type) {
	case *Payment:
		artifact, err = d.primitive.SignPayment(signer.PaymentPayload{
			From:   it.From(),
			To:     it.To(),
			Amount: it.Amount(),
			Fee:    it.Fee(),
			Nonce:  it.Nonce(),
			Memo:   it.Memo(),
		}, w.PrivateKey)
	case *Delegation:
		artifact, err = d.primitive.SignStakeDelegation(signer.DelegationPayload{
			From:  it.From(),
			To:    it.To(),
			Fee:   it.Fee(),
			Nonce: it.Nonce(),
			Memo:  it.Memo(),
		}, w.PrivateKey)
	default:
		return nil, errno.ErrSigningFailure.Wrapf("unsupported transaction kind %q", intent.Kind())
	}
	if err != nil {
		return nil, errno.ErrSigningFailure.Wrap(redact(err.Error(), w.PrivateKey))
	}
	if artifact == nil {
		return nil, errno.ErrSigningFailure.Wrap("signer returned no result")
	}

	if v, ok := d.primitive.(signer.Verifier); ok {
		if err := v.Verify(artifact); err != nil {
			return nil, errno.ErrSigningFailure.Wrapf("self-check: %s", redact(err.Error(), w.PrivateKey))
		}
	}
	return artifact, nil
}

func (d *Dispatcher) fail(err error) {
	code, msg := errno.Decode(err)
	if d.metrics != nil {
		d.metrics.FailuresTotal.WithLabelValues(strconv.Itoa(code)).Inc()
	}
	d.logger.Warn("signing failed", zap.Int("code", code), zap.String("error", msg))
}

func redact(msg, secret string) string {
	if secret == "" {
		return msg
	}
	return strings.ReplaceAll(msg, secret, "[redacted]")
}
