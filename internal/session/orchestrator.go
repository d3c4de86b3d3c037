package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"offline-signer/internal/prompt"
	"offline-signer/internal/signer"
	"offline-signer/internal/tx"
	"offline-signer/internal/wallet"
	"offline-signer/pkg/bip39"
	"offline-signer/pkg/errno"
	"offline-signer/pkg/units"
	"offline-signer/pkg/validator"
)

const (
	walletKey      = "key"
	walletNew      = "new"
	walletMnemonic = "mnemonic"
	walletKeystore = "keystore"

	kindPay   = "pay"
	kindStake = "stake"
)

// Outcome 会话结束时的结果
type Outcome struct {
	State  State
	Signed int
}

// ExitCode 正常结束为 0，取消或出错为 1
func (o Outcome) ExitCode() int {
	if o.State == StateDone {
		return 0
	}
	return 1
}

// Orchestrator 驱动会话状态机
type Orchestrator struct {
	session  *Session
	prompter prompt.Prompter
	out      io.Writer
	state    State
	signed   int
}

// NewOrchestrator out 接收签名结果 JSON
func NewOrchestrator(s *Session, p prompt.Prompter, out io.Writer) *Orchestrator {
	return &Orchestrator{session: s, prompter: p, out: out, state: StateStart}
}

// State 当前状态
func (o *Orchestrator) State() State {
	return o.state
}

func (o *Orchestrator) transition(to State) error {
	if !o.state.CanTransition(to) {
		return errno.ErrUnexpected.Wrapf("invalid session transition %s -> %s", o.state, to)
	}
	o.session.Logger.Debug("session state", zap.Stringer("from", o.state), zap.Stringer("to", to))
	o.state = to
	return nil
}

// Run 运行整个会话直到 Done 或 Cancelled
func (o *Orchestrator) Run(ctx context.Context) (Outcome, error) {
	defer o.summary()

	if err := o.acquireWallet(ctx); err != nil {
		return o.abort(err)
	}

	for {
		if err := o.signTransaction(ctx); err != nil {
			return o.abort(err)
		}

		another, err := o.prompter.Confirm(ctx, "Sign another transaction?", false)
		if err != nil {
			// 输入流结束视为不再签名；Ctrl-C 仍然是取消
			if !errno.Is(err, errno.ErrCancelled) || ctx.Err() != nil {
				return o.abort(err)
			}
			another = false
		}
		if !another {
			break
		}
	}

	if err := o.transition(StateDone); err != nil {
		return o.abort(err)
	}
	o.prompter.Info("Copy output JSON via a USB stick and broadcast it on your online computer.")
	return Outcome{State: o.state, Signed: o.signed}, nil
}

func (o *Orchestrator) abort(err error) (Outcome, error) {
	if errno.Is(err, errno.ErrCancelled) {
		o.state = StateCancelled
		o.prompter.Warn(errno.ErrCancelled.Message)
		return Outcome{State: o.state, Signed: o.signed}, err
	}
	o.session.Logger.Error("session aborted", zap.Error(err))
	return Outcome{State: o.state, Signed: o.signed}, err
}

func (o *Orchestrator) summary() {
	summary, err := o.session.Metrics.Summary()
	if err != nil {
		o.session.Logger.Warn("gather session metrics", zap.Error(err))
		return
	}
	o.session.Logger.Info("session finished",
		zap.Stringer("state", o.state),
		zap.Int("signed", o.signed),
		zap.Any("metrics", summary),
	)
}

// --- wallet ---

func (o *Orchestrator) acquireWallet(ctx context.Context) error {
	options := []prompt.Option{
		{Value: walletKey, Label: "Enter a private key"},
		{Value: walletNew, Label: "Create a new wallet"},
	}
	if _, ok := o.session.Primitive.(wallet.KeyEncoder); ok {
		options = append(options, prompt.Option{Value: walletMnemonic, Label: "Restore from recovery phrase"})
	}
	options = append(options, prompt.Option{Value: walletKeystore, Label: "Import an encrypted keystore file"})

	for {
		choice, err := o.prompter.Select(ctx, "Select Wallet:", options)
		if err != nil {
			return err
		}

		w, err := o.walletFrom(ctx, choice)
		if err != nil {
			if errno.Is(err, errno.ErrCancelled) {
				return err
			}
			_, msg := errno.Decode(err)
			o.prompter.Warn(msg)
			continue
		}

		o.session.Wallet = w
		if err := o.transition(StateWalletAcquired); err != nil {
			return err
		}
		o.session.Logger.Info("wallet acquired", zap.String("source", choice), zap.String("publicKey", w.PublicKey))
		break
	}

	o.prompter.Info("Wallet Public Address: " + o.session.Wallet.PublicKey)

	show, err := o.prompter.Confirm(ctx, "Show Private Key?", false)
	if err != nil {
		return err
	}
	if show {
		o.prompter.Info("Wallet Private Key: " + o.session.Wallet.PrivateKey)
		o.prompter.Warn("Keep your Private Key secure. Do not share it with anyone.")
	}
	return nil
}

func (o *Orchestrator) walletFrom(ctx context.Context, choice string) (*wallet.Identity, error) {
	p := o.session.Primitive

	switch choice {
	case walletKey:
		var w *wallet.Identity
		_, err := o.prompter.Password(ctx, "Enter Private Key:", func(secret string) error {
			var err error
			w, err = wallet.FromPrivateKey(p, secret)
			if err != nil {
				return errno.ErrInvalidPrivateKey
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return w, nil

	case walletNew:
		return wallet.Generate(p)

	case walletMnemonic:
		encoder, ok := p.(wallet.MnemonicPrimitive)
		if !ok {
			return nil, errno.ErrUnexpected.Wrap("signer cannot restore from a recovery phrase")
		}
		mnemonics := bip39.NewMnemonicService()
		phrase, err := o.prompter.Password(ctx, "Enter Recovery Phrase:", func(s string) error {
			if !mnemonics.ValidateMnemonic(bip39.Normalize(s)) {
				return errno.ErrInvalidPrivateKey
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		passphrase, err := o.prompter.Password(ctx, "Passphrase (hit Enter if none):", nil)
		if err != nil {
			return nil, err
		}
		return wallet.FromMnemonic(encoder, bip39.Normalize(phrase), passphrase, o.session.Config.Wallet.DerivationPath)

	case walletKeystore:
		filename, err := o.prompter.Text(ctx, prompt.TextQuestion{
			Message: "Keystore file:",
			Validate: func(s string) error {
				if s == "" {
					return errors.New("Keystore file is required!")
				}
				return nil
			},
		})
		if err != nil {
			return nil, err
		}
		password, err := o.prompter.Password(ctx, "Keystore password:", nil)
		if err != nil {
			return nil, err
		}
		return wallet.FromKeystore(p, filename, password)

	default:
		return nil, errno.ErrUnexpected.Wrapf("unknown wallet option %q", choice)
	}
}

// --- signing ---

func (o *Orchestrator) signTransaction(ctx context.Context) error {
	if err := o.transition(StateSigning); err != nil {
		return err
	}

	kind, err := o.prompter.Select(ctx, "What will you like to sign?", []prompt.Option{
		{Value: kindPay, Label: "Payment Transaction"},
		{Value: kindStake, Label: "Stake Delegation"},
	})
	if err != nil {
		return err
	}

	var intent tx.Intent
	switch kind {
	case kindPay:
		intent, err = o.collectPayment(ctx)
	case kindStake:
		intent, err = o.collectDelegation(ctx)
	default:
		err = errno.ErrUnexpected.Wrapf("unknown transaction kind %q", kind)
	}
	if errno.Is(err, errno.ErrCancelled) {
		return err
	}

	if err == nil {
		o.prompter.Info(describe(intent))
		var artifact *signer.SignedArtifact
		if artifact, err = o.session.Dispatcher.Sign(intent, o.session.Wallet, o.session.Nonces); err == nil {
			if err = o.emit(artifact); err != nil {
				return err
			}
			o.signed++
		}
	}
	if err != nil {
		_, msg := errno.Decode(err)
		o.prompter.Warn(msg)
	}

	return o.transition(StateIdle)
}

func (o *Orchestrator) collectPayment(ctx context.Context) (tx.Intent, error) {
	prefix := o.session.Builder.AddressPrefix()

	amount, err := o.prompter.Text(ctx, prompt.TextQuestion{
		Message:  "How much do you want to send?",
		Validate: validateAtomic,
	})
	if err != nil {
		return nil, err
	}
	receiver, err := o.prompter.Text(ctx, prompt.TextQuestion{
		Message: "Enter Receiver Wallet Address:",
		Validate: func(s string) error {
			return validator.ValidateAddress(s, prefix)
		},
	})
	if err != nil {
		return nil, err
	}
	common, err := o.collectCommon(ctx)
	if err != nil {
		return nil, err
	}

	return o.session.Builder.BuildPayment(o.session.Wallet, tx.PaymentFields{
		Amount:   amount,
		Receiver: receiver,
		Fee:      common.fee,
		Nonce:    common.nonce,
		Memo:     common.memo,
	})
}

func (o *Orchestrator) collectDelegation(ctx context.Context) (tx.Intent, error) {
	prefix := o.session.Builder.AddressPrefix()

	to, err := o.prompter.Text(ctx, prompt.TextQuestion{
		Message: "Enter Validator Address:",
		Validate: func(s string) error {
			return validator.ValidateAddress(s, prefix)
		},
	})
	if err != nil {
		return nil, err
	}
	common, err := o.collectCommon(ctx)
	if err != nil {
		return nil, err
	}

	return o.session.Builder.BuildDelegation(o.session.Wallet, tx.DelegationFields{
		Validator: to,
		Fee:       common.fee,
		Nonce:     common.nonce,
		Memo:      common.memo,
	})
}

type commonFields struct {
	nonce string
	fee   string
	memo  string
}

func (o *Orchestrator) collectCommon(ctx context.Context) (commonFields, error) {
	var (
		f   commonFields
		err error
	)

	f.nonce, err = o.prompter.Text(ctx, prompt.TextQuestion{
		Message:     "Nonce:",
		Placeholder: "(check the account nonce on a block explorer)",
		Initial:     o.session.Nonces.Suggest(),
		Validate:    validator.ValidateNonce,
	})
	if err != nil {
		return f, err
	}
	f.fee, err = o.prompter.Text(ctx, prompt.TextQuestion{
		Message:  "Fee:",
		Initial:  o.session.Config.Tx.DefaultFee,
		Validate: validateAtomic,
	})
	if err != nil {
		return f, err
	}
	f.memo, err = o.prompter.Text(ctx, prompt.TextQuestion{
		Message:     "Memo:",
		Placeholder: "(hit Enter to leave empty)",
		Validate:    validator.ValidateMemo,
		Raw:         true,
	})
	return f, err
}

// validateAtomic 金额需要能精确换算为原子单位，精度问题在输入时就重新提示
func validateAtomic(s string) error {
	if err := validator.ValidateAmount(s); err != nil {
		return err
	}
	_, err := units.ToAtomic(s)
	return err
}

// describe 签名前回显交易内容，金额使用显示单位
func describe(intent tx.Intent) string {
	fee := units.FromAtomic(intent.Fee())
	switch it := intent.(type) {
	case *tx.Payment:
		return fmt.Sprintf("Payment %s to %s, fee %s, nonce %d", units.FromAtomic(it.Amount()), it.To(), fee, it.Nonce())
	default:
		return fmt.Sprintf("Delegation to %s, fee %s, nonce %d", intent.To(), fee, intent.Nonce())
	}
}

func (o *Orchestrator) emit(artifact *signer.SignedArtifact) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return errno.ErrUnexpected.Wrapf("encode signed transaction: %v", err)
	}
	if _, err := fmt.Fprintf(o.out, "\n%s\n\n", data); err != nil {
		return errno.ErrUnexpected.Wrapf("write signed transaction: %v", err)
	}
	return nil
}
