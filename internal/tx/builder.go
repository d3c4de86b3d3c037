package tx

import (
	"strings"

	"offline-signer/internal/wallet"
	"offline-signer/pkg/errno"
	"offline-signer/pkg/units"
	"offline-signer/pkg/validator"
)

// PaymentFields 操作员输入的原始字段 (显示单位)
type PaymentFields struct {
	Amount   string
	Receiver string
	Fee      string
	Nonce    string
	Memo     string
}

// DelegationFields 操作员输入的原始字段 (显示单位)
type DelegationFields struct {
	Validator string
	Fee       string
	Nonce     string
	Memo      string
}

// record 构造完成前的结构体校验
type record struct {
	From string `validate:"required,chainaddr"`
	To   string `validate:"required,chainaddr"`
}

// Builder 校验字段、换算单位并构造 Intent
type Builder struct {
	validator *validator.Validator
}

// NewBuilder 创建使用指定地址前缀的 Builder
func NewBuilder(addressPrefix string) *Builder {
	return &Builder{validator: validator.New(addressPrefix)}
}

// AddressPrefix 当前网络的地址前缀
func (b *Builder) AddressPrefix() string {
	return b.validator.Prefix()
}

// BuildPayment 按 amount、receiver、fee、nonce、memo 的顺序校验并构造转账
func (b *Builder) BuildPayment(w *wallet.Identity, f PaymentFields) (*Payment, error) {
	if w == nil {
		return nil, errno.ErrUnexpected.Wrap("no wallet acquired")
	}
	if err := validator.ValidateAmount(f.Amount); err != nil {
		return nil, err
	}
	to := strings.TrimSpace(f.Receiver)
	if err := validator.ValidateAddress(to, b.validator.Prefix()); err != nil {
		return nil, err
	}
	if err := validator.ValidateAmount(f.Fee); err != nil {
		return nil, err
	}
	n, err := validator.ParseNonce(f.Nonce)
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateMemo(f.Memo); err != nil {
		return nil, err
	}

	amount, err := units.ToAtomic(f.Amount)
	if err != nil {
		return nil, err
	}
	fee, err := units.ToAtomic(f.Fee)
	if err != nil {
		return nil, err
	}

	if err := b.validator.Struct(record{From: w.PublicKey, To: to}); err != nil {
		return nil, err
	}

	return &Payment{
		from:   w.PublicKey,
		to:     to,
		amount: amount,
		fee:    fee,
		nonce:  n,
		memo:   f.Memo,
	}, nil
}

// BuildDelegation 按 validator、fee、nonce、memo 的顺序校验并构造质押委托
func (b *Builder) BuildDelegation(w *wallet.Identity, f DelegationFields) (*Delegation, error) {
	if w == nil {
		return nil, errno.ErrUnexpected.Wrap("no wallet acquired")
	}
	to := strings.TrimSpace(f.Validator)
	if err := validator.ValidateAddress(to, b.validator.Prefix()); err != nil {
		return nil, err
	}
	if err := validator.ValidateAmount(f.Fee); err != nil {
		return nil, err
	}
	n, err := validator.ParseNonce(f.Nonce)
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateMemo(f.Memo); err != nil {
		return nil, err
	}

	fee, err := units.ToAtomic(f.Fee)
	if err != nil {
		return nil, err
	}

	if err := b.validator.Struct(record{From: w.PublicKey, To: to}); err != nil {
		return nil, err
	}

	return &Delegation{
		from:  w.PublicKey,
		to:    to,
		fee:   fee,
		nonce: n,
		memo:  f.Memo,
	}, nil
}
