// Package tx 构造交易意图并分发给签名原语。
package tx

// Kind 交易类型
type Kind string

const (
	KindPayment    Kind = "payment"
	KindDelegation Kind = "delegation"
)

// Intent 是已校验的交易意图，只能由 Builder 构造，构造后不可修改。
type Intent interface {
	Kind() Kind
	From() string
	To() string
	Fee() uint64
	Nonce() uint32
	Memo() string

	sealed()
}

// Payment 转账
type Payment struct {
	from   string
	to     string
	amount uint64
	fee    uint64
	nonce  uint32
	memo   string
}

func (p *Payment) Kind() Kind     { return KindPayment }
func (p *Payment) From() string   { return p.from }
func (p *Payment) To() string     { return p.to }
func (p *Payment) Amount() uint64 { return p.amount }
func (p *Payment) Fee() uint64    { return p.fee }
func (p *Payment) Nonce() uint32  { return p.nonce }
func (p *Payment) Memo() string   { return p.memo }
func (p *Payment) sealed()        {}

// Delegation 质押委托，To 为验证者地址
type Delegation struct {
	from  string
	to    string
	fee   uint64
	nonce uint32
	memo  string
}

func (d *Delegation) Kind() Kind    { return KindDelegation }
func (d *Delegation) From() string  { return d.from }
func (d *Delegation) To() string    { return d.to }
func (d *Delegation) Fee() uint64   { return d.fee }
func (d *Delegation) Nonce() uint32 { return d.nonce }
func (d *Delegation) Memo() string  { return d.memo }
func (d *Delegation) sealed()       {}
