// Package signer 定义外部签名原语的边界。
// 曲线运算、公钥推导和签名都在实现里完成，调用方只通过 Primitive 接触密钥材料。
package signer

// Keypair 是原语生成的一对密钥，均为链上文本编码
type Keypair struct {
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
}

// PaymentPayload 转账交易字段，金额与手续费均为原子单位
type PaymentPayload struct {
	From   string
	To     string
	Amount uint64
	Fee    uint64
	Nonce  uint32
	Memo   string
}

// DelegationPayload 质押委托交易字段
type DelegationPayload struct {
	From  string
	To    string
	Fee   uint64
	Nonce uint32
	Memo  string
}

// Signature 签名值，field/scalar 以十进制字符串表示
type Signature struct {
	Field  string `json:"field"`
	Scalar string `json:"scalar"`
}

// TxData 是签名产物中回显的交易字段
type TxData struct {
	To         string `json:"to"`
	From       string `json:"from"`
	Fee        string `json:"fee"`
	Amount     string `json:"amount,omitempty"`
	Nonce      string `json:"nonce"`
	Memo       string `json:"memo"`
	ValidUntil string `json:"validUntil"`
}

// SignedArtifact 原语返回的签名结果，本模块不解释其内部编码，原样导出
type SignedArtifact struct {
	Signature Signature `json:"signature"`
	PublicKey string    `json:"publicKey"`
	Data      TxData    `json:"data"`
}

// Primitive 外部签名原语。
// 实现可以是本地曲线库、硬件钱包或 HSM，私钥字符串只在这里被使用。
type Primitive interface {
	// GenerateKeypair 生成新的密钥对
	GenerateKeypair() (Keypair, error)
	// DerivePublicKey 由私钥确定性地推导公钥，私钥格式错误时返回错误
	DerivePublicKey(privateKey string) (string, error)
	// SignPayment 对转账交易签名
	SignPayment(p PaymentPayload, privateKey string) (*SignedArtifact, error)
	// SignStakeDelegation 对质押委托交易签名
	SignStakeDelegation(d DelegationPayload, privateKey string) (*SignedArtifact, error)
}

// Verifier 可选能力: 校验签名产物
type Verifier interface {
	Verify(artifact *SignedArtifact) error
}
