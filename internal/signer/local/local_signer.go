// Package local 提供 signer.Primitive 的本地实现。
// 使用 secp256k1 上的 BIP-340 Schnorr 签名，密钥以 base58check 编码，
// 版本字节与参考链一致，因此公钥以 B62 开头、私钥以 EK 开头。
package local

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/base58"
	"lukechampine.com/blake3"

	"offline-signer/internal/signer"
)

const (
	publicKeyVersion  byte = 0xcb
	privateKeyVersion byte = 0x5a

	// MemoMaxBytes 链上 memo 字段的最大字节数
	MemoMaxBytes = 32

	// ValidUntil 默认不过期
	ValidUntil = ^uint32(0)
)

const (
	kindPayment    byte = 0x00
	kindDelegation byte = 0x04
)

var (
	ErrInvalidPrivateKey = errors.New("malformed private key")
	ErrInvalidPublicKey  = errors.New("malformed public key")
	ErrMemoTooLong       = fmt.Errorf("memo exceeds %d bytes", MemoMaxBytes)
	ErrInvalidSignature  = errors.New("signature verification failed")
	ErrUnknownNetwork    = errors.New("unknown network")
)

// LocalSigner 实现 signer.Primitive。
// network 参与消息哈希的域分隔，mainnet 的签名不能在 testnet 上重放。
type LocalSigner struct {
	network string
}

var _ signer.Primitive = (*LocalSigner)(nil)
var _ signer.Verifier = (*LocalSigner)(nil)

// NewLocalSigner 创建指定网络 (mainnet / testnet) 的签名器
func NewLocalSigner(network string) (*LocalSigner, error) {
	switch network {
	case "mainnet", "testnet":
		return &LocalSigner{network: network}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}
}

// Network 返回签名器所在网络
func (s *LocalSigner) Network() string {
	return s.network
}

func (s *LocalSigner) GenerateKeypair() (signer.Keypair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return signer.Keypair{}, fmt.Errorf("generate key: %w", err)
	}
	return signer.Keypair{
		PrivateKey: encodePrivateKey(priv),
		PublicKey:  encodePublicKey(priv.PubKey()),
	}, nil
}

func (s *LocalSigner) DerivePublicKey(privateKey string) (string, error) {
	priv, err := decodePrivateKey(privateKey)
	if err != nil {
		return "", err
	}
	return encodePublicKey(priv.PubKey()), nil
}

// EncodePrivateKey 将 32 字节标量编码为私钥字符串 (用于助记词派生)
func (s *LocalSigner) EncodePrivateKey(raw []byte) (string, error) {
	if len(raw) != 32 {
		return "", ErrInvalidPrivateKey
	}
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(raw); overflow || scalar.IsZero() {
		return "", ErrInvalidPrivateKey
	}
	priv, _ := btcec.PrivKeyFromBytes(raw)
	return encodePrivateKey(priv), nil
}

func (s *LocalSigner) SignPayment(p signer.PaymentPayload, privateKey string) (*signer.SignedArtifact, error) {
	data := signer.TxData{
		To:         p.To,
		From:       p.From,
		Fee:        strconv.FormatUint(p.Fee, 10),
		Amount:     strconv.FormatUint(p.Amount, 10),
		Nonce:      strconv.FormatUint(uint64(p.Nonce), 10),
		Memo:       p.Memo,
		ValidUntil: strconv.FormatUint(uint64(ValidUntil), 10),
	}
	return s.sign(kindPayment, data, privateKey)
}

func (s *LocalSigner) SignStakeDelegation(d signer.DelegationPayload, privateKey string) (*signer.SignedArtifact, error) {
	data := signer.TxData{
		To:         d.To,
		From:       d.From,
		Fee:        strconv.FormatUint(d.Fee, 10),
		Nonce:      strconv.FormatUint(uint64(d.Nonce), 10),
		Memo:       d.Memo,
		ValidUntil: strconv.FormatUint(uint64(ValidUntil), 10),
	}
	return s.sign(kindDelegation, data, privateKey)
}

func (s *LocalSigner) sign(kind byte, data signer.TxData, privateKey string) (*signer.SignedArtifact, error) {
	priv, err := decodePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	from := encodePublicKey(priv.PubKey())
	if data.From != from {
		return nil, errors.New("sender does not match the private key")
	}
	if _, err := decodePublicKey(data.To); err != nil {
		return nil, fmt.Errorf("receiver: %w", err)
	}

	hash, err := s.messageHash(kind, data)
	if err != nil {
		return nil, err
	}

	sig, err := schnorr.Sign(priv, hash[:])
	if err != nil {
		return nil, fmt.Errorf("schnorr sign: %w", err)
	}
	raw := sig.Serialize()

	return &signer.SignedArtifact{
		Signature: signer.Signature{
			Field:  new(big.Int).SetBytes(raw[:32]).String(),
			Scalar: new(big.Int).SetBytes(raw[32:]).String(),
		},
		PublicKey: from,
		Data:      data,
	}, nil
}

// Verify 校验签名产物。没有 amount 字段的视为质押委托。
func (s *LocalSigner) Verify(artifact *signer.SignedArtifact) error {
	if artifact == nil {
		return ErrInvalidSignature
	}
	pub, err := decodePublicKey(artifact.PublicKey)
	if err != nil {
		return err
	}

	kind := kindPayment
	if artifact.Data.Amount == "" {
		kind = kindDelegation
	}
	hash, err := s.messageHash(kind, artifact.Data)
	if err != nil {
		return err
	}

	raw, err := signatureBytes(artifact.Signature)
	if err != nil {
		return err
	}
	sig, err := schnorr.ParseSignature(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !sig.Verify(hash[:], pub) {
		return ErrInvalidSignature
	}
	return nil
}

// messageHash 计算交易的规范化哈希:
// network | kind | from | to | fee | amount | nonce | validUntil | memo
func (s *LocalSigner) messageHash(kind byte, data signer.TxData) ([32]byte, error) {
	var zero [32]byte
	if len(data.Memo) > MemoMaxBytes {
		return zero, ErrMemoTooLong
	}

	fee, err := strconv.ParseUint(data.Fee, 10, 64)
	if err != nil {
		return zero, fmt.Errorf("fee: %w", err)
	}
	var amount uint64
	if kind == kindPayment {
		if amount, err = strconv.ParseUint(data.Amount, 10, 64); err != nil {
			return zero, fmt.Errorf("amount: %w", err)
		}
	}
	nonce, err := strconv.ParseUint(data.Nonce, 10, 32)
	if err != nil {
		return zero, fmt.Errorf("nonce: %w", err)
	}
	validUntil, err := strconv.ParseUint(data.ValidUntil, 10, 32)
	if err != nil {
		return zero, fmt.Errorf("validUntil: %w", err)
	}

	buf := make([]byte, 0, 256)
	buf = appendString(buf, s.network)
	buf = append(buf, kind)
	buf = appendString(buf, data.From)
	buf = appendString(buf, data.To)
	buf = binary.BigEndian.AppendUint64(buf, fee)
	buf = binary.BigEndian.AppendUint64(buf, amount)
	buf = binary.BigEndian.AppendUint32(buf, uint32(nonce))
	buf = binary.BigEndian.AppendUint32(buf, uint32(validUntil))
	buf = appendString(buf, data.Memo)

	return blake3.Sum256(buf), nil
}

func appendString(buf []byte, s string) []byte {
	buf = append(buf, byte(len(s)))
	return append(buf, s...)
}

func signatureBytes(sig signer.Signature) ([]byte, error) {
	r, ok := new(big.Int).SetString(sig.Field, 10)
	if !ok || r.Sign() < 0 || r.BitLen() > 256 {
		return nil, ErrInvalidSignature
	}
	sc, ok := new(big.Int).SetString(sig.Scalar, 10)
	if !ok || sc.Sign() < 0 || sc.BitLen() > 256 {
		return nil, ErrInvalidSignature
	}
	raw := make([]byte, 64)
	r.FillBytes(raw[:32])
	sc.FillBytes(raw[32:])
	return raw, nil
}

// --- key encodings ---

func encodePrivateKey(priv *btcec.PrivateKey) string {
	payload := append([]byte{0x01}, priv.Serialize()...)
	return base58.CheckEncode(payload, privateKeyVersion)
}

func decodePrivateKey(s string) (*btcec.PrivateKey, error) {
	payload, version, err := base58.CheckDecode(s)
	if err != nil || version != privateKeyVersion || len(payload) != 33 || payload[0] != 0x01 {
		return nil, ErrInvalidPrivateKey
	}
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(payload[1:]); overflow || scalar.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	priv, _ := btcec.PrivKeyFromBytes(payload[1:])
	return priv, nil
}

func encodePublicKey(pub *btcec.PublicKey) string {
	compressed := pub.SerializeCompressed()
	payload := make([]byte, 0, 35)
	payload = append(payload, 0x01, 0x01)
	payload = append(payload, compressed[1:]...)
	if compressed[0] == 0x03 {
		payload = append(payload, 0x01)
	} else {
		payload = append(payload, 0x00)
	}
	return base58.CheckEncode(payload, publicKeyVersion)
}

func decodePublicKey(s string) (*btcec.PublicKey, error) {
	payload, version, err := base58.CheckDecode(s)
	if err != nil || version != publicKeyVersion || len(payload) != 35 ||
		payload[0] != 0x01 || payload[1] != 0x01 || payload[34] > 0x01 {
		return nil, ErrInvalidPublicKey
	}
	compressed := make([]byte, 0, 33)
	compressed = append(compressed, 0x02+payload[34])
	compressed = append(compressed, payload[2:34]...)
	pub, err := btcec.ParsePubKey(compressed)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return pub, nil
}
