package bip32

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
)

// CoinType 参考链在 SLIP-44 中登记的 coin type
const CoinType = 12586

// DefaultPath 默认派生路径 m/44'/12586'/0'/0/0
const DefaultPath = "m/44'/12586'/0'/0/0"

// ExtendedKey 包装了 BIP-32 扩展密钥
type ExtendedKey interface {
	// String 返回 Base58 编码的密钥字符串 (xprv... / xpub...)
	String() string
	// ECPrivKey 用于获取底层的 EC 私钥
	ECPrivKey() (*btcec.PrivateKey, error)
	// Derive 根据索引派生子密钥
	Derive(index uint32) (ExtendedKey, error)
	// IsPrivate 返回是否包含私钥
	IsPrivate() bool
}

// HDWallet 定义了分层确定性钱包的基本行为
type HDWallet interface {
	// MasterKey 返回主扩展密钥
	MasterKey() ExtendedKey
	// DerivePath 根据路径 (如 "m/44'/12586'/0'/0/0") 派生密钥
	DerivePath(path string) (ExtendedKey, error)
}

var (
	ErrInvalidSeed = errors.New("invalid seed")
	ErrInvalidPath = errors.New("invalid derivation path")
)
