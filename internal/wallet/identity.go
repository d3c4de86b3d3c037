// Package wallet 持有一次会话的钱包身份。私钥只在内存中，不落盘、不进日志。
package wallet

import (
	"fmt"

	"offline-signer/internal/signer"
	"offline-signer/pkg/bip32"
	"offline-signer/pkg/bip39"
	"offline-signer/pkg/errno"
	"offline-signer/pkg/keystore"
)

// Identity 钱包身份
type Identity struct {
	PrivateKey string `json:"privateKey,omitempty"`
	PublicKey  string `json:"publicKey"`
}

// CanSign 是否持有签名所需的私钥
func (w *Identity) CanSign() bool {
	return w != nil && w.PrivateKey != ""
}

// String 只输出公钥，避免私钥被 %v 打印出来
func (w *Identity) String() string {
	if w == nil {
		return "<no wallet>"
	}
	return w.PublicKey
}

// Generate 通过签名原语生成新钱包，公私钥同时填充
func Generate(p signer.Primitive) (*Identity, error) {
	kp, err := p.GenerateKeypair()
	if err != nil {
		return nil, errno.ErrUnexpected.Wrapf("generate keypair: %v", err)
	}
	return &Identity{PrivateKey: kp.PrivateKey, PublicKey: kp.PublicKey}, nil
}

// FromPrivateKey 由私钥推导公钥。推导失败返回 ErrInvalidPrivateKey，错误信息不含私钥。
func FromPrivateKey(p signer.Primitive, secret string) (*Identity, error) {
	if secret == "" {
		return nil, errno.ErrInvalidPrivateKey.Wrap("private key is required")
	}
	publicKey, err := p.DerivePublicKey(secret)
	if err != nil {
		return nil, errno.ErrInvalidPrivateKey.Wrap(err.Error())
	}
	return &Identity{PrivateKey: secret, PublicKey: publicKey}, nil
}

// KeyEncoder 将派生出的原始私钥编码为原语可接受的私钥字符串
type KeyEncoder interface {
	EncodePrivateKey(raw []byte) (string, error)
}

// MnemonicPrimitive 同时支持签名和原始私钥编码的原语
type MnemonicPrimitive interface {
	signer.Primitive
	KeyEncoder
}

// NewMnemonic 生成 24 个单词的恢复短语
func NewMnemonic() (string, error) {
	return bip39.NewMnemonicService().GenerateMnemonic(256)
}

// FromMnemonic 按 BIP-39 / BIP-32 从恢复短语派生钱包
func FromMnemonic(p MnemonicPrimitive, mnemonic, passphrase, path string) (*Identity, error) {
	seed, err := bip39.NewMnemonicService().MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return nil, errno.ErrInvalidPrivateKey.Wrap(err.Error())
	}
	hd, err := bip32.NewMasterKeyFromSeed(seed)
	if err != nil {
		return nil, errno.ErrInvalidPrivateKey.Wrap(err.Error())
	}
	if path == "" {
		path = bip32.DefaultPath
	}
	raw, err := hd.DerivePrivateKey(path)
	if err != nil {
		return nil, errno.ErrInvalidPrivateKey.Wrap(err.Error())
	}
	secret, err := p.EncodePrivateKey(raw)
	if err != nil {
		return nil, errno.ErrInvalidPrivateKey.Wrap(err.Error())
	}
	return FromPrivateKey(p, secret)
}

// FromKeystore 解密 keystore 文件得到私钥。只读，不会写回。
func FromKeystore(p signer.Primitive, filename, password string) (*Identity, error) {
	keyJSON, err := keystore.LoadFromFile(filename)
	if err != nil {
		return nil, errno.ErrInvalidPrivateKey.Wrapf("load keystore: %v", err)
	}
	secret, err := keystore.DecryptPrivateKey(keyJSON, password)
	if err != nil {
		return nil, errno.ErrInvalidPrivateKey.Wrap(err.Error())
	}
	w, err := FromPrivateKey(p, secret)
	if err != nil {
		return nil, err
	}
	if keyJSON.Address != "" && keyJSON.Address != w.PublicKey {
		return nil, errno.ErrInvalidPrivateKey.Wrap(fmt.Sprintf("keystore address %s does not match the decrypted key", keyJSON.Address))
	}
	return w, nil
}
