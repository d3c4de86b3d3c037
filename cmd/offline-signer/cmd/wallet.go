package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"offline-signer/internal/prompt"
	"offline-signer/internal/wallet"
	"offline-signer/pkg/errno"
	"offline-signer/pkg/keystore"
)

type walletOutput struct {
	Mnemonic       string                     `json:"mnemonic,omitempty"`
	DerivationPath string                     `json:"derivationPath,omitempty"`
	PrivateKey     string                     `json:"privateKey,omitempty"`
	PublicKey      string                     `json:"publicKey"`
	Keystore       *keystore.EncryptedKeyJSON `json:"keystore,omitempty"`
}

func newWalletCmd(a *app) *cobra.Command {
	var withMnemonic, withKeystore bool

	cmd := &cobra.Command{
		Use:   "newwallet",
		Short: "生成一个新的钱包",
		Long: `生成新的密钥对并输出私钥和公钥地址。
--mnemonic 时先生成 24 个单词的恢复短语，再按 BIP-44 路径派生私钥。
--keystore 时用口令加密私钥，只输出加密后的 keystore，不输出明文私钥。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				out walletOutput
				w   *wallet.Identity
				err error
			)

			if withMnemonic {
				mnemonic, err := wallet.NewMnemonic()
				if err != nil {
					return errno.ErrUnexpected.Wrapf("generate mnemonic: %v", err)
				}
				w, err = wallet.FromMnemonic(a.signer, mnemonic, "", a.cfg.Wallet.DerivationPath)
				if err != nil {
					return err
				}
				out.Mnemonic = mnemonic
				out.DerivationPath = a.cfg.Wallet.DerivationPath
			} else if w, err = wallet.Generate(a.signer); err != nil {
				return err
			}

			out.PublicKey = w.PublicKey
			if !withKeystore {
				out.PrivateKey = w.PrivateKey
				return writeJSON(cmd.OutOrStdout(), out)
			}

			password, err := readNewPassword(cmd)
			if err != nil {
				return err
			}
			out.Keystore, err = keystore.EncryptPrivateKey(w.PrivateKey, w.PublicKey, password, a.cfg.Wallet.KeystoreScrypt)
			if err != nil {
				return errno.ErrUnexpected.Wrapf("encrypt keystore: %v", err)
			}
			a.log.Info("keystore created", zap.String("publicKey", w.PublicKey))
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&withMnemonic, "mnemonic", false, "derive the wallet from a new recovery phrase")
	cmd.Flags().BoolVar(&withKeystore, "keystore", false, "output an encrypted keystore instead of the plain private key")
	return cmd
}

// readNewPassword 读取两次口令，不一致时重新输入
func readNewPassword(cmd *cobra.Command) (string, error) {
	term := prompt.NewTerminal(cmd.InOrStdin(), cmd.ErrOrStderr())
	ctx := cmd.Context()

	for {
		password, err := term.Password(ctx, "Keystore password:", func(s string) error {
			if s == "" {
				return errors.New("Password is required!")
			}
			return nil
		})
		if err != nil {
			return "", err
		}
		confirm, err := term.Password(ctx, "Repeat password:", nil)
		if err != nil {
			return "", err
		}
		if password == confirm {
			return password, nil
		}
		term.Warn("Passwords do not match.")
	}
}

func newPublicKeyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publickey <PRIVATE_KEY>",
		Short: "由私钥推导公钥地址",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wallet.FromPrivateKey(a.signer, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), walletOutput{PrivateKey: w.PrivateKey, PublicKey: w.PublicKey})
		},
	}
}
