package cmd

import (
	"github.com/spf13/cobra"

	"offline-signer/internal/nonce"
	"offline-signer/internal/tx"
	"offline-signer/internal/wallet"
)

func newPaymentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "payment <PRIVATE_KEY> <RECEIVER> <AMOUNT> <FEE> <NONCE> [MEMO]",
		Short: "签名一笔转账交易",
		Long:  `AMOUNT 和 FEE 使用显示单位 (最多 9 位小数)。签名结果以 JSON 输出。`,
		Args:  cobra.RangeArgs(5, 6),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wallet.FromPrivateKey(a.signer, args[0])
			if err != nil {
				return err
			}

			intent, err := tx.NewBuilder(a.cfg.Network.AddressPrefix).BuildPayment(w, tx.PaymentFields{
				Receiver: args[1],
				Amount:   args[2],
				Fee:      args[3],
				Nonce:    args[4],
				Memo:     optionalArg(args, 5),
			})
			if err != nil {
				return err
			}
			return a.signAndWrite(cmd, intent, w)
		},
	}
}

func newDelegationCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delegation <PRIVATE_KEY> <VALIDATOR> <FEE> <NONCE> [MEMO]",
		Short: "签名一笔质押委托交易",
		Args:  cobra.RangeArgs(4, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wallet.FromPrivateKey(a.signer, args[0])
			if err != nil {
				return err
			}

			intent, err := tx.NewBuilder(a.cfg.Network.AddressPrefix).BuildDelegation(w, tx.DelegationFields{
				Validator: args[1],
				Fee:       args[2],
				Nonce:     args[3],
				Memo:      optionalArg(args, 4),
			})
			if err != nil {
				return err
			}
			return a.signAndWrite(cmd, intent, w)
		},
	}
}

func (a *app) signAndWrite(cmd *cobra.Command, intent tx.Intent, w *wallet.Identity) error {
	artifact, err := tx.NewDispatcher(a.signer, a.log, nil).Sign(intent, w, nonce.NewTracker(a.log))
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), artifact)
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}
