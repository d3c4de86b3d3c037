package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"offline-signer/internal/prompt"
	"offline-signer/internal/session"
	"offline-signer/pkg/errno"
)

func newSessionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "交互式签名会话",
		Long: `交互式地选择钱包，然后连续签名多笔交易，nonce 在会话内自动递增。
提示信息输出到 stderr，签名结果 JSON 输出到 stdout。Ctrl-C 或输入结束会取消会话。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "offline-signer %s (%s)\n", version, a.signer.Network())

			s := session.New(a.cfg, a.signer, a.log.Named("session"))
			term := prompt.NewTerminal(cmd.InOrStdin(), cmd.ErrOrStderr())

			outcome, err := session.NewOrchestrator(s, term, cmd.OutOrStdout()).Run(ctx)
			if errno.Is(err, errno.ErrCancelled) {
				return &exitError{code: outcome.ExitCode()}
			}
			return err
		},
	}
}
