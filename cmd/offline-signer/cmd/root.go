package cmd

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"offline-signer/internal/signer/local"
	"offline-signer/pkg/config"
	"offline-signer/pkg/logger"
)

// version 通过 -ldflags "-X offline-signer/cmd/offline-signer/cmd.version=..." 注入
var version = "dev"

// app 持有一次命令执行的依赖，由 PersistentPreRunE 初始化
type app struct {
	configPath string
	network    string

	cfg    *config.Config
	log    *zap.Logger
	signer *local.LocalSigner
}

// exitError 已经输出过结果，只需要以指定退出码结束
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return "exit status"
}

// NewRootCmd 构造根命令及全部子命令
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "offline-signer",
		Version: version,
		Short:   "Offline transaction signer",
		Long: `在离线机器上生成钱包、构造并签名转账和质押委托交易。
签名结果以 JSON 输出到标准输出，拷贝到联网机器后再广播。`,
		// 未知命令也只打印帮助，退出码 0
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./offline-signer.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.network, "network", "", "network id: mainnet or testnet (overrides config)")

	rootCmd.AddCommand(
		newWalletCmd(a),
		newPublicKeyCmd(a),
		newPaymentCmd(a),
		newDelegationCmd(a),
		newSessionCmd(a),
	)
	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.network != "" {
		cfg.Network.ID = a.network
	}
	if err := logger.Init(cfg.App.Env, cfg.Log.Level); err != nil {
		return err
	}

	s, err := local.NewLocalSigner(cfg.Network.ID)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger.Named("offline-signer")
	a.signer = s
	return nil
}

// Execute 运行命令行并返回进程退出码
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(rootCmd *cobra.Command, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		writeError(stdout, err)
		return 1
	}
	return 0
}
