// Package session 组织一次离线签名会话: 获取钱包，然后循环收集字段、构造、签名并输出。
package session

import (
	"go.uber.org/zap"

	"offline-signer/internal/nonce"
	"offline-signer/internal/signer"
	"offline-signer/internal/tx"
	"offline-signer/internal/wallet"
	"offline-signer/pkg/config"
	"offline-signer/pkg/monitor"
)

// Session 一次会话的全部状态。不使用全局变量，测试可以并行创建多个。
type Session struct {
	Config     *config.Config
	Primitive  signer.Primitive
	Builder    *tx.Builder
	Dispatcher *tx.Dispatcher
	Nonces     *nonce.Tracker
	Metrics    *monitor.SessionMetrics
	Logger     *zap.Logger

	// Wallet 在 WalletAcquired 之后才有值
	Wallet *wallet.Identity
}

// New 组装会话依赖。cfg 为 nil 时使用默认配置。
func New(cfg *config.Config, p signer.Primitive, logger *zap.Logger) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := monitor.NewSessionMetrics()

	return &Session{
		Config:     cfg,
		Primitive:  p,
		Builder:    tx.NewBuilder(cfg.Network.AddressPrefix),
		Dispatcher: tx.NewDispatcher(p, logger.Named("dispatcher"), metrics),
		Nonces:     nonce.NewTracker(logger.Named("nonce")),
		Metrics:    metrics,
		Logger:     logger,
	}
}
