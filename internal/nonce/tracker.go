// Package nonce 维护一次会话内的下一个建议 nonce。
package nonce

import (
	"math"
	"strconv"

	"go.uber.org/zap"

	"offline-signer/pkg/errno"
)

// ErrExhausted nonce 已是 u32 最大值，之后没有可用的 nonce
var ErrExhausted = errno.ErrInvalidNonce.Wrap("nonce space exhausted")

// HasSuccessor n 签名之后是否还有下一个 nonce
func HasSuccessor(n uint32) bool {
	return n < math.MaxUint32
}

// Tracker 会话级 nonce 计数器。零值可用，未 Seed 前读取返回 ErrNotSeeded。
// 链上 nonce 是否正确由操作员负责，这里只负责在同一会话里自动递增。
type Tracker struct {
	next   uint32
	seeded bool
	logger *zap.Logger
}

// NewTracker 创建计数器
func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{logger: logger}
}

// Seed 以操作员输入的值作为当前 nonce。
// 会话中再次调用时以新输入为准；比已推进的值小时只记录警告。
func (t *Tracker) Seed(n uint32) {
	if t.seeded && n < t.next && t.logger != nil {
		t.logger.Warn("nonce is lower than the next suggested value",
			zap.Uint32("nonce", n),
			zap.Uint32("suggested", t.next),
		)
	}
	t.next = n
	t.seeded = true
}

// Advance 签名成功后调用一次，next += 1。到达 u32 上限时返回错误，不回绕到 0。
func (t *Tracker) Advance() error {
	if !t.seeded {
		return errno.ErrNotSeeded
	}
	if !HasSuccessor(t.next) {
		return ErrExhausted
	}
	t.next++
	return nil
}

// Current 返回下一个 nonce
func (t *Tracker) Current() (uint32, error) {
	if !t.seeded {
		return 0, errno.ErrNotSeeded
	}
	return t.next, nil
}

// Seeded 是否已设置过
func (t *Tracker) Seeded() bool {
	return t.seeded
}

// Suggest 返回输入框的默认值，未设置时为空串
func (t *Tracker) Suggest() string {
	if !t.seeded {
		return ""
	}
	return strconv.FormatUint(uint64(t.next), 10)
}
