package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SessionMetrics 一次签名会话内的统计。
// 使用独立的 Registry，不注册到全局，也不暴露 HTTP 端点。
type SessionMetrics struct {
	registry      *prometheus.Registry
	SignedTotal   *prometheus.CounterVec
	FailuresTotal *prometheus.CounterVec
}

// NewSessionMetrics 创建并注册会话指标
func NewSessionMetrics() *SessionMetrics {
	m := &SessionMetrics{
		registry: prometheus.NewRegistry(),
		SignedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signer_signed_total",
			Help: "Transactions signed in this session",
		}, []string{"kind"}),
		FailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signer_failures_total",
			Help: "Failed operations in this session by error code",
		}, []string{"code"}),
	}
	m.registry.MustRegister(m.SignedTotal, m.FailuresTotal)
	return m
}

// Summary 汇总所有计数器，key 形如 "signer_signed_total{kind=payment}"
func (m *SessionMetrics) Summary() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			key := family.GetName()
			for _, label := range metric.GetLabel() {
				key += "{" + label.GetName() + "=" + label.GetValue() + "}"
			}
			out[key] = metric.GetCounter().GetValue()
		}
	}
	return out, nil
}
