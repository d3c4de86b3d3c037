// Package units 负责链上显示单位与原子单位 (10^9) 之间的换算。
package units

import (
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"offline-signer/pkg/errno"
)

// Decimals 一个币等于 10^Decimals 个原子单位
const Decimals = 9

var (
	scale      = decimal.New(1, Decimals)
	maxAtomic  = fromUint64(math.MaxUint64)
	zeroAtomic = decimal.Zero
)

// ParseDecimal 解析人类可读的十进制数。空串、NaN、Inf 都视为无效。
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errno.ErrInvalidAmount.Wrap("value is required")
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errno.ErrInvalidAmount.Wrapf("%q is not a number", value)
	}
	return d, nil
}

// ToAtomic 将显示单位金额换算为原子单位: value * 10^9。
// 超过 9 位小数的精度不会被舍入，而是返回 ErrPrecision。
func ToAtomic(value string) (uint64, error) {
	d, err := ParseDecimal(value)
	if err != nil {
		return 0, err
	}

	atomic := d.Mul(scale)
	if !atomic.IsInteger() {
		return 0, errno.ErrPrecision.Wrapf("%s has more than %d decimal places", d.String(), Decimals)
	}
	if atomic.LessThan(zeroAtomic) {
		return 0, errno.ErrInvalidAmount.Wrapf("%s is negative", d.String())
	}
	if atomic.GreaterThan(maxAtomic) {
		return 0, errno.ErrInvalidAmount.Wrapf("%s exceeds the maximum amount", d.String())
	}

	return atomic.BigInt().Uint64(), nil
}

// FromAtomic 将原子单位渲染为显示单位字符串 (去掉末尾的 0)
func FromAtomic(atomic uint64) string {
	return fromUint64(atomic).Shift(-Decimals).String()
}

func fromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
