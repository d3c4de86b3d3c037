package validator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"offline-signer/pkg/errno"
	"offline-signer/pkg/units"
)

// DefaultAddressPrefix 参考链地址的网络前缀
const DefaultAddressPrefix = "B62"

// ValidateAddress 地址必须非空且以网络前缀开头。
// 这里不做 checksum 校验，checksum 由签名模块自己检查。
func ValidateAddress(address, prefix string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return errno.ErrInvalidAddress.Wrap("address is required")
	}
	if prefix == "" {
		prefix = DefaultAddressPrefix
	}
	if !strings.HasPrefix(address, prefix) {
		return errno.ErrInvalidAddress.Wrapf("address must start with %s", prefix)
	}
	return nil
}

// ValidateAmount 金额/手续费必须是有限的十进制数。
// 负数在这一层不拒绝，换算成原子单位时才会被拒绝。
func ValidateAmount(value string) error {
	_, err := units.ParseDecimal(value)
	return err
}

// ParseNonce 解析非负整数 nonce (uint32)
func ParseNonce(value string) (uint32, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errno.ErrInvalidNonce.Wrap("nonce is required")
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, errno.ErrInvalidNonce.Wrapf("%q is not a non-negative integer", value)
	}
	return uint32(n), nil
}

// ValidateNonce 是 ParseNonce 的谓词形式，给交互式输入用
func ValidateNonce(value string) error {
	_, err := ParseNonce(value)
	return err
}

// ValidateMemo memo 可以为空，总是通过
func ValidateMemo(string) error {
	return nil
}

// Validator 封装 go-playground/validator，注册了链地址校验 tag `chainaddr`
type Validator struct {
	prefix   string
	validate *validator.Validate
}

// New 创建一个使用给定地址前缀的结构体校验器
func New(prefix string) *Validator {
	if prefix == "" {
		prefix = DefaultAddressPrefix
	}
	v := &Validator{prefix: prefix, validate: validator.New()}
	_ = v.validate.RegisterValidation("chainaddr", func(fl validator.FieldLevel) bool {
		return ValidateAddress(fl.Field().String(), v.prefix) == nil
	})
	return v
}

// Prefix 返回当前使用的地址前缀
func (v *Validator) Prefix() string {
	return v.prefix
}

// Struct 按 `validate` tag 校验结构体。地址字段失败返回 ErrInvalidAddress，
// 其余失败返回 ErrUnexpected。
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errno.ErrUnexpected.Wrap(err.Error())
	}
	for _, e := range validationErrors {
		if e.Tag() == "chainaddr" {
			return errno.ErrInvalidAddress.Wrap(GetErrorMsg(validationErrors))
		}
	}
	return errno.ErrUnexpected.Wrap(GetErrorMsg(validationErrors))
}

// GetErrorMsg translates validation errors into user-friendly messages
func GetErrorMsg(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "invalid input"
	}

	var errMsgs []string
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("%s is required", field))
		case "chainaddr":
			errMsgs = append(errMsgs, fmt.Sprintf("%s is not a valid address", field))
		case "max":
			errMsgs = append(errMsgs, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("%s failed validation (%s)", field, e.Tag()))
		}
	}
	return strings.Join(errMsgs, "; ")
}
