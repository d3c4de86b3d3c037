package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"offline-signer/pkg/errno"
)

// errorOutput 失败时输出到 stdout 的结构
type errorOutput struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errno.ErrUnexpected.Wrapf("encode output: %v", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeError message 是错误码的提示，error 带细节。调用方保证 err 不含私钥。
func writeError(w io.Writer, err error) {
	code, detail := errno.Decode(err)
	message := errno.ErrUnexpected.Message
	var plain errno.Errno
	if errors.As(err, &plain) {
		message = plain.Message
	}
	_ = writeJSON(w, errorOutput{Message: message, Error: detail, Code: code})
}
