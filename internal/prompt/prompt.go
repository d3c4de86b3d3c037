// Package prompt 提供交互式问答。所有方法在操作员取消 (EOF / Ctrl-C) 时返回 errno.ErrCancelled。
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"offline-signer/pkg/errno"
)

// Option 单选项
type Option struct {
	Value string
	Label string
}

// TextQuestion 文本输入
type TextQuestion struct {
	Message     string
	Placeholder string
	// Initial 直接回车时使用的值，会显示在提示里
	Initial  string
	Validate func(string) error
	// Raw 保留首尾空白 (memo 按输入原样签名)
	Raw bool
}

// Prompter 会话编排器依赖的交互接口
type Prompter interface {
	Select(ctx context.Context, message string, options []Option) (string, error)
	Text(ctx context.Context, q TextQuestion) (string, error)
	Password(ctx context.Context, message string, validate func(string) error) (string, error)
	Confirm(ctx context.Context, message string, initial bool) (bool, error)
	Info(msg string)
	Warn(msg string)
}

type lineResult struct {
	line string
	err  error
}

// Terminal 基于行输入的 Prompter。
// 读取在单独的 goroutine 中进行，ctx 取消时可以立即返回。
type Terminal struct {
	in      *bufio.Reader
	out     io.Writer
	fd      int
	isTTY   bool
	results chan lineResult
	pending bool
}

var _ Prompter = (*Terminal)(nil)

// NewTerminal in 是终端时密码输入不回显
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{
		in:      bufio.NewReader(in),
		out:     out,
		fd:      -1,
		results: make(chan lineResult, 1),
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.fd = int(f.Fd())
		t.isTTY = true
	}
	return t
}

func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", errno.ErrCancelled
	}
	if !t.pending {
		t.pending = true
		go func() {
			line, err := t.in.ReadString('\n')
			t.results <- lineResult{line: line, err: err}
		}()
	}

	select {
	case <-ctx.Done():
		return "", errno.ErrCancelled
	case r := <-t.results:
		t.pending = false
		if r.err != nil {
			if errors.Is(r.err, io.EOF) && r.line != "" {
				return strings.TrimRight(r.line, "\r\n"), nil
			}
			if errors.Is(r.err, io.EOF) {
				return "", errno.ErrCancelled
			}
			return "", r.err
		}
		return strings.TrimRight(r.line, "\r\n"), nil
	}
}

func (t *Terminal) readSecret(ctx context.Context) (string, error) {
	if !t.isTTY || t.pending {
		return t.readLine(ctx)
	}
	if err := ctx.Err(); err != nil {
		return "", errno.ErrCancelled
	}
	b, err := term.ReadPassword(t.fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", errno.ErrCancelled
	}
	return string(b), nil
}

func (t *Terminal) Select(ctx context.Context, message string, options []Option) (string, error) {
	for {
		fmt.Fprintf(t.out, "? %s\n", message)
		for i, opt := range options {
			fmt.Fprintf(t.out, "  %d) %s\n", i+1, opt.Label)
		}
		fmt.Fprint(t.out, "> ")

		line, err := t.readLine(ctx)
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)

		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
			return options[n-1].Value, nil
		}
		for _, opt := range options {
			if line != "" && strings.EqualFold(line, opt.Value) {
				return opt.Value, nil
			}
		}
		fmt.Fprintf(t.out, "  Please choose 1-%d.\n", len(options))
	}
}

func (t *Terminal) Text(ctx context.Context, q TextQuestion) (string, error) {
	for {
		fmt.Fprintf(t.out, "? %s", q.Message)
		switch {
		case q.Initial != "":
			fmt.Fprintf(t.out, " [%s]", q.Initial)
		case q.Placeholder != "":
			fmt.Fprintf(t.out, " %s", q.Placeholder)
		}
		fmt.Fprint(t.out, " ")

		line, err := t.readLine(ctx)
		if err != nil {
			return "", err
		}
		value := line
		if !q.Raw {
			value = strings.TrimSpace(line)
		}
		if value == "" {
			value = q.Initial
		}

		if q.Validate != nil {
			if err := q.Validate(value); err != nil {
				fmt.Fprintf(t.out, "  %s\n", message(err))
				continue
			}
		}
		return value, nil
	}
}

func (t *Terminal) Password(ctx context.Context, msg string, validate func(string) error) (string, error) {
	for {
		fmt.Fprintf(t.out, "? %s ", msg)
		value, err := t.readSecret(ctx)
		if err != nil {
			return "", err
		}
		value = strings.TrimSpace(value)

		if validate != nil {
			if err := validate(value); err != nil {
				fmt.Fprintf(t.out, "  %s\n", message(err))
				continue
			}
		}
		return value, nil
	}
}

func (t *Terminal) Confirm(ctx context.Context, msg string, initial bool) (bool, error) {
	hint := "y/N"
	if initial {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(t.out, "? %s (%s) ", msg, hint)
		line, err := t.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return initial, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(t.out, "  Please answer y or n.")
	}
}

func (t *Terminal) Info(msg string) {
	fmt.Fprintf(t.out, "│ %s\n", msg)
}

func (t *Terminal) Warn(msg string) {
	fmt.Fprintf(t.out, "▲ %s\n", msg)
}

// message 取错误码对应的提示，不带内部细节
func message(err error) string {
	_, msg := errno.Decode(err)
	return msg
}
