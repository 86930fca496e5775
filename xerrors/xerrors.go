// Package xerrors 提供 routemetrics 统一的错误处理工具。
//
// 约定：
//   - 组件内部错误通过 Wrap/Wrapf 追加上下文，保留错误链
//   - 需要暴露给 HTTP 调用方的错误使用 WithCode 附加机器可读的错误码
//   - 哨兵错误用于 errors.Is 判断错误类别
package xerrors

import (
	"errors"
	"fmt"
)

// 通用哨兵错误
var (
	// ErrInvalidInput 参数或配置不合法
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("not found")
	// ErrUnavailable 依赖的外部服务暂不可用（熔断、连接失败等）
	ErrUnavailable = errors.New("unavailable")
)

// Wrap 用上下文信息包装错误，保留错误链。
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 用格式化的上下文信息包装错误。
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// WithCode 用错误码包装错误。
func WithCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Cause: err}
}

// CodedError 带有机器可读错误码的错误。
type CodedError struct {
	Code  string
	Cause error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("[%s]", e.Code)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// Message 返回不带错误码前缀的错误信息，用于响应体
func (e *CodedError) Message() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Error()
}

// GetCode 从错误链中提取错误码。
func GetCode(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// Must 如果 err 不为 nil，则 panic。仅用于初始化阶段。
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("must: %v", err))
	}
	return v
}

// Combine 将多个错误合并为一个，nil 会被忽略。
func Combine(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return errors.Join(nonNil...)
	}
}

// 标准库函数再导出
var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)
