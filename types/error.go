package types

import (
	"errors"
	"fmt"
)

// ErrorCode 机器可读的错误分类，出现在 HTTP 响应、指标标签与报告中
type ErrorCode string

const (
	// 调用方输入不满足契约
	ErrEmptyInput      ErrorCode = "EMPTY_INPUT"
	ErrLengthMismatch  ErrorCode = "LENGTH_MISMATCH"
	ErrInvalidLanguage ErrorCode = "INVALID_LANGUAGE"
	ErrInputTooShort   ErrorCode = "INPUT_TOO_SHORT"
	ErrInvalidParams   ErrorCode = "INVALID_PARAMS"
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"

	// 指标分发
	ErrUnknownMetric       ErrorCode = "UNKNOWN_METRIC"
	ErrScorerNotRegistered ErrorCode = "SCORER_NOT_REGISTERED"

	// 远端评测服务
	ErrUpstreamError   ErrorCode = "UPSTREAM_ERROR"
	ErrUpstreamTimeout ErrorCode = "UPSTREAM_TIMEOUT"
	ErrRateLimited     ErrorCode = "RATE_LIMITED"
	ErrUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrInvalidResponse ErrorCode = "INVALID_RESPONSE"

	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// Error 带错误码的结构化错误。字符串形式为 "[CODE] message"，
// 有 Cause 时追加 ": cause"。
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Metric     string    `json:"metric,omitempty"`
	Cause      error     `json:"-"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Errorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	msg := "[" + string(e.Code) + "] " + e.Message
	if e.Cause == nil {
		return msg
	}
	return msg + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// 以下 With* 方法原地修改并返回 e，便于链式构造

func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus 覆盖按错误码推导的响应状态码
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithMetric 记录出错的指标名
func (e *Error) WithMetric(metric string) *Error {
	e.Metric = metric
	return e
}

// AsError 在错误链中查找第一个 *Error
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// GetErrorCode 错误链中没有 *Error 时返回空串
func GetErrorCode(err error) ErrorCode {
	e, ok := AsError(err)
	if !ok {
		return ""
	}
	return e.Code
}

func IsCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// IsRetryable 只有显式标记的 *Error 才可重试
func IsRetryable(err error) bool {
	e, ok := AsError(err)
	return ok && e.Retryable
}
