package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/textscore/internal/ctxkeys"
	"github.com/BaSui01/textscore/types"
)

// Response 除健康检查外所有 JSON 接口的响应信封
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	RequestID string     `json:"request_id,omitempty"`
}

// ErrorInfo 失败响应中的错误描述。Metric 为出错的指标名
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Metric    string `json:"metric,omitempty"`
	Retryable bool   `json:"retryable"`
}

// WriteJSON 写出状态码与 JSON 正文
func WriteJSON(w http.ResponseWriter, status int, data any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	// 头部已写出，编码错误无法再反馈给客户端
	_ = json.NewEncoder(w).Encode(data)
}

func WriteSuccess(w http.ResponseWriter, r *http.Request, data any) {
	WriteJSON(w, http.StatusOK, envelope(r, data, nil))
}

// WriteError 把错误转换为信封响应。*types.Error 以外的错误一律视为
// INTERNAL_ERROR，原始信息只进日志。包装前缀（例如 "metric chrf: "）保留在 message 中。
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	info, status, cause := describe(err)

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", requestID(r)),
			zap.String("code", info.Code),
			zap.String("message", info.Message),
			zap.Int("status", status),
		}
		if cause != nil {
			fields = append(fields, zap.NamedError("cause", cause))
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Warn("request rejected", fields...)
		}
	}

	WriteJSON(w, status, envelope(r, nil, info))
}

// WriteErrorMessage 以指定状态码写出一个新错误
func WriteErrorMessage(w http.ResponseWriter, r *http.Request, status int, code types.ErrorCode, message string, logger *zap.Logger) {
	WriteError(w, r, types.NewError(code, message).WithHTTPStatus(status), logger)
}

func describe(err error) (*ErrorInfo, int, error) {
	apiErr, ok := types.AsError(err)
	if !ok {
		return &ErrorInfo{Code: string(types.ErrInternalError), Message: "internal error"},
			http.StatusInternalServerError, err
	}

	message := apiErr.Message
	if prefix, found := strings.CutSuffix(err.Error(), apiErr.Error()); found {
		message = prefix + message
	}
	status := apiErr.HTTPStatus
	if status == 0 {
		status = mapErrorCodeToHTTPStatus(apiErr.Code)
	}
	return &ErrorInfo{
		Code:      string(apiErr.Code),
		Message:   message,
		Metric:    apiErr.Metric,
		Retryable: apiErr.Retryable,
	}, status, apiErr.Cause
}

func envelope(r *http.Request, data any, info *ErrorInfo) Response {
	return Response{
		Success:   info == nil,
		Data:      data,
		Error:     info,
		Timestamp: time.Now().UTC(),
		RequestID: requestID(r),
	}
}

func requestID(r *http.Request) string {
	if r == nil {
		return ""
	}
	id, _ := ctxkeys.RequestID(r.Context())
	return id
}

// mapErrorCodeToHTTPStatus 输入契约错误为 4xx，评测协作方的问题为 5xx
func mapErrorCodeToHTTPStatus(code types.ErrorCode) int {
	switch code {
	case types.ErrEmptyInput, types.ErrLengthMismatch, types.ErrInvalidLanguage,
		types.ErrInputTooShort, types.ErrInvalidParams, types.ErrInvalidRequest,
		types.ErrUnknownMetric:
		return http.StatusBadRequest
	case types.ErrNotFound:
		return http.StatusNotFound
	case types.ErrRateLimited:
		return http.StatusTooManyRequests
	case types.ErrScorerNotRegistered:
		return http.StatusNotImplemented
	case types.ErrUpstreamError, types.ErrInvalidResponse, types.ErrUnauthorized:
		// ErrUnauthorized 来自远端评测服务拒绝了我们的凭据
		return http.StatusBadGateway
	case types.ErrUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSONBody 严格解码请求体：拒绝未知字段与非 JSON 的 Content-Type，
// 未声明 Content-Type 时按 JSON 处理。失败时已写出错误响应。
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) error {
	if err := decodeBody(r, dst); err != nil {
		WriteError(w, r, err, logger)
		return err
	}
	return nil
}

func decodeBody(r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return types.NewError(types.ErrInvalidRequest, "Content-Type must be application/json").
				WithHTTPStatus(http.StatusUnsupportedMediaType)
		}
	}
	if r.Body == nil || r.Body == http.NoBody {
		return types.NewError(types.ErrInvalidRequest, "request body is empty")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return types.Errorf(types.ErrInvalidRequest, "request body exceeds %d bytes", tooLarge.Limit).
			WithHTTPStatus(http.StatusRequestEntityTooLarge)
	case errors.Is(err, io.EOF):
		return types.NewError(types.ErrInvalidRequest, "request body is empty")
	default:
		return types.NewError(types.ErrInvalidRequest, "invalid JSON body: "+err.Error())
	}
}

// ResponseWriter 记录状态码与已写出的字节数，供日志、指标与 tracing 中间件使用
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	Bytes      int64
	wroteHead  bool
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
}

// Written 报告响应头是否已经发出
func (rw *ResponseWriter) Written() bool { return rw.wroteHead }

func (rw *ResponseWriter) WriteHeader(code int) {
	if rw.wroteHead {
		return
	}
	rw.wroteHead = true
	rw.StatusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	rw.WriteHeader(http.StatusOK)
	n, err := rw.ResponseWriter.Write(b)
	rw.Bytes += int64(n)
	return n, err
}

// Unwrap 让 http.ResponseController 找到底层 writer
func (rw *ResponseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
