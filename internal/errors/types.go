package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误
	ErrCodeInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrCodeBadRequest     ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound       ErrorCode = "RESOURCE_NOT_FOUND"

	// 验证错误
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeEmptyInput       ErrorCode = "EMPTY_INPUT"

	// 文件处理错误
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeEmptyContent      ErrorCode = "EMPTY_CONTENT"
	ErrCodeFileTooLarge      ErrorCode = "FILE_TOO_LARGE"

	// 外部服务错误
	ErrCodeServiceError        ErrorCode = "SERVICE_ERROR"
	ErrCodeInvalidResponse     ErrorCode = "INVALID_RESPONSE"
	ErrCodeDimensionMismatch   ErrorCode = "DIMENSION_MISMATCH"
	ErrCodeTransientGeneration ErrorCode = "TRANSIENT_GENERATION"
	ErrCodeGenerationFailed    ErrorCode = "GENERATION_FAILED"
)

// ErrorType 错误类型
type ErrorType int

const (
	ErrorTypeSystem ErrorType = iota
	ErrorTypeBusiness
	ErrorTypeValidation
	ErrorTypeExternal
)

// AppError 应用错误结构体
type AppError struct {
	Code      ErrorCode   `json:"code"`
	Message   string      `json:"message"`
	Type      ErrorType   `json:"type"`
	HTTPCode  int         `json:"-"`
	Retryable bool        `json:"-"`
	Details   interface{} `json:"details,omitempty"`
	Cause     error       `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加错误详情
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause 添加错误原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// 错误构造函数

// NewUnsupportedFormatError 创建不支持的文件格式错误
func NewUnsupportedFormatError(extension string) *AppError {
	return &AppError{
		Code:     ErrCodeUnsupportedFormat,
		Message:  fmt.Sprintf("unsupported file format: %s", extension),
		Type:     ErrorTypeValidation,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewEmptyContentError 创建文件内容为空错误
func NewEmptyContentError() *AppError {
	return &AppError{
		Code:     ErrCodeEmptyContent,
		Message:  "file has no extractable text",
		Type:     ErrorTypeValidation,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewEmptyInputError 创建输入为空错误
func NewEmptyInputError() *AppError {
	return &AppError{
		Code:     ErrCodeEmptyInput,
		Message:  "input text is empty",
		Type:     ErrorTypeValidation,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewServiceError 创建外部服务错误，message为服务端上报的错误信息
func NewServiceError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeServiceError,
		Message:  message,
		Type:     ErrorTypeExternal,
		HTTPCode: http.StatusBadGateway,
	}
}

// NewInvalidResponseError 创建服务响应格式错误
func NewInvalidResponseError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidResponse,
		Message:  message,
		Type:     ErrorTypeExternal,
		HTTPCode: http.StatusBadGateway,
	}
}

// NewDimensionMismatchError 创建向量维度不匹配错误
func NewDimensionMismatchError(expected, got int) *AppError {
	return &AppError{
		Code:     ErrCodeDimensionMismatch,
		Message:  fmt.Sprintf("unexpected embedding size: got %d, want %d", got, expected),
		Type:     ErrorTypeExternal,
		HTTPCode: http.StatusBadGateway,
	}
}

// NewTransientGenerationError 创建可重试的生成错误（超时类失败）
func NewTransientGenerationError(cause error) *AppError {
	return &AppError{
		Code:      ErrCodeTransientGeneration,
		Message:   "text generation timed out",
		Type:      ErrorTypeExternal,
		HTTPCode:  http.StatusGatewayTimeout,
		Retryable: true,
		Cause:     cause,
	}
}

// NewGenerationError 创建不可重试的生成错误
func NewGenerationError(cause error) *AppError {
	return &AppError{
		Code:     ErrCodeGenerationFailed,
		Message:  "text generation failed",
		Type:     ErrorTypeExternal,
		HTTPCode: http.StatusBadGateway,
		Cause:    cause,
	}
}

// NewNotFoundError 创建资源未找到错误
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%s not found", resource),
		Type:     ErrorTypeBusiness,
		HTTPCode: http.StatusNotFound,
	}
}

// NewValidationError 创建验证错误
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Type:     ErrorTypeValidation,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewSystemError 创建系统错误
func NewSystemError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeInternalServer,
		Message:  message,
		Type:     ErrorTypeSystem,
		HTTPCode: http.StatusInternalServerError,
	}
}

// IsAppError 检查是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 获取AppError，如果不是则包装为系统错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewSystemError("Internal server error").WithCause(err)
}

// IsRetryable 判断错误是否属于可重试类
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// HasCode 判断错误链上是否存在指定错误码
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
