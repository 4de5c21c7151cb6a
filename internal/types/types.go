// Package types defines configuration, stage identifiers and the error
// taxonomy shared by every pptx-translator package.
package types

import (
	"errors"
	"fmt"
	"time"
)

// Config 应用配置
type Config struct {
	OpenAIAPIKey  string `json:"openai_api_key"`
	OpenAIBaseURL string `json:"openai_base_url"`
	OpenAIModel   string `json:"openai_model"`
	// Temperature passed to the chat model, 0.3 by default
	Temperature float32 `json:"temperature"`
	// TargetLanguage used when -lang is not given
	TargetLanguage string `json:"target_language"`
	// BatchMaxChars bounds the source characters sent in one request
	BatchMaxChars int `json:"batch_max_chars"`
	// Concurrency is the number of batches in flight; 1 means sequential
	Concurrency int `json:"concurrency"`
	// InterBatchDelayMs is the minimum gap between two dispatches
	InterBatchDelayMs int `json:"inter_batch_delay_ms"`
	MaxRetries        int `json:"max_retries"`
	// RequestTimeoutSec bounds a single chat completion call
	RequestTimeoutSec int    `json:"request_timeout_sec"`
	CachePath         string `json:"cache_path"`
	LogFilePath       string `json:"log_file_path"`
	LogLevel          string `json:"log_level"`
}

// InterBatchDelay returns the configured dispatch gap as a duration.
func (c *Config) InterBatchDelay() time.Duration {
	return time.Duration(c.InterBatchDelayMs) * time.Millisecond
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// Stage 处理阶段
type Stage string

const (
	StageExtract    Stage = "extract"
	StageTranslate  Stage = "translate"
	StageReassemble Stage = "reassemble"
	StageReport     Stage = "report"
)

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	// ErrStructuralMismatch: translated content disagrees with the document
	// or the submitted batch. Fatal for the affected batch or paragraph.
	ErrStructuralMismatch ErrorCode = "STRUCTURAL_MISMATCH"
	// ErrIdentityNotFound: a shape id has no counterpart in the copy.
	ErrIdentityNotFound ErrorCode = "IDENTITY_NOT_FOUND"
	// ErrExtractionDegraded: an element was captured with reduced fidelity.
	ErrExtractionDegraded ErrorCode = "EXTRACTION_DEGRADED"
	// ErrIO: the container could not be opened, parsed or written.
	ErrIO ErrorCode = "IO_ERROR"

	ErrNetwork      ErrorCode = "NETWORK_ERROR"
	ErrAPIRateLimit ErrorCode = "API_RATE_LIMIT"
	ErrAPICall      ErrorCode = "API_CALL_ERROR"
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrTranslation  ErrorCode = "TRANSLATION_ERROR"
)

// Transient reports whether a failure with this code may succeed on retry.
func (c ErrorCode) Transient() bool {
	return c == ErrNetwork || c == ErrAPIRateLimit
}

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// Errorf builds an AppError whose message is formatted.
func Errorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrInternal when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
