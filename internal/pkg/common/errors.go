package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap 回傳原始錯誤，支援 errors.Is / errors.As
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ErrorCode 取出錯誤代碼；非 CustomError 時回傳 INTERNAL_ERROR
func ErrorCode(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternalError
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest   = "INVALID_REQUEST"    // 400
	ErrCodeUnauthorized     = "UNAUTHORIZED"       // 401
	ErrCodeNotFound         = "NOT_FOUND"          // 404
	ErrCodeRequestTimeout   = "REQUEST_TIMEOUT"    // 408
	ErrCodeConflict         = "CONFLICT"           // 409
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"  // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504

	// 業務錯誤代碼（庫存核對流程）
	ErrCodeCatalogUnavailable     = "CATALOG_UNAVAILABLE"      // 無法載入 Grocy 目錄快照
	ErrCodeLLMUnavailable         = "LLM_UNAVAILABLE"          // LLM 端點無法連線或回應非 2xx
	ErrCodeMalformedLLMOutput     = "MALFORMED_LLM_OUTPUT"     // LLM 回應無法解析
	ErrCodeValidationFailed       = "VALIDATION_FAILED"        // 項目欄位驗證失敗
	ErrCodeConflictRetryExhausted = "CONFLICT_RETRY_EXHAUSTED" // 唯一性衝突且重試後仍無法解析
	ErrCodeUpstreamRejected       = "UPSTREAM_REJECTED"        // Grocy 拒絕單一項目的異動
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "未授權的訪問", http.StatusUnauthorized, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "請求超時", http.StatusRequestTimeout, nil)
	ErrConflict        = NewError(ErrCodeConflict, "資源衝突", http.StatusConflict, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)
)

// NewCatalogUnavailableError 目錄載入失敗屬於批次層級錯誤，整個操作必須中止
func NewCatalogUnavailableError(err error) *CustomError {
	return NewError(ErrCodeCatalogUnavailable, "無法載入 Grocy 目錄", http.StatusBadGateway, err)
}

// NewLLMUnavailableError LLM 端點無法使用
func NewLLMUnavailableError(err error) *CustomError {
	return NewError(ErrCodeLLMUnavailable, "LLM 服務無法使用", http.StatusBadGateway, err)
}

// NewMalformedLLMOutputError LLM 回應內容無法解析
func NewMalformedLLMOutputError(err error) *CustomError {
	return NewError(ErrCodeMalformedLLMOutput, "LLM 回應格式錯誤", http.StatusBadGateway, err)
}
