package handlers

import (
	"errors"
	"net/http"

	"elzar-backend/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 將錯誤轉成統一的 JSON 錯誤響應並中止請求
// CustomError 帶有狀態碼與錯誤代碼，其餘錯誤一律視為內部錯誤
func RespondError(c *gin.Context, err error) {
	requestID := c.GetHeader("X-Request-ID")

	var customErr *common.CustomError
	if errors.As(err, &customErr) {
		status := customErr.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.LogWarn("請求處理失敗",
			zap.String("code", customErr.Code),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(status, common.ErrorResponse{
			Code:    customErr.Code,
			Message: customErr.Message,
			Details: customErr.Error(),
		})
		return
	}

	if common.IsValidationError(err) {
		c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeValidationFailed,
			Message: err.Error(),
		})
		return
	}

	common.LogError("未分類的錯誤",
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestID),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, common.ErrorResponse{
		Code:    common.ErrCodeInternalError,
		Message: "服務器內部錯誤",
	})
}

// BadRequest 請求格式錯誤的快捷回應
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrorResponse{
		Code:    common.ErrCodeInvalidRequest,
		Message: message,
	})
}
