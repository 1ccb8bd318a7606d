package profiles

import (
	"net/http"
	"strconv"
	"strings"

	"elzar-backend/internal/api/handlers"
	"elzar-backend/internal/infrastructure/store"
	"elzar-backend/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProfileRequest 建立或更新飲食設定檔的請求
type ProfileRequest struct {
	Name                string `json:"name"`
	DietaryRestrictions string `json:"dietary_restrictions"`
}

// Handler 飲食設定檔處理程序
type Handler struct {
	store *store.Store
}

// NewHandler 創建設定檔處理程序
func NewHandler(st *store.Store) *Handler {
	return &Handler{store: st}
}

// HandleList 列出全部設定檔
func (h *Handler) HandleList(c *gin.Context) {
	profiles, err := h.store.GetAllProfiles(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profiles": profiles, "count": len(profiles)})
}

// HandleCreate 建立設定檔，名稱重複回 409
func (h *Handler) HandleCreate(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "invalid request format")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		handlers.BadRequest(c, "name is required")
		return
	}

	id, err := h.store.CreateProfile(c.Request.Context(), req.Name, req.DietaryRestrictions)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			c.JSON(http.StatusConflict, common.ErrorResponse{
				Code:    common.ErrCodeConflict,
				Message: err.Error(),
			})
			return
		}
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("已建立飲食設定檔",
		zap.Int64("profile_id", id),
		zap.String("name", req.Name),
	)

	c.JSON(http.StatusCreated, gin.H{"id": id, "name": req.Name})
}

// HandleGet 取得單一設定檔
func (h *Handler) HandleGet(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if profile == nil {
		notFound(c)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// HandleUpdate 更新設定檔，空欄位維持原值
func (h *Handler) HandleUpdate(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "invalid request format")
		return
	}

	updated, err := h.store.UpdateProfile(c.Request.Context(), id, strings.TrimSpace(req.Name), req.DietaryRestrictions)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !updated {
		notFound(c)
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// HandleDelete 刪除設定檔
func (h *Handler) HandleDelete(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}

	deleted, err := h.store.DeleteProfile(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !deleted {
		notFound(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "profile_id": id})
}

func profileID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		handlers.BadRequest(c, "invalid profile id")
		return 0, false
	}
	return id, true
}

func notFound(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, common.ErrorResponse{
		Code:    common.ErrCodeNotFound,
		Message: "profile not found",
	})
}
