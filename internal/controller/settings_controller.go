package controller

import (
	"edu_tutor_backend/internal/service"
	"edu_tutor_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type SettingsController struct {
	settingsService *service.SettingsService
}

func NewSettingsController(settingsService *service.SettingsService) *SettingsController {
	return &SettingsController{settingsService: settingsService}
}

// GetSettings godoc
// @Summary 获取用户设置
// @Tags 设置
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.UserSetting}
// @Router /api/settings [get]
func (c *SettingsController) GetSettings(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	setting, err := c.settingsService.Get(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, setting)
}

type UpdateThemeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

// UpdateTheme godoc
// @Summary 更新主题
// @Description 主题取值 light/dark/system
// @Tags 设置
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdateThemeRequest true "主题"
// @Success 200 {object} util.Response{data=model.UserSetting}
// @Failure 400 {object} util.Response "主题取值无效"
// @Router /api/settings/theme [put]
func (c *SettingsController) UpdateTheme(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req UpdateThemeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	setting, err := c.settingsService.UpdateTheme(claims.UserID, req.Theme)
	if err != nil {
		if errors.Is(err, util.ErrInvalidTheme) {
			util.BadRequest(ctx, "invalid theme")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, setting)
}

type ValidateKeyRequest struct {
	APIKey string `json:"apiKey"`
}

// ValidateAIKey godoc
// @Summary 校验AI密钥
// @Description 用一次真实调用确认密钥有效；服务暂时不可用时返回503
// @Tags 设置
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body ValidateKeyRequest true "待校验的密钥，留空则校验服务端配置的密钥"
// @Success 200 {object} util.Response{data=service.KeyStatus}
// @Failure 503 {object} util.Response "AI服务暂时不可用"
// @Router /api/settings/ai-key/validate [post]
func (c *SettingsController) ValidateAIKey(ctx *gin.Context) {
	var req ValidateKeyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	status, err := c.settingsService.ValidateAIKey(ctx.Request.Context(), req.APIKey)
	if err != nil {
		util.Error(ctx, 503, "AI service is temporarily unavailable")
		return
	}

	util.Success(ctx, status)
}
