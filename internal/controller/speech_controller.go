package controller

import (
	"edu_tutor_backend/internal/service"
	"edu_tutor_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type SpeechController struct {
	speechService *service.SpeechService
}

func NewSpeechController(speechService *service.SpeechService) *SpeechController {
	return &SpeechController{speechService: speechService}
}

type SynthesizeRequest struct {
	Text  string `json:"text" binding:"required"`
	Voice string `json:"voice"`
}

// Synthesize godoc
// @Summary 文本转语音
// @Description 合成朗读音频并返回可播放的URL
// @Tags 语音
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SynthesizeRequest true "朗读文本与音色"
// @Success 200 {object} util.Response{data=service.SpeechResult}
// @Failure 400 {object} util.Response "音色不支持"
// @Router /api/speech/synthesize [post]
func (c *SpeechController) Synthesize(ctx *gin.Context) {
	var req SynthesizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.speechService.Synthesize(ctx.Request.Context(), req.Text, req.Voice)
	if err != nil {
		if errors.Is(err, util.ErrInvalidVoice) {
			util.BadRequest(ctx, "unsupported voice")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// ListVoices godoc
// @Summary 可用音色列表
// @Tags 语音
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]string}
// @Router /api/speech/voices [get]
func (c *SpeechController) ListVoices(ctx *gin.Context) {
	util.Success(ctx, util.AllowedVoices)
}
