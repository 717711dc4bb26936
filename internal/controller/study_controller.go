package controller

import (
	"edu_tutor_backend/internal/service"
	"edu_tutor_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type StudyController struct {
	studyService *service.StudyService
}

func NewStudyController(studyService *service.StudyService) *StudyController {
	return &StudyController{studyService: studyService}
}

type OpenStudyRequest struct {
	StandardID uint `json:"standardId" binding:"required"`
}

// OpenSession godoc
// @Summary 打开学习会话
// @Description 针对一个成就标准打开学习会话，解说/插图/摘要并发生成
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body OpenStudyRequest true "成就标准ID"
// @Success 201 {object} util.Response{data=service.StudySessionView}
// @Failure 404 {object} util.Response "成就标准不存在"
// @Router /api/study/sessions [post]
func (c *StudyController) OpenSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req OpenStudyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.studyService.Open(claims.UserID, req.StandardID)
	if err != nil {
		if errors.Is(err, util.ErrStandardNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, view)
}

// GetSession godoc
// @Summary 学习会话快照
// @Description 轮询三个生成槽位的当前状态
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.StudySessionView}
// @Failure 404 {object} util.Response
// @Router /api/study/sessions/{id} [get]
func (c *StudyController) GetSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	view, err := c.studyService.GetSession(claims.UserID, ctx.Param("id"))
	if err != nil {
		respondStudyError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask godoc
// @Summary 学习追问（SSE流式）
// @Description 在学习会话上下文中追问，回答以SSE片段流返回
// @Tags 学习
// @Accept  json
// @Produce  text/event-stream
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   body body AskRequest true "问题内容"
// @Router /api/study/sessions/{id}/ask [post]
func (c *StudyController) Ask(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	stream, errChan, err := c.studyService.Ask(claims.UserID, ctx.Param("id"), req.Question)
	if err != nil {
		respondStudyError(ctx, err)
		return
	}

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("Transfer-Encoding", "chunked")

	for content := range stream {
		ctx.SSEvent("message", content)
		ctx.Writer.Flush()
	}

	if err := <-errChan; err != nil {
		ctx.SSEvent("error", err.Error())
		ctx.Writer.Flush()
	}

	ctx.SSEvent("end", "done")
	ctx.Writer.Flush()
}

// CloseSession godoc
// @Summary 关闭学习会话
// @Description 关闭会话并取消在途生成请求
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/study/sessions/{id} [delete]
func (c *StudyController) CloseSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	if err := c.studyService.Close(claims.UserID, ctx.Param("id")); err != nil {
		respondStudyError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

func respondStudyError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}
