package controller

import (
	"edu_tutor_backend/internal/model"
	"edu_tutor_backend/internal/service"
	"edu_tutor_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	quizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{quizService: quizService}
}

// Generate godoc
// @Summary 生成测验
// @Description 针对成就标准生成一套题目并创建新的测验会话
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.GenerateQuizRequest true "出题参数"
// @Success 201 {object} util.Response{data=model.QuizSession}
// @Failure 404 {object} util.Response "成就标准不存在"
// @Failure 502 {object} util.Response "AI响应格式错误"
// @Router /api/quiz/sessions [post]
func (c *QuizController) Generate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.GenerateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.quizService.GenerateQuiz(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Created(ctx, session)
}

// GetSession godoc
// @Summary 测验会话快照
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=model.QuizSession}
// @Failure 404 {object} util.Response
// @Router /api/quiz/sessions/{id} [get]
func (c *QuizController) GetSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	session, err := c.quizService.GetSession(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

type SelectOptionRequest struct {
	Option string `json:"option" binding:"required"`
}

// SelectOption godoc
// @Summary 选择客观题选项
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   body body SelectOptionRequest true "选中的选项"
// @Success 200 {object} util.Response{data=model.QuizSession}
// @Failure 409 {object} util.Response "当前状态不允许该操作"
// @Router /api/quiz/sessions/{id}/select [post]
func (c *QuizController) SelectOption(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req SelectOptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.quizService.SelectOption(ctx.Request.Context(), claims.UserID, ctx.Param("id"), req.Option)
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

type EditFreeTextRequest struct {
	Text string `json:"text"`
}

// EditFreeText godoc
// @Summary 编辑主观题草稿
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   body body EditFreeTextRequest true "草稿文本"
// @Success 200 {object} util.Response{data=model.QuizSession}
// @Failure 409 {object} util.Response "当前状态不允许该操作"
// @Router /api/quiz/sessions/{id}/draft [put]
func (c *QuizController) EditFreeText(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req EditFreeTextRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.quizService.EditFreeText(ctx.Request.Context(), claims.UserID, ctx.Param("id"), req.Text)
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// CheckAnswer godoc
// @Summary 对答案
// @Description 提交当前题作答并揭示答案与解析
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=model.QuizSession}
// @Failure 409 {object} util.Response "未作答或已对过答案"
// @Router /api/quiz/sessions/{id}/check [post]
func (c *QuizController) CheckAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	session, err := c.quizService.CheckAnswer(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// Evaluate godoc
// @Summary AI评阅主观题
// @Description 请求AI对当前主观题作答给出评级与反馈
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=model.QuizSession}
// @Failure 409 {object} util.Response "当前状态不允许该操作"
// @Failure 502 {object} util.Response "AI响应格式错误"
// @Router /api/quiz/sessions/{id}/evaluate [post]
func (c *QuizController) Evaluate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	session, err := c.quizService.EvaluateAnswer(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

type SelectGradeRequest struct {
	Grade string `json:"grade" binding:"required"`
}

// SelectGrade godoc
// @Summary 选择主观题评分
// @Description 为当前主观题选择A~E评分，可覆盖AI给出的评级
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   body body SelectGradeRequest true "评分等级"
// @Success 200 {object} util.Response{data=model.QuizSession}
// @Failure 400 {object} util.Response "评分等级无效"
// @Router /api/quiz/sessions/{id}/grade [post]
func (c *QuizController) SelectGrade(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req SelectGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.quizService.SelectGrade(ctx.Request.Context(), claims.UserID, ctx.Param("id"), model.Grade(req.Grade))
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// Advance godoc
// @Summary 前进到下一题
// @Description 在最后一题上前进会结算整卷并返回成绩摘要
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=service.AdvanceResponse}
// @Failure 409 {object} util.Response "当前题未完成"
// @Router /api/quiz/sessions/{id}/advance [post]
func (c *QuizController) Advance(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	resp, err := c.quizService.Advance(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, resp)
}

// GoBack godoc
// @Summary 回看上一题
// @Description 只移动指针，不改变任何作答状态
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=model.QuizSession}
// @Failure 409 {object} util.Response "已在第一题"
// @Router /api/quiz/sessions/{id}/back [post]
func (c *QuizController) GoBack(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	session, err := c.quizService.GoBack(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// ToggleTranslation godoc
// @Summary 切换译文显示
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=model.QuizSession}
// @Router /api/quiz/sessions/{id}/translation [post]
func (c *QuizController) ToggleTranslation(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	session, err := c.quizService.ToggleTranslation(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		respondQuizError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// respondQuizError 状态迁移被拒绝一律映射为409，会话数据保持不变
func respondQuizError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound), errors.Is(err, util.ErrStandardNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrInvalidGrade):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrSessionCompleted),
		errors.Is(err, util.ErrQuestionChecked),
		errors.Is(err, util.ErrQuestionNotChecked),
		errors.Is(err, util.ErrAnswerMissing),
		errors.Is(err, util.ErrGradeRequired),
		errors.Is(err, util.ErrNotFreeText),
		errors.Is(err, util.ErrNotObjective),
		errors.Is(err, util.ErrAlreadyFirst):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrMalformedAIResponse):
		util.Error(ctx, 502, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
