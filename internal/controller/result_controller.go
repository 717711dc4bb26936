package controller

import (
	"edu_tutor_backend/internal/repository"
	"edu_tutor_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ResultController struct {
	resultRepo *repository.QuizResultRepository
}

func NewResultController(resultRepo *repository.QuizResultRepository) *ResultController {
	return &ResultController{resultRepo: resultRepo}
}

// ListResults godoc
// @Summary 历史成绩列表
// @Description 当前用户的测验成绩，按时间倒序分页
// @Tags 历史成绩
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/results [get]
func (c *ResultController) ListResults(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	results, total, err := c.resultRepo.ListByUser(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: results, Total: total, Page: page, Limit: limit})
}

// GetResult godoc
// @Summary 成绩详情
// @Description 单次测验的完整快照（题目、作答、逐题对错）
// @Tags 历史成绩
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "成绩ID"
// @Success 200 {object} util.Response{data=model.QuizResult}
// @Failure 404 {object} util.Response
// @Router /api/results/{id} [get]
func (c *ResultController) GetResult(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid result id")
		return
	}

	result, err := c.resultRepo.FindByID(uint(id))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	if result.UserID != claims.UserID {
		util.Forbidden(ctx)
		return
	}

	util.Success(ctx, result)
}

// DeleteResult godoc
// @Summary 删除一条成绩
// @Tags 历史成绩
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "成绩ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/results/{id} [delete]
func (c *ResultController) DeleteResult(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid result id")
		return
	}

	result, err := c.resultRepo.FindByID(uint(id))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	if result.UserID != claims.UserID {
		util.Forbidden(ctx)
		return
	}

	if err := c.resultRepo.Delete(uint(id)); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}
