package controller

import (
	"edu_tutor_backend/internal/repository"
	"edu_tutor_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type StandardController struct {
	standardRepo *repository.StandardRepository
}

func NewStandardController(standardRepo *repository.StandardRepository) *StandardController {
	return &StandardController{standardRepo: standardRepo}
}

// ListStandards godoc
// @Summary 成就标准目录
// @Description 按科目/学段筛选的成就标准分页列表
// @Tags 成就标准
// @Produce  json
// @Security ApiKeyAuth
// @Param   subject query string false "科目"
// @Param   schoolLevel query string false "学段"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/standards [get]
func (c *StandardController) ListStandards(ctx *gin.Context) {
	subject := ctx.Query("subject")
	schoolLevel := ctx.Query("schoolLevel")
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	stds, total, err := c.standardRepo.List(subject, schoolLevel, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: stds, Total: total, Page: page, Limit: limit})
}

// GetStandard godoc
// @Summary 成就标准详情
// @Tags 成就标准
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "成就标准ID"
// @Success 200 {object} util.Response{data=model.Standard}
// @Failure 404 {object} util.Response
// @Router /api/standards/{id} [get]
func (c *StandardController) GetStandard(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid standard id")
		return
	}

	std, err := c.standardRepo.FindByID(uint(id))
	if err != nil {
		util.NotFound(ctx)
		return
	}

	util.Success(ctx, std)
}

// ListSubjects godoc
// @Summary 科目列表
// @Tags 成就标准
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]string}
// @Router /api/standards/subjects [get]
func (c *StandardController) ListSubjects(ctx *gin.Context) {
	subjects, err := c.standardRepo.ListSubjects()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, subjects)
}
