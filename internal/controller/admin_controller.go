package controller

import (
	"symposium_backend/internal/dto"
	"symposium_backend/internal/model"
	"symposium_backend/internal/service"
	"symposium_backend/internal/util"
	"symposium_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminController struct {
	AttemptService     *service.AttemptService
	LeaderboardService *service.LeaderboardService
}

func NewAdminController(attemptService *service.AttemptService, leaderboardService *service.LeaderboardService) *AdminController {
	return &AdminController{
		AttemptService:     attemptService,
		LeaderboardService: leaderboardService,
	}
}

// @Summary 管理员强制结束尝试
// @Description status 默认为 disqualified；已结束的尝试不会被改写
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "尝试ID"
// @Param body body dto.OverrideRequest false "目标状态"
// @Success 200 {object} util.Response{data=dto.AttemptResponse}
// @Router /api/admin/attempts/{id}/override [post]
func (c *AdminController) Override(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	var req dto.OverrideRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	attempt, changed, err := c.AttemptService.Override(ctx.Param("id"), model.AttemptStatus(req.Status), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if changed && req.Note != "" {
		logger.Log.Info("Override note", zap.String("attemptId", attempt.ID), zap.Uint("adminId", user.UserID), zap.String("note", req.Note))
	}
	util.Success(ctx, gin.H{
		"changed": changed,
		"attempt": dto.NewAttemptResponse(attempt, c.AttemptService.Now()),
	})
}

// @Summary 按指定原因结束尝试
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "尝试ID"
// @Param body body dto.FinalizeRequest true "结束原因"
// @Success 200 {object} util.Response{data=dto.AttemptResponse}
// @Router /api/admin/attempts/{id}/finalize [post]
func (c *AdminController) Finalize(ctx *gin.Context) {
	var req dto.FinalizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	attempt, err := c.AttemptService.Finalize(ctx.Param("id"), model.FinalizeReason(req.Reason))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, dto.NewAttemptResponse(attempt, c.AttemptService.Now()))
}

// @Summary 人工评分
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "尝试ID"
// @Param questionId path int true "题目ID"
// @Param body body dto.GradeAnswerRequest true "得分"
// @Success 200 {object} util.Response
// @Router /api/admin/attempts/{id}/answers/{questionId}/grade [put]
func (c *AdminController) GradeAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	questionID, ok := parseUintParam(ctx, "questionId")
	if !ok {
		return
	}
	var req dto.GradeAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, ans, err := c.AttemptService.GradeAnswer(ctx.Param("id"), questionID, *req.Points, req.IsCorrect, user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"answer":  dto.NewAnswerResponse(ans),
		"attempt": dto.NewAttemptResponse(attempt, c.AttemptService.Now()),
	})
}

// @Summary 轮次下所有尝试
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param roundId path int true "轮次ID"
// @Success 200 {object} util.Response{data=[]dto.AttemptResponse}
// @Router /api/admin/rounds/{roundId}/attempts [get]
func (c *AdminController) ListRoundAttempts(ctx *gin.Context) {
	roundID, ok := parseUintParam(ctx, "roundId")
	if !ok {
		return
	}
	attempts, err := c.AttemptService.ListRoundAttempts(roundID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	now := c.AttemptService.Now()
	items := make([]dto.AttemptResponse, 0, len(attempts))
	for i := range attempts {
		items = append(items, dto.NewAttemptResponse(&attempts[i], now))
	}
	util.Success(ctx, gin.H{"items": items, "total": len(items)})
}

// @Summary 更新轮次状态
// @Description 轮次离开进行中状态时，所有进行中的尝试按截止处理
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param roundId path int true "轮次ID"
// @Param body body dto.RoundStatusRequest true "轮次状态"
// @Success 200 {object} util.Response
// @Router /api/admin/rounds/{roundId}/status [post]
func (c *AdminController) SetRoundStatus(ctx *gin.Context) {
	roundID, ok := parseUintParam(ctx, "roundId")
	if !ok {
		return
	}
	var req dto.RoundStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	round, closed, err := c.AttemptService.SetRoundStatus(roundID, model.RoundStatus(req.Status))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"round": round, "closedAttempts": closed})
}

// @Summary 发布轮次成绩
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param roundId path int true "轮次ID"
// @Success 200 {object} util.Response{data=service.Leaderboard}
// @Router /api/admin/rounds/{roundId}/results/publish [post]
func (c *AdminController) PublishRoundResults(ctx *gin.Context) {
	roundID, ok := parseUintParam(ctx, "roundId")
	if !ok {
		return
	}
	c.publish(ctx, service.RoundScope(roundID))
}

// @Summary 发布赛事成绩
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param eventId path int true "赛事ID"
// @Success 200 {object} util.Response{data=service.Leaderboard}
// @Router /api/admin/events/{eventId}/results/publish [post]
func (c *AdminController) PublishEventResults(ctx *gin.Context) {
	eventID, ok := parseUintParam(ctx, "eventId")
	if !ok {
		return
	}
	c.publish(ctx, service.EventScope(eventID))
}

func (c *AdminController) publish(ctx *gin.Context, scope service.Scope) {
	board, err := c.LeaderboardService.PublishResults(scope)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, board)
}
