package controller

import (
	"errors"
	"net/http"
	"symposium_backend/internal/dto"
	"symposium_backend/internal/model"
	"symposium_backend/internal/service"
	"symposium_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService   *service.AttemptService
	ViolationService *service.ViolationService
	RuleService      *service.RuleService
}

func NewAttemptController(attemptService *service.AttemptService, violationService *service.ViolationService, ruleService *service.RuleService) *AttemptController {
	return &AttemptController{
		AttemptService:   attemptService,
		ViolationService: violationService,
		RuleService:      ruleService,
	}
}

// @Summary 开始或恢复作答
// @Description 同一参赛者在同一轮次只有一次尝试；进行中的尝试会被原样返回
// @Tags 作答
// @Produce json
// @Security BearerAuth
// @Param roundId path int true "轮次ID"
// @Success 201 {object} util.Response{data=dto.AttemptResponse}
// @Success 200 {object} util.Response{data=dto.AttemptResponse}
// @Failure 409 {object} util.Response
// @Router /api/rounds/{roundId}/attempts [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	participantID, ok := currentParticipant(ctx)
	if !ok {
		return
	}
	roundID, ok := parseUintParam(ctx, "roundId")
	if !ok {
		return
	}

	result, err := c.AttemptService.StartAttempt(participantID, roundID)
	if err != nil {
		if errors.Is(err, util.ErrAttemptAlreadyTerminal) && result != nil {
			util.ErrorWithData(ctx, http.StatusConflict, err.Error(), dto.NewAttemptResponse(result.Attempt, c.AttemptService.Now()))
			return
		}
		respondError(ctx, err)
		return
	}

	resp := dto.NewAttemptResponse(result.Attempt, c.AttemptService.Now())
	if result.Resumed {
		util.Success(ctx, resp)
		return
	}
	util.Created(ctx, resp)
}

// @Summary 当前轮次的尝试
// @Tags 作答
// @Produce json
// @Security BearerAuth
// @Param roundId path int true "轮次ID"
// @Success 200 {object} util.Response
// @Router /api/rounds/{roundId}/attempts/current [get]
func (c *AttemptController) GetCurrentAttempt(ctx *gin.Context) {
	participantID, ok := currentParticipant(ctx)
	if !ok {
		return
	}
	roundID, ok := parseUintParam(ctx, "roundId")
	if !ok {
		return
	}

	attempt, err := c.AttemptService.CurrentAttempt(participantID, roundID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if attempt == nil {
		util.Success(ctx, gin.H{"status": model.AttemptNotStarted})
		return
	}
	util.Success(ctx, dto.NewAttemptResponse(attempt, c.AttemptService.Now()))
}

// @Summary 获取尝试详情
// @Tags 作答
// @Produce json
// @Security BearerAuth
// @Param id path string true "尝试ID"
// @Success 200 {object} util.Response{data=dto.AttemptResponse}
// @Router /api/attempts/{id} [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	participantID, ok := currentParticipant(ctx)
	if !ok {
		return
	}

	detail, err := c.AttemptService.GetAttemptDetail(ctx.Param("id"), participantID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	resp := dto.NewAttemptResponse(detail.Attempt, c.AttemptService.Now())
	resp.RemainingSeconds = detail.RemainingSeconds
	resp.AnswerList = dto.NewAnswerList(detail.Answers)
	util.Success(ctx, resp)
}

// @Summary 提交答案
// @Description 截止后到达的答案被忽略，返回 ignored=true
// @Tags 作答
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "尝试ID"
// @Param questionId path int true "题目ID"
// @Param answer body dto.SubmitAnswerRequest true "答案"
// @Success 200 {object} util.Response{data=dto.AnswerSubmitResponse}
// @Router /api/attempts/{id}/answers/{questionId} [put]
func (c *AttemptController) SubmitAnswer(ctx *gin.Context) {
	participantID, ok := currentParticipant(ctx)
	if !ok {
		return
	}
	questionID, ok := parseUintParam(ctx, "questionId")
	if !ok {
		return
	}
	var req dto.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AttemptService.SubmitAnswer(ctx.Param("id"), participantID, questionID, req.Value)
	if err != nil {
		respondError(ctx, err)
		return
	}

	resp := dto.AnswerSubmitResponse{
		Ignored: result.Ignored,
		Attempt: dto.NewAttemptResponse(result.Attempt, c.AttemptService.Now()),
	}
	if result.Answer != nil {
		ans := dto.NewAnswerResponse(result.Answer)
		resp.Answer = &ans
	}
	util.Success(ctx, resp)
}

// @Summary 上报违规
// @Tags 作答
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "尝试ID"
// @Param violation body dto.ViolationRequest true "违规类型"
// @Success 200 {object} util.Response{data=dto.ViolationResponse}
// @Router /api/attempts/{id}/violations [post]
func (c *AttemptController) RecordViolation(ctx *gin.Context) {
	participantID, ok := currentParticipant(ctx)
	if !ok {
		return
	}
	var req dto.ViolationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ViolationService.RecordViolation(ctx.Param("id"), participantID, model.ViolationKind(req.Kind))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, dto.ViolationResponse{
		Kind:              string(result.Kind),
		Counted:           result.Counted,
		ViolationCount:    result.ViolationCount,
		WarningsRemaining: result.WarningsRemaining,
		AutoSubmitted:     result.AutoSubmitted,
		Attempt:           dto.NewAttemptResponse(result.Attempt, c.AttemptService.Now()),
	})
}

// @Summary 交卷
// @Tags 作答
// @Produce json
// @Security BearerAuth
// @Param id path string true "尝试ID"
// @Success 200 {object} util.Response{data=dto.AttemptResponse}
// @Router /api/attempts/{id}/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	participantID, ok := currentParticipant(ctx)
	if !ok {
		return
	}

	attempt, err := c.AttemptService.SubmitAttempt(ctx.Param("id"), participantID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, dto.NewAttemptResponse(attempt, c.AttemptService.Now()))
}

// @Summary 获取轮次监考规则
// @Tags 作答
// @Produce json
// @Security BearerAuth
// @Param roundId path int true "轮次ID"
// @Success 200 {object} util.Response{data=model.EffectiveRules}
// @Router /api/rounds/{roundId}/rules [get]
func (c *AttemptController) GetRules(ctx *gin.Context) {
	roundID, ok := parseUintParam(ctx, "roundId")
	if !ok {
		return
	}
	rules, err := c.RuleService.ResolveRules(roundID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, rules)
}
