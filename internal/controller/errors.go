package controller

import (
	"errors"
	"net/http"
	"symposium_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 将领域错误映射为 HTTP 状态码，未知错误记录日志后返回 500
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAttemptNotFound),
		errors.Is(err, util.ErrRoundNotFound),
		errors.Is(err, util.ErrEventNotFound),
		errors.Is(err, util.ErrParticipantNotFound),
		errors.Is(err, util.ErrRulesNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())

	case errors.Is(err, util.ErrAttemptForbidden),
		errors.Is(err, util.ErrTestNotEnabled),
		errors.Is(err, util.ErrPermissionDenied):
		util.Error(ctx, http.StatusForbidden, err.Error())

	case errors.Is(err, util.ErrAttemptAlreadyTerminal),
		errors.Is(err, util.ErrAttemptNotTerminal),
		errors.Is(err, util.ErrRoundNotAcceptingAttempts),
		errors.Is(err, util.ErrRoundMisconfigured),
		errors.Is(err, util.ErrAnswerNotPending):
		util.Error(ctx, http.StatusConflict, err.Error())

	case errors.Is(err, util.ErrUnknownQuestion),
		errors.Is(err, util.ErrMalformedAnswer),
		errors.Is(err, util.ErrInvalidViolationKind),
		errors.Is(err, util.ErrInvalidFinalizeReason),
		errors.Is(err, util.ErrInvalidOverrideStatus),
		errors.Is(err, util.ErrInvalidRoundStatus),
		errors.Is(err, util.ErrInvalidScope):
		util.BadRequest(ctx, err.Error())

	default:
		util.LogInternalError(ctx, err)
	}
}

func parseUintParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := util.ParseID(ctx.Param(name))
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return id, true
}

// currentParticipant 参赛者路由要求令牌携带 participant_id
func currentParticipant(ctx *gin.Context) (uint, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return 0, false
	}
	if user.ParticipantID == 0 {
		util.Forbidden(ctx)
		return 0, false
	}
	return user.ParticipantID, true
}
