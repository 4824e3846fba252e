package controller

import (
	"symposium_backend/internal/service"
	"symposium_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

// @Summary 轮次排行榜
// @Tags 排行榜
// @Produce json
// @Security BearerAuth
// @Param roundId path int true "轮次ID"
// @Success 200 {object} util.Response{data=service.Leaderboard}
// @Router /api/rounds/{roundId}/leaderboard [get]
func (c *LeaderboardController) RoundLeaderboard(ctx *gin.Context) {
	roundID, ok := parseUintParam(ctx, "roundId")
	if !ok {
		return
	}
	c.respond(ctx, service.RoundScope(roundID))
}

// @Summary 赛事总排行榜
// @Tags 排行榜
// @Produce json
// @Security BearerAuth
// @Param eventId path int true "赛事ID"
// @Success 200 {object} util.Response{data=service.Leaderboard}
// @Router /api/events/{eventId}/leaderboard [get]
func (c *LeaderboardController) EventLeaderboard(ctx *gin.Context) {
	eventID, ok := parseUintParam(ctx, "eventId")
	if !ok {
		return
	}
	c.respond(ctx, service.EventScope(eventID))
}

func (c *LeaderboardController) respond(ctx *gin.Context, scope service.Scope) {
	board, err := c.LeaderboardService.BuildLeaderboard(scope)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, board)
}
