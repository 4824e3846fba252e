package controller

import (
	"symposium_backend/internal/service"
	"symposium_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RealtimeController struct {
	Broker service.Broker
}

func NewRealtimeController(broker service.Broker) *RealtimeController {
	return &RealtimeController{Broker: broker}
}

// @Summary 实时事件订阅 (WebSocket)
// @Description 通过 round 或 event 查询参数选择订阅范围，可同时指定
// @Tags 实时
// @Param round query int false "轮次ID"
// @Param event query int false "赛事ID"
// @Router /api/realtime/ws [get]
func (c *RealtimeController) ServeWs(ctx *gin.Context) {
	var topics []string
	if id := util.MustParseUint(ctx.Query("round")); id != 0 {
		topics = append(topics, service.RoundTopic(id))
	}
	if id := util.MustParseUint(ctx.Query("event")); id != 0 {
		topics = append(topics, service.EventTopic(id))
	}
	if len(topics) == 0 {
		util.BadRequest(ctx, "round or event query parameter is required")
		return
	}
	service.ServeRealtime(c.Broker, ctx.Writer, ctx.Request, topics)
}
