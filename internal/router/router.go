package router

import (
	"github.com/gin-gonic/gin"

	"perpwatch/internal/handler/board"
	"perpwatch/internal/handler/ping"
	"perpwatch/internal/middleware"
)

type ApiRouter struct {
	boardHandler *board.Handler
}

func NewApiRouter(boardHandler *board.Handler) *ApiRouter {
	return &ApiRouter{boardHandler: boardHandler}
}

func (api *ApiRouter) Load(g *gin.Engine) {
	g.GET("/ping", ping.Ping())

	base := g.Group("/api/v1")

	b := base.Group("/board", middleware.AntiDuplicateMiddleware(), middleware.NoCache())
	{
		// 当前排行榜
		b.GET("/ranking", api.boardHandler.RankingGet())
		// 交易员详情
		b.GET("/trader", api.boardHandler.TraderDetailGet())
		// 最近事件
		b.GET("/events", api.boardHandler.EventsGet())
		// 后台运行记录
		b.GET("/runs", api.boardHandler.RunsGet())
	}
}
