package board

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"perpwatch/internal/service"
	"perpwatch/pkg/errors"
	"perpwatch/pkg/errors/ecode"
	"perpwatch/pkg/response"
)

type Handler struct {
	service *service.BoardService
}

func NewHandler(service *service.BoardService) *Handler {
	return &Handler{service: service}
}

// RankingGet 当前排行榜，?window_hours=24&limit=50
func (h *Handler) RankingGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		windowHours := intQuery(ctx, "window_hours", 24)
		limit := clamp(intQuery(ctx, "limit", 50), 1, 200)

		res, err := h.service.CurrentRanking(ctx, windowHours, limit)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, res)
	}
}

// TraderDetailGet 交易员详情，?address=0x..&sub_account=0
func (h *Handler) TraderDetailGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		address := strings.ToLower(strings.TrimSpace(ctx.Query("address")))
		if address == "" {
			response.JSON(ctx, errors.New(ecode.InvalidParamErr).WithMessage("address is required"), nil)
			return
		}
		subAccount := intQuery(ctx, "sub_account", 0)

		detail, daily, err := h.service.TraderDetail(ctx, address, subAccount)
		if err != nil {
			response.JSON(ctx, errors.Wrap(ecode.NotFoundErr, err), nil)
			return
		}
		response.JSON(ctx, nil, gin.H{
			"detail": detail,
			"daily":  daily,
		})
	}
}

// EventsGet 最近已发布事件，?limit=50
func (h *Handler) EventsGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		limit := clamp(intQuery(ctx, "limit", 50), 1, 200)

		events, err := h.service.RecentEvents(ctx, limit)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, events)
	}
}

// RunsGet 某类后台操作最近的运行记录，?op=ranking&limit=20
func (h *Handler) RunsGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		opType := ctx.DefaultQuery("op", "ranking")
		limit := clamp(intQuery(ctx, "limit", 20), 1, 100)

		runs, err := h.service.RecentRuns(ctx, opType, limit)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, runs)
	}
}

func intQuery(ctx *gin.Context, key string, def int) int {
	raw := ctx.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
