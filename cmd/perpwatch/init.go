package main

import (
	"context"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"perpwatch/conf"
	"perpwatch/internal/dao/query"
	"perpwatch/internal/handler/board"
	"perpwatch/internal/router"
	"perpwatch/internal/scheduler"
	"perpwatch/internal/service"
	"perpwatch/pkg/indexer/rest"
	"perpwatch/pkg/kafka"
)

// InitApp 组装 DAO、服务、后台调度器和 HTTP 路由
func InitApp(db *gorm.DB, rc *redis.Client, producer kafka.ProducerService) (Router, *scheduler.Scheduler, error) {
	appCfg := conf.AppConfig

	traderDao := query.NewTraderDao(db)
	fillDao := query.NewFillDao(db)
	rankingDao := query.NewRankingDao(db)
	eventDao := query.NewFillEventDao(db)
	opLogDao := query.NewOpLogDao(db)
	pnlSampleDao := query.NewPnlSampleDao(db)
	periodMetricsDao := query.NewPeriodMetricsDao(db)

	client, err := rest.NewIndexerClient(appCfg.Indexer)
	if err != nil {
		return nil, nil, err
	}

	registry := service.NewRegistryService(traderDao)
	oplog := service.NewOpLogService(opLogDao)

	// 种子地址先入库，发现循环之后再补充
	if err := registry.SeedTracked(context.Background(), appCfg.Watch.TrackedTraders); err != nil {
		return nil, nil, err
	}

	detector, err := service.NewDetectorService(fillDao, eventDao, appCfg.Events)
	if err != nil {
		return nil, nil, err
	}

	ingester := service.NewIngesterService(registry, traderDao, fillDao, periodMetricsDao, client, detector, appCfg.Watch)
	ranking := service.NewRankingService(registry, fillDao, rankingDao, appCfg.Ranking)
	discovery := service.NewDiscoveryService(registry, pnlSampleDao, client, appCfg.Discovery)
	publisher := service.NewPublisherService(eventDao, producer, appCfg.Events)

	sched := scheduler.NewScheduler(ingester, ranking, discovery, publisher, oplog)

	boardService := service.NewBoardService(traderDao, rankingDao, eventDao, opLogDao, periodMetricsDao, rc)
	boardHandler := board.NewHandler(boardService)

	return router.NewApiRouter(boardHandler), sched, nil
}
