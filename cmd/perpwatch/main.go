package main

import (
	"fmt"
	"log"
	"os"

	"perpwatch/conf"
	"perpwatch/internal/middleware"
	"perpwatch/internal/model/entity"
	"perpwatch/pkg/cache"
	"perpwatch/pkg/db"
	"perpwatch/pkg/kafka"
	"perpwatch/pkg/logger"
)

func main() {

	// 加载配置文件
	err := conf.LoadConfig("conf/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appCfg := conf.AppConfig
	logger.InitLogger(&appCfg.Log, appCfg.AppName)
	defer logger.Sync()

	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")
	if dbUser == "" || dbPass == "" || dbHost == "" {
		dbUser = conf.AppConfig.Username
		dbPass = conf.AppConfig.Db.Password
		dbHost = conf.AppConfig.Host
		dbPort = conf.AppConfig.Port
		dbName = conf.AppConfig.DbName
	}

	// 初始化数据库
	datasource := db.Init(db.Config{
		User:      dbUser,
		Password:  dbPass,
		Host:      dbHost,
		Port:      dbPort,
		DBName:    dbName,
		ParseTime: true,
	})

	// 建表
	err = datasource.AutoMigrate(
		&entity.Trader{},
		&entity.Fill{},
		&entity.RankingSnapshot{},
		&entity.FillEvent{},
		&entity.OperationLogEntry{},
		&entity.HistoricalPnlSample{},
		&entity.TraderPeriodMetrics{},
	)
	if err != nil {
		logger.Fatalf("auto migrate failed: %v", err)
	}

	redisHost := os.Getenv("REDIS_HOST")
	redisPort := os.Getenv("REDIS_PORT")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisAddr := fmt.Sprintf("%s:%s", redisHost, redisPort)
	if redisHost == "" || redisPort == "" {
		redisAddr = conf.AppConfig.Redis.Addr
	}
	if redisPassword != "" {
		appCfg.Redis.Password = redisPassword
	}
	appCfg.Redis.Addr = redisAddr

	// 初始化redis缓存
	cache.InitRedis(appCfg.Redis)

	// 事件出口
	producer := kafka.NewKafkaProducer(appCfg.Kafka.Broker, appCfg.Kafka.Topic)

	srvRouter, sched, err := InitApp(datasource, cache.GetRedisClient(), producer)
	if err != nil {
		logger.Fatalf("init app failed: %v", err)
	}

	// 拉起后台循环
	sched.Start()

	// 创建并启动服务
	srv := NewServer(&appCfg)
	srv.RegisterOnShutdown(func() {
		sched.Stop()
		producer.Close()

		if datasource != nil {
			// 关闭主库链接
			m, err := datasource.DB()
			if err == nil {
				_ = m.Close()
			}
		}

		cache.CloseRedis()
	})

	srv.Run(middleware.NewMiddleware(), srvRouter)
}
