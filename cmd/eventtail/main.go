package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"perpwatch/conf"
	"perpwatch/internal/model"
	"perpwatch/pkg/kafka"
)

// 事件巡检工具：从事件主题的最新位置开始消费并逐条打印，
// 用于验证发布链路和消费端看到的消息形态。

func main() {
	configPath := flag.String("config", "conf/config.yaml", "配置文件路径")
	groupID := flag.String("group", "perpwatch-eventtail", "消费组ID")
	flag.Parse()

	if err := conf.LoadConfig(*configPath); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appCfg := conf.AppConfig

	consumer := kafka.NewKafkaConsumer(appCfg.Kafka.Broker)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sgn := make(chan os.Signal, 1)
	signal.Notify(sgn, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sgn
		cancel()
	}()

	msgs, err := consumer.Consume(ctx, appCfg.Kafka.Topic, *groupID)
	if err != nil {
		log.Fatalf("consume %s: %v", appCfg.Kafka.Topic, err)
	}

	fmt.Printf("tailing topic %s on %s, ctrl-c to stop\n", appCfg.Kafka.Topic, appCfg.Kafka.Broker)
	for m := range msgs {
		var payload model.EventPayload
		if err := json.Unmarshal(m.Value, &payload); err != nil {
			fmt.Printf("offset=%d key=%s (unparsed) %s\n", m.Offset, string(m.Key), string(m.Value))
			continue
		}
		fmt.Printf("offset=%d %s %s %s %s px=%s sz=%s notional=%s\n",
			m.Offset, payload.EventType, payload.Address, payload.Coin, payload.Side,
			payload.Px, payload.Sz, payload.Notional)
	}
}
