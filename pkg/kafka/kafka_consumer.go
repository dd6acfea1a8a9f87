package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"perpwatch/pkg/logger"
)

// ConsumerService 消费事件主题的通用接口，事件巡检工具用
type ConsumerService interface {
	// Consume 启动一个协程消费指定主题，将消息发送到返回的通道
	Consume(ctx context.Context, topic string, groupID string) (<-chan kafka.Message, error)
	Close()
}

type kafkaConsumer struct {
	brokerURL string
}

func NewKafkaConsumer(brokerURL string) ConsumerService {
	return &kafkaConsumer{
		brokerURL: brokerURL,
	}
}

func (c *kafkaConsumer) Consume(ctx context.Context, topic string, groupID string) (<-chan kafka.Message, error) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{c.brokerURL},
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
		// 巡检从最新 offset 开始，历史事件走数据库读接口
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second, // 每秒自动提交
		MaxAttempts:    3,
	})
	outputCh := make(chan kafka.Message, 1000)

	go func() {
		defer close(outputCh)
		defer r.Close()
		for {
			m, err := r.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				logger.Errorf("kafka read error on topic %s: %v", topic, err)
				time.Sleep(time.Second)
				continue
			}

			select {
			case outputCh <- m:
			case <-ctx.Done():
				return
			default:
				// 队列满则丢弃并提交，巡检工具不做回压
				logger.Warnf("consumer channel full, dropping message at offset %d", m.Offset)
				_ = r.CommitMessages(ctx, m)
			}
		}
		logger.Infof("kafka consumer for topic %s finished", topic)
	}()

	return outputCh, nil
}

func (c *kafkaConsumer) Close() {
	logger.Info("kafka consumer service closing")
}
