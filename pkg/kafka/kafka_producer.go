package kafka

import (
	"context"
	"log"

	"github.com/segmentio/kafka-go"
)

// Kafka 生产者服务：事件出口。
// 投递语义为至少一次，消费端按消息 Key（事件ID）去重。
// 定义接口，方便测试和替换
type ProducerService interface {
	Produce(ctx context.Context, key []byte, value []byte) error
	Close()
}

type kafkaProducer struct {
	eventWriter *kafka.Writer
}

func NewKafkaProducer(brokerURL string, topic string) ProducerService {
	eventWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokerURL),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // 同一交易员的事件进同一分区，保持有序
		RequiredAcks: kafka.RequireAll,
	}

	return &kafkaProducer{
		eventWriter: eventWriter,
	}
}

// Produce 将序列化后的事件写入 Kafka，Key 为事件ID
func (p *kafkaProducer) Produce(ctx context.Context, key []byte, value []byte) error {
	return p.eventWriter.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

func (p *kafkaProducer) Close() {
	if err := p.eventWriter.Close(); err != nil {
		log.Printf("Error closing event writer: %v", err)
	}
}
