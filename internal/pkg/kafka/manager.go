package kafka

import (
	"Pulseboard/internal/api/config"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理 Kafka 消费者
type ConsumerManager struct {
	ingestConsumer sarama.ConsumerGroup
	ingestHandler  sarama.ConsumerGroupHandler
	topic          string
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg config.KafkaConfig, ingestCfg config.KafkaIngestConsumer, handler *IngestHandler) (*ConsumerManager, error) {
	ingestConsumer, err := sarama.NewConsumerGroup(cfg.Brokers, ingestCfg.GroupID, newSaramaConfig(cfg))
	if err != nil {
		return nil, err
	}
	return &ConsumerManager{
		ingestConsumer: ingestConsumer,
		ingestHandler:  handler,
		topic:          ingestCfg.Topic,
	}, nil
}

// Start 启动消费循环，ctx 结束后关闭消费者
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.ingestConsumer.Errors() {
			log.Error("Error from ingest consumer group", "err", err)
		}
	}()

	go func() {
		log.Info("Ingest consumer started", "topic", m.topic)
		for {
			if err := m.ingestConsumer.Consume(ctx, []string{m.topic}, m.ingestHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.ingestConsumer.Close(); err != nil {
		log.Error("Failed to close ingest consumer", "err", err)
	}
	return nil
}
