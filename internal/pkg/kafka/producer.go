package kafka

import (
	"Pulseboard/internal/api/config"
	"Pulseboard/internal/model"
	"context"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// EventProducer 发布批次入库事件
type EventProducer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewEventProducer 连接 broker，启动阶段 broker 未就绪时短暂重试
func NewEventProducer(cfg config.KafkaConfig, topic string) (*EventProducer, error) {
	saramaCfg := newSaramaConfig(cfg)

	var producer sarama.SyncProducer
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 15 * time.Second
	err := backoff.RetryNotify(func() error {
		p, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
		if err != nil {
			return err
		}
		producer = p
		return nil
	}, policy, func(err error, wait time.Duration) {
		log.Warn("Kafka producer not ready, retrying", "err", err, "wait", wait)
	})
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	return NewEventProducerWith(producer, topic), nil
}

// NewEventProducerWith 使用现成的 SyncProducer
func NewEventProducerWith(producer sarama.SyncProducer, topic string) *EventProducer {
	return &EventProducer{producer: producer, topic: topic}
}

// Publish 以来源为 key 发送事件，trace_id 放在消息头中
func (s *EventProducer) Publish(ctx context.Context, evt model.IngestEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "marshal ingest event")
	}
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(evt.Source),
		Value: sarama.ByteEncoder(value),
	}
	if evt.TraceID != "" {
		msg.Headers = []sarama.RecordHeader{{Key: []byte("trace_id"), Value: []byte(evt.TraceID)}}
	}
	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		return errors.Wrap(err, "publish ingest event")
	}
	log.DebugContext(ctx, "ingest event published", "topic", s.topic, "partition", partition, "offset", offset)
	return nil
}

func (s *EventProducer) Close() error {
	return s.producer.Close()
}
