package kafka

import (
	"Pulseboard/internal/model"
	"context"
	stdErrors "errors"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
)

// BatchFunc 处理一批消息，返回 SchemaViolation 时整批跳过不再重试
type BatchFunc func(ctx context.Context, msgs []*sarama.ConsumerMessage) error

// pullMessageBatch 按数量或时间窗口攒批并执行业务逻辑
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, size int, window time.Duration, logic BatchFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, size)
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				if len(batch) > 0 {
					processBatch(session, batch, logic)
				}
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= size {
				processBatch(session, batch, logic)
				// 清空缓冲区 & 重置定时器
				batch = make([]*sarama.ConsumerMessage, 0, size)
				ticker.Reset(window)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, size)
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 处理一批消息，存储类错误按退避重试直到会话结束
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic BatchFunc) {
	ctx := session.Context()
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = 0

	err := backoff.RetryNotify(func() error {
		err := logic(ctx, messages)
		if stdErrors.Is(err, model.ErrSchemaViolation) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		log.Error("process message batch error", "err", err, "wait", wait)
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error("message batch rejected", "size", len(messages), "err", err)
	}

	lastMsg := messages[len(messages)-1]
	session.MarkMessage(lastMsg, "")
}

// decodeRawPosts 解码原始帖子，无法解码的消息记录后跳过
func decodeRawPosts(ctx context.Context, msgs []*sarama.ConsumerMessage) []model.RawPost {
	records := make([]model.RawPost, 0, len(msgs))
	for _, m := range msgs {
		var rec model.RawPost
		if err := json.Unmarshal(m.Value, &rec); err != nil {
			log.WarnContext(ctx, "skip undecodable raw post",
				"topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}
