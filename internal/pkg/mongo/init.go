package mongo

import (
	"Pulseboard/internal/api/config"
	"Pulseboard/internal/pkg/logger"
	"context"
	log "log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InitMongo 建立连接并返回 Database 引用，连接失败时按指数退避重试
func InitMongo(cfg config.MongoConfig) (*mongo.Database, error) {
	var client *mongo.Client

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Duration(cfg.RetryTimeout) * time.Second
	retry := backoff.WithMaxRetries(policy, uint64(max(cfg.MaxRetries, 0)))

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// 建立连接
		c, err := mongo.Connect(ctx, options.Client().
			ApplyURI(cfg.URL).
			SetMonitor(logger.NewMongoMonitor()),
		)
		if err != nil {
			log.Warn("MongoDB connect failed", "attempt", attempt, "err", err)
			return err
		}

		// 检查连通性
		if err = c.Ping(ctx, nil); err != nil {
			log.Warn("MongoDB ping failed", "attempt", attempt, "err", err)
			_ = c.Disconnect(context.Background())
			return err
		}
		client = c
		return nil
	}, retry)
	if err != nil {
		return nil, err
	}

	db := client.Database(cfg.Database)

	log.Info("MongoDB initialized successfully", "db", cfg.Database, "attempts", attempt)
	return db, nil
}

// Close 断开底层客户端
func Close(db *mongo.Database) {
	if db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Client().Disconnect(ctx); err != nil {
		log.Error("MongoDB disconnect failed", "err", err)
	}
}
