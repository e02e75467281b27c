package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，配置文件缺失时使用默认值
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	Cfg = &cfg

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.shutdown_timeout", 5)
	v.SetDefault("log.level", "info")

	v.SetDefault("store.backend", StoreMongo)
	v.SetDefault("mongo.url", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "social_media_analytics")
	v.SetDefault("mongo.collection", "social_media_posts")
	v.SetDefault("mongo.max_retries", 5)
	v.SetDefault("mongo.retry_timeout", 30)

	v.SetDefault("database.max_idle", 5)
	v.SetDefault("database.max_open", 20)
	v.SetDefault("database.max_lifetime", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.cache_ttl", 30)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.consumer.session_timeout", 10)
	v.SetDefault("kafka.consumer.heartbeat_interval", 3)
	v.SetDefault("kafka.consumer.rebalance_timeout", 60)
	v.SetDefault("kafka_producer.topic", "posts.ingested")
	v.SetDefault("kafka_ingest_consumer.topic", "posts.raw")
	v.SetDefault("kafka_ingest_consumer.group_id", "pulseboard-ingest")
	v.SetDefault("kafka_ingest_consumer.batch_size", 50)
	v.SetDefault("kafka_ingest_consumer.window", 1000)

	v.SetDefault("ingest.csv_source", "data/social_media_engagement_data.csv")
	v.SetDefault("ingest.bootstrap_mock_count", 100)
	v.SetDefault("ingest.batch_min", 10)
	v.SetDefault("ingest.batch_max", 50)
	v.SetDefault("ingest.interval", 30)
	v.SetDefault("ingest.auto_start", true)
}

// Validate 检查互相关联的配置项
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMongo, StoreMySQL, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unsupported store backend %q", c.Store.Backend)
	}
	if (c.Store.Backend == StoreMySQL || c.Store.Backend == StorePostgres) && c.DB.DSN == "" {
		return fmt.Errorf("database.dsn is required for store backend %q", c.Store.Backend)
	}
	if c.Ingest.BatchMin < 1 || c.Ingest.BatchMax < c.Ingest.BatchMin {
		return fmt.Errorf("invalid ingest batch range [%d, %d]", c.Ingest.BatchMin, c.Ingest.BatchMax)
	}
	if c.Ingest.Interval < 1 {
		return fmt.Errorf("ingest.interval must be positive, got %d", c.Ingest.Interval)
	}
	if c.Ingest.BootstrapMockCount < 0 {
		return fmt.Errorf("ingest.bootstrap_mock_count must not be negative")
	}
	return nil
}
