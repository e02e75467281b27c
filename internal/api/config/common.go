package config

// Config 配置主体
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Store         StoreConfig         `mapstructure:"store"`
	Mongo         MongoConfig         `mapstructure:"mongo"`
	DB            DBConfig            `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	KafkaProducer KafkaProducerConfig `mapstructure:"kafka_producer"`
	KafkaIngest   KafkaIngestConsumer `mapstructure:"kafka_ingest_consumer"`
	Ingest        IngestConfig        `mapstructure:"ingest"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // 秒
}

// LogConfig 日志配置，RemoteAddr 为空时只输出到 stdout
type LogConfig struct {
	Level      string `mapstructure:"level"`
	RemoteAddr string `mapstructure:"remote_addr"`
}

// 存储后端
const (
	StoreMongo    = "mongo"
	StoreMySQL    = "mysql"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

type MongoConfig struct {
	URL          string `mapstructure:"url"`
	Database     string `mapstructure:"database"`
	Collection   string `mapstructure:"collection"`
	MaxRetries   int    `mapstructure:"max_retries"`
	RetryTimeout int    `mapstructure:"retry_timeout"` // 秒，连接重试的总时长
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	CacheTTL int    `mapstructure:"cache_ttl"` // 秒
}

// MinIOConfig MinIO配置，仅用于读取 minio:// 形式的 CSV 源
type MinIOConfig struct {
	Enable    bool   `mapstructure:"enable"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type KafkaConfig struct {
	Enable   bool           `mapstructure:"enable"`
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ConsumerConfig 时间单位均为秒
type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
}

// KafkaProducerConfig 批次入库事件
type KafkaProducerConfig struct {
	Topic string `mapstructure:"topic"`
}

// KafkaIngestConsumer 外部原始帖子流
type KafkaIngestConsumer struct {
	Topic     string `mapstructure:"topic"`
	GroupID   string `mapstructure:"group_id"`
	BatchSize int    `mapstructure:"batch_size"`
	Window    int    `mapstructure:"window"` // 毫秒
}

// IngestConfig 导入与定时生成配置
type IngestConfig struct {
	CSVSource          string `mapstructure:"csv_source"` // 本地路径或 minio://bucket/object
	BootstrapMockCount int    `mapstructure:"bootstrap_mock_count"`
	BatchMin           int    `mapstructure:"batch_min"`
	BatchMax           int    `mapstructure:"batch_max"`
	Interval           int    `mapstructure:"interval"` // 秒
	AutoStart          bool   `mapstructure:"auto_start"`
}
