package wire

import (
	"Pulseboard/internal/api"
	"Pulseboard/internal/api/config"
	"Pulseboard/internal/api/handler"
	"Pulseboard/internal/job"
	"Pulseboard/internal/model"
	"Pulseboard/internal/pkg/cron"
	"Pulseboard/internal/pkg/csvsource"
	"Pulseboard/internal/pkg/database"
	"Pulseboard/internal/pkg/kafka"
	"Pulseboard/internal/pkg/minio"
	"Pulseboard/internal/pkg/mongo"
	"Pulseboard/internal/pkg/redis"
	"Pulseboard/internal/pkg/ws"
	"Pulseboard/internal/repository"
	"Pulseboard/internal/service"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
	miniogo "github.com/minio/minio-go/v7"
	redisv9 "github.com/redis/go-redis/v9"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	CronMgr      *cron.Manager
	KafkaManager *kafka.ConsumerManager // 未启用 Kafka 时为 nil
	Hub          *ws.Hub
	IngestSvc    service.IngestService

	closers []func()
}

// Close 按创建的逆序释放外部连接
func (s *ApplicationContainer) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

type migrator interface {
	AutoMigrate() error
}

// BuildPostRepo 按配置选择存储后端，返回的清理函数负责断开连接
func BuildPostRepo(cfg *config.Config) (repository.PostRepo, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreMongo:
		db, err := mongo.InitMongo(cfg.Mongo)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err = mongo.EnsurePostCollection(ctx, db, cfg.Mongo.Collection); err != nil {
			mongo.Close(db)
			return nil, nil, err
		}
		return mongo.NewPostRepo(db, cfg.Mongo.Collection), func() { mongo.Close(db) }, nil

	case config.StoreMySQL, config.StorePostgres:
		dbCfg := cfg.DB
		db, err := database.NewGormDB(cfg.Store.Backend, &dbCfg)
		if err != nil {
			return nil, nil, err
		}
		closer := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		repo := repository.NewPostRepo(db)
		if m, ok := repo.(migrator); ok {
			if err = m.AutoMigrate(); err != nil {
				closer()
				return nil, nil, err
			}
		}
		return repo, closer, nil

	case config.StoreMemory:
		log.Warn("Using in-memory store, data is lost on restart")
		return repository.NewPostMemoryRepo(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
}

// BuildCSVSource 解析 CSV 来源，minio:// 地址需要开启 MinIO
func BuildCSVSource(cfg *config.Config) (csvsource.Source, error) {
	if cfg.Ingest.CSVSource == "" {
		return nil, nil
	}
	var client *miniogo.Client
	if cfg.MinIO.Enable {
		c, err := minio.Init(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		client = c
	}
	return csvsource.New(cfg.Ingest.CSVSource, client)
}

func BuildApplication(cfg *config.Config) (*ApplicationContainer, error) {
	app := &ApplicationContainer{}
	fail := func(err error) (*ApplicationContainer, error) {
		app.Close()
		return nil, err
	}

	repo, closeRepo, err := BuildPostRepo(cfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeRepo)

	// Redis 可选：聚合缓存与 WebSocket 跨实例广播
	var rdb *redisv9.Client
	var cache service.AggCache
	if cfg.Redis.Enable {
		rdb, err = redis.InitRedis(cfg.Redis)
		if err != nil {
			return fail(fmt.Errorf("connect redis: %w", err))
		}
		app.closers = append(app.closers, func() { _ = rdb.Close() })
		cache = redis.NewAggCache(rdb, time.Duration(cfg.Redis.CacheTTL)*time.Second)
	}

	source, err := BuildCSVSource(cfg)
	if err != nil {
		return fail(err)
	}

	store := service.NewPostStoreService(repo, cache)

	hub := ws.NewHub(rdb)
	publishers := []service.EventPublisher{hub}
	if cfg.Kafka.Enable {
		producer, err := kafka.NewEventProducer(cfg.Kafka, cfg.KafkaProducer.Topic)
		if err != nil {
			return fail(fmt.Errorf("create kafka producer: %w", err))
		}
		app.closers = append(app.closers, func() { _ = producer.Close() })
		publishers = append(publishers, producer)
	}

	ingestSvc := service.NewIngestService(store, source, nil, cfg.Ingest, publishers...)
	ingestJob := job.NewIngestJob(ingestSvc)
	cronMgr := cron.NewCronManager(ingestJob, time.Duration(cfg.Ingest.Interval)*time.Second)
	reportSvc := service.NewReportService(store, cronMgr)

	if cfg.Kafka.Enable {
		ingest := func(ctx context.Context, records []model.RawPost, from string) error {
			_, err := ingestSvc.IngestRaw(ctx, records, from)
			return err
		}
		h := kafka.NewIngestHandler(ingest, cfg.KafkaIngest.BatchSize,
			time.Duration(cfg.KafkaIngest.Window)*time.Millisecond)
		app.KafkaManager, err = kafka.NewConsumerManager(cfg.Kafka, cfg.KafkaIngest, h)
		if err != nil {
			return fail(fmt.Errorf("create kafka consumer: %w", err))
		}
	}

	handlers := &api.HandlersGroup{
		ReportHandler: handler.NewReportHandler(reportSvc),
		PostHandler:   handler.NewPostHandler(store),
		IngestHandler: handler.NewIngestHandler(ingestSvc, reportSvc),
		WsHandler:     handler.NewWsHandler(hub),
	}

	app.Router = api.SetupRouter(handlers)
	app.CronMgr = cronMgr
	app.Hub = hub
	app.IngestSvc = ingestSvc
	return app, nil
}
