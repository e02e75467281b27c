package main

import (
	"Pulseboard/internal/api/config"
	"Pulseboard/internal/model"
	"Pulseboard/internal/pkg/consts"
	"Pulseboard/internal/pkg/csvsource"
	"Pulseboard/internal/pkg/logger"
	"Pulseboard/internal/pkg/minio"
	"Pulseboard/internal/pkg/mock"
	"Pulseboard/internal/service"
	"Pulseboard/internal/wire"
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
)

func rootApp() *cli.App {
	return &cli.App{
		Name:  "pulsectl",
		Usage: "Operate the social media engagement store",
		Description: `Generate mock engagement CSV files, run the one-shot CSV
		bootstrap, or insert a single mock batch outside the scheduler.

		Store and source settings are read from configs/config.yaml and
		PULSE_* environment variables, e.g. PULSE_STORE_BACKEND=memory.`,
		Commands: []*cli.Command{
			generateCmd(),
			ingestCmd(),
			tickCmd(),
		},
		Action: func(ctx *cli.Context) error {
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func generateCmd() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Write mock posts as CSV",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Value:   100,
				Usage:   "Number of posts to generate",
			},
			&cli.Int64Flag{
				Name:  "start-id",
				Value: 0,
				Usage: "Current max post_id, generated ids start after it",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Random seed, 0 picks a random one",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "-",
				Usage:   "Output file, '-' for stdout or minio://bucket/object to upload",
			},
		},
		Action: func(ctx *cli.Context) error {
			count := ctx.Int("count")
			if count < 1 {
				return fmt.Errorf("count must be positive, got %d", count)
			}
			out := ctx.String("out")

			var buf bytes.Buffer
			if err := writeMockCSV(&buf, count, ctx.Int64("start-id"), ctx.Uint64("seed")); err != nil {
				return err
			}

			switch {
			case out == "-":
				_, err := io.Copy(os.Stdout, &buf)
				return err
			case strings.HasPrefix(out, minio.Scheme):
				return uploadCSV(ctx.Context, out, &buf)
			default:
				return os.WriteFile(out, buf.Bytes(), 0o644)
			}
		},
	}
}

// writeMockCSV 生成 count 条模拟帖子并按 CSV 写出
func writeMockCSV(w io.Writer, count int, startID int64, seed uint64) error {
	if seed == 0 {
		seed = rand.Uint64()
	}
	gen := mock.NewGenerator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), time.Now)
	return csvsource.Write(w, gen.Generate(count, startID))
}

func uploadCSV(ctx context.Context, uri string, buf *bytes.Buffer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bucket, object, err := minio.ParseURI(uri)
	if err != nil {
		return err
	}
	client, err := minio.Init(cfg.MinIO)
	if err != nil {
		return err
	}
	key, err := minio.UploadFile(ctx, client, bucket, object, buf, int64(buf.Len()), "text/csv")
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "uploaded %s/%s\n", bucket, key)
	return nil
}

func ingestCmd() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Import the configured CSV if the store is empty",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "Override ingest.csv_source, local path or minio://bucket/object",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if src := ctx.String("source"); src != "" {
				cfg.Ingest.CSVSource = src
			}
			return withIngestService(cfg, func(svc service.IngestService) error {
				res := svc.Bootstrap(traceContext(ctx.Context))
				if err := printJSON(res); err != nil {
					return err
				}
				if !res.Success {
					return fmt.Errorf("bootstrap failed: %s", res.Message)
				}
				return nil
			})
		},
	}
}

func tickCmd() *cli.Command {
	return &cli.Command{
		Name:  "tick",
		Usage: "Insert one batch of mock posts",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "Batch size, 0 draws one from ingest.batch_min..batch_max",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return withIngestService(cfg, func(svc service.IngestService) error {
				c := traceContext(ctx.Context)
				var err error
				var evt *model.IngestEvent
				if n := ctx.Int("count"); n > 0 {
					evt, err = svc.GenerateMock(c, n, consts.SourceCLI)
				} else {
					evt, err = svc.Tick(c)
				}
				if err != nil {
					return err
				}
				return printJSON(evt)
			})
		},
	}
}

func loadConfig() (*config.Config, error) {
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}
	// 日志走 stderr，stdout 只输出结果
	logger.Output = os.Stderr
	logger.InitLogger(config.Cfg.Log)
	return config.Cfg, nil
}

// withIngestService 构造不带调度与推送的导入服务
func withIngestService(cfg *config.Config, fn func(svc service.IngestService) error) error {
	repo, closeRepo, err := wire.BuildPostRepo(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	source, err := wire.BuildCSVSource(cfg)
	if err != nil {
		return err
	}
	store := service.NewPostStoreService(repo, nil)
	return fn(service.NewIngestService(store, source, nil, cfg.Ingest))
}

func traceContext(ctx context.Context) context.Context {
	return logger.WithTrace(ctx, logger.TracePrefixCLI)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
