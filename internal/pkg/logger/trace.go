package logger

import (
	"context"
	log "log/slog"
	"strings"

	"github.com/google/uuid"
)

// TraceIDKey Context 与 gin.Keys 中保存 trace id 的键
const TraceIDKey = "trace_id"

// trace id 前缀，标识一次入库或请求从哪个入口发起
const (
	TracePrefixJob       = "job-ingest-"
	TracePrefixKafka     = "kafka-"
	TracePrefixCLI       = "cli-"
	TracePrefixBootstrap = "bootstrap-"
)

// OriginHTTP 无已知前缀的 trace id 来自 HTTP 请求或上游透传
const OriginHTTP = "http"

var tracePrefixes = []string{TracePrefixJob, TracePrefixKafka, TracePrefixCLI, TracePrefixBootstrap}

// WithTrace 生成带前缀的 trace id 并写入 ctx
func WithTrace(ctx context.Context, prefix string) context.Context {
	return context.WithValue(ctx, TraceIDKey, prefix+uuid.NewString())
}

// TraceID 取出 ctx 中的 trace id
func TraceID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(TraceIDKey).(string)
	return id, ok && id != ""
}

// TraceOrigin 由前缀推断来源：job / kafka / cli / bootstrap / http
func TraceOrigin(id string) string {
	for _, p := range tracePrefixes {
		if strings.HasPrefix(id, p) {
			return strings.SplitN(p, "-", 2)[0]
		}
	}
	return OriginHTTP
}

// ContextHandler 从 ctx 中提取 trace_id，并附带 origin 方便按入口过滤
type ContextHandler struct {
	log.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r log.Record) error {
	if id, ok := TraceID(ctx); ok {
		r.AddAttrs(log.String(TraceIDKey, id), log.String("origin", TraceOrigin(id)))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []log.Attr) log.Handler {
	return &ContextHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) log.Handler {
	return &ContextHandler{h.Handler.WithGroup(name)}
}
