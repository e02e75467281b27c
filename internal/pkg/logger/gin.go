package logger

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// ginSkipPaths 健康检查太频繁，WebSocket 是长连接，耗时没有意义
var ginSkipPaths = []string{"/health", "/api/health", "/api/ping", "/ws/ingest"}

type accessLog struct {
	Time      string `json:"time"`
	Level     string `json:"level"`
	Msg       string `json:"msg"`
	TraceID   string `json:"trace_id,omitempty"`
	ClientIP  string `json:"client_ip"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	Latency   string `json:"latency"`
	BodySize  int    `json:"body_size"`
	ErrorText string `json:"error,omitempty"`
}

func SetupGin(r *gin.Engine) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    LogWriter,
		SkipPaths: ginSkipPaths,
		Formatter: formatAccessLog,
	}))

	r.Use(gin.Recovery())
}

// formatAccessLog 与 slog JSON 输出同一格式，5xx 记 ERROR，4xx 记 WARN
func formatAccessLog(p gin.LogFormatterParams) string {
	var traceID string
	if p.Keys != nil {
		if id, ok := p.Keys[TraceIDKey].(string); ok {
			traceID = id
		}
	}
	if traceID == "" && p.Request != nil {
		traceID, _ = TraceID(p.Request.Context())
	}

	level := "INFO"
	switch {
	case p.StatusCode >= 500:
		level = "ERROR"
	case p.StatusCode >= 400:
		level = "WARN"
	}

	line, err := json.Marshal(accessLog{
		Time:      p.TimeStamp.Format(time.RFC3339),
		Level:     level,
		Msg:       "GIN_ACCESS",
		TraceID:   traceID,
		ClientIP:  p.ClientIP,
		Method:    p.Method,
		Path:      p.Path,
		Status:    p.StatusCode,
		Latency:   p.Latency.String(),
		BodySize:  p.BodySize,
		ErrorText: strings.TrimSpace(p.ErrorMessage),
	})
	if err != nil {
		return ""
	}
	return string(line) + "\n"
}
