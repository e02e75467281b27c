package logger

import (
	"Pulseboard/internal/api/config"
	"io"
	log "log/slog"
	"net"
	"os"
	"strings"
	"time"
)

// Output 本地日志输出，命令行工具改为 stderr
var Output io.Writer = os.Stdout

var LogWriter io.Writer = os.Stdout

// ParseLevel 未识别的级别按 info 处理
func ParseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

// InitLogger 安装全局 slog，远程地址可达时同时输出到远程 TCP
func InitLogger(cfg config.LogConfig) {
	opts := &log.HandlerOptions{Level: ParseLevel(cfg.Level)}
	hStdout := log.NewJSONHandler(Output, opts)

	var finalHandler log.Handler = hStdout
	LogWriter = Output

	if cfg.RemoteAddr != "" {
		conn, err := net.DialTimeout("tcp", cfg.RemoteAddr, 3*time.Second)
		if err == nil {
			hRemote := log.NewJSONHandler(conn, opts).
				WithAttrs([]log.Attr{log.String("service", "pulseboard")})

			finalHandler = &TeeHandler{
				handlers: []log.Handler{hStdout, NewRemoteFilterHandler(hRemote, log.LevelWarn)},
			}
			LogWriter = io.MultiWriter(Output, conn)
		} else {
			log.Warn("Failed to connect to remote log sink, logging to stdout only", "addr", cfg.RemoteAddr, "err", err)
		}
	}

	logger := log.New(&ContextHandler{finalHandler})
	log.SetDefault(logger)
}
