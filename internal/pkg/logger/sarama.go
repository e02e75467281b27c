package logger

import (
	"fmt"
	log "log/slog"
	"strings"
)

// SaramaLogger 将 sarama 的 Print 风格日志转为 slog
type SaramaLogger struct{}

func (SaramaLogger) Print(v ...interface{}) {
	log.Debug("Sarama", "msg", strings.TrimSpace(fmt.Sprint(v...)))
}

func (SaramaLogger) Printf(format string, v ...interface{}) {
	log.Debug("Sarama", "msg", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (SaramaLogger) Println(v ...interface{}) {
	log.Debug("Sarama", "msg", strings.TrimSpace(fmt.Sprintln(v...)))
}
