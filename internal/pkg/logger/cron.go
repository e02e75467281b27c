package logger

import (
	log "log/slog"
)

// CronLogger 实现 cron.Logger，keysAndValues 与 slog 的键值对格式一致
type CronLogger struct{}

func (CronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug("Cron "+msg, keysAndValues...)
}

func (CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error("Cron "+msg, append(keysAndValues, "err", err)...)
}
