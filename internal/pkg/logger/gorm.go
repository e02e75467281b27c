package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SlogGormLogger 把 gorm 日志转为 slog。批量写入的 SQL 可能很长，超过 MaxSQLLen 截断
type SlogGormLogger struct {
	LogLevel      logger.LogLevel
	SlowThreshold time.Duration
	MaxSQLLen     int
}

// NewGormLogger 默认只记录慢查询与错误
func NewGormLogger() *SlogGormLogger {
	return &SlogGormLogger{
		LogLevel:      logger.Warn,
		SlowThreshold: 200 * time.Millisecond,
		MaxSQLLen:     1000,
	}
}

func (l *SlogGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *SlogGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Info {
		slog.InfoContext(ctx, msg, "data", data)
	}
}

func (l *SlogGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Warn {
		slog.WarnContext(ctx, msg, "data", data)
	}
}

func (l *SlogGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Error {
		slog.ErrorContext(ctx, msg, "data", data)
	}
}

func (l *SlogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	msg := "SQL " + sqlOperation(sql)

	fields := []any{
		slog.String("sql", l.truncate(sql)),
		slog.Duration("latency", elapsed),
		slog.Int64("rows", rows),
	}

	switch {
	case err != nil && errors.Is(err, logger.ErrRecordNotFound):
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// post_id 冲突由上层转成数据违规，不算存储故障
		if l.LogLevel >= logger.Warn {
			slog.WarnContext(ctx, msg+" Duplicate", append(fields, slog.Any("err", err))...)
		}
		return
	case err != nil:
		if l.LogLevel >= logger.Error {
			slog.ErrorContext(ctx, msg+" Error", append(fields, slog.Any("err", err))...)
		}
		return
	}

	if l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.LogLevel >= logger.Warn {
		slog.WarnContext(ctx, msg+" Slow", fields...)
	} else if l.LogLevel >= logger.Info {
		slog.InfoContext(ctx, msg, fields...)
	}
}

func (l *SlogGormLogger) truncate(sql string) string {
	if l.MaxSQLLen <= 0 || len(sql) <= l.MaxSQLLen {
		return sql
	}
	return fmt.Sprintf("%s...[truncated %d bytes]", sql[:l.MaxSQLLen], len(sql)-l.MaxSQLLen)
}

// sqlOperation 取首个关键字，如 SELECT / INSERT
func sqlOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "Query"
	}
	return strings.ToUpper(fields[0])
}
