package logger

import (
	"Pulseboard/internal/pkg/consts"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// RedisLoggerHook 记录 Redis 错误与慢命令；聚合缓存的查找与失效单独记录
type RedisLoggerHook struct {
	slow time.Duration
}

func NewRedisLogger(slow time.Duration) *RedisLoggerHook {
	if slow <= 0 {
		slow = 100 * time.Millisecond
	}
	return &RedisLoggerHook{slow: slow}
}

// DialHook 记录建立连接失败
func (s *RedisLoggerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			log.ErrorContext(ctx, "Redis Dial Error",
				log.String("addr", addr),
				log.Duration("latency", time.Since(start)),
				log.Any("err", err),
			)
		}
		return conn, err
	}
}

func (s *RedisLoggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		elapsed := time.Since(start)

		cmdName := cmd.Name()
		fields := []any{
			log.String("command", cmdName),
			log.String("args", redisArgs(cmd)),
			log.Duration("latency", elapsed),
		}

		logAggCache(ctx, cmd, err)

		switch {
		case err == nil:
			if elapsed > s.slow {
				log.WarnContext(ctx, "Redis Slow", fields...)
			}
		case errors.Is(err, redis.Nil):
		case cmdName == "client" && strings.Contains(err.Error(), "setinfo"):
		default:
			log.ErrorContext(ctx, "Redis Error", append(fields, log.Any("err", err))...)
		}
		return err
	}
}

func (s *RedisLoggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		elapsed := time.Since(start)

		if err == nil && elapsed <= s.slow {
			return nil
		}
		fields := []any{
			log.Any("commands", lo.Map(cmds, func(c redis.Cmder, _ int) string { return c.Name() })),
			log.Duration("latency", elapsed),
		}
		if err != nil {
			log.ErrorContext(ctx, "Redis Pipeline Error", append(fields, log.Any("err", err))...)
		} else {
			log.WarnContext(ctx, "Redis Pipeline Slow", fields...)
		}
		return err
	}
}

// logAggCache GET 记录命中与否，INCR 代数记录失效后的新代数
func logAggCache(ctx context.Context, cmd redis.Cmder, err error) {
	key, ok := redisKey(cmd)
	if !ok || !strings.HasPrefix(key, consts.AggCacheKey) {
		return
	}
	switch cmd.Name() {
	case "get":
		if key == consts.AggGenerationKey || (err != nil && !errors.Is(err, redis.Nil)) {
			return
		}
		log.DebugContext(ctx, "Agg Cache Lookup", log.String("key", key), log.Bool("hit", err == nil))
	case "incr":
		if c, ok := cmd.(*redis.IntCmd); ok && err == nil {
			log.InfoContext(ctx, "Agg Cache Invalidated", log.Int64("generation", c.Val()))
		}
	}
}

func redisKey(cmd redis.Cmder) (string, bool) {
	args := cmd.Args()
	if len(args) < 2 {
		return "", false
	}
	key, ok := args[1].(string)
	return key, ok
}

// redisArgs 隐藏认证参数；缓存值与事件消息只记录长度
func redisArgs(cmd redis.Cmder) string {
	args := cmd.Args()
	switch cmd.Name() {
	case "auth", "hello":
		return "[PROTECTED]"
	case "set", "publish":
		if len(args) >= 3 {
			parts := []string{fmt.Sprint(args[0]), fmt.Sprint(args[1]), fmt.Sprintf("<%d bytes>", payloadLen(args[2]))}
			parts = append(parts, lo.Map(args[3:], func(a any, _ int) string { return fmt.Sprint(a) })...)
			return "[" + strings.Join(parts, " ") + "]"
		}
	}
	return fmt.Sprint(args)
}

func payloadLen(v any) int {
	switch p := v.(type) {
	case []byte:
		return len(p)
	case string:
		return len(p)
	default:
		return len(fmt.Sprint(p))
	}
}
