package logger

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
)

// mongoDuplicateKey E11000，帖子集合上即 post_id 冲突
const mongoDuplicateKey = 11000

// NewMongoMonitor 不记录命令原文（insertMany 会带上整批帖子），只记录集合与耗时。
// 写错误在成功回复的 writeErrors 中，单独告警
func NewMongoMonitor() *event.CommandMonitor {
	return newMongoMonitor(200 * time.Millisecond)
}

func newMongoMonitor(slow time.Duration) *event.CommandMonitor {
	var collections sync.Map // request_id -> collection

	finish := func(requestID int64) string {
		if v, ok := collections.LoadAndDelete(requestID); ok {
			return v.(string)
		}
		return ""
	}

	return &event.CommandMonitor{
		Started: func(ctx context.Context, evt *event.CommandStartedEvent) {
			coll, _ := evt.Command.Lookup(evt.CommandName).StringValueOK()
			if coll != "" {
				collections.Store(evt.RequestID, coll)
			}
			log.DebugContext(ctx, "MongoDB Started",
				log.String("command", evt.CommandName),
				log.String("database", evt.DatabaseName),
				log.String("collection", coll),
				log.Int64("request_id", evt.RequestID),
			)
		},
		Succeeded: func(ctx context.Context, evt *event.CommandSucceededEvent) {
			fields := []any{
				log.String("command", evt.CommandName),
				log.String("collection", finish(evt.RequestID)),
				log.Duration("latency", evt.Duration),
				log.Int64("request_id", evt.RequestID),
			}

			if n, code, msg := writeErrors(evt.Reply); n > 0 {
				title := "MongoDB Write Errors"
				if code == mongoDuplicateKey {
					title = "MongoDB Duplicate post_id"
				}
				log.WarnContext(ctx, title, append(fields,
					log.Int("write_errors", n), log.Int("code", int(code)), log.String("errmsg", msg))...)
				return
			}
			if evt.Duration > slow {
				log.WarnContext(ctx, "MongoDB Slow", fields...)
			} else {
				log.DebugContext(ctx, "MongoDB Success", fields...)
			}
		},
		Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
			log.ErrorContext(ctx, "MongoDB Error",
				log.String("command", evt.CommandName),
				log.String("collection", finish(evt.RequestID)),
				log.Duration("latency", evt.Duration),
				log.Int64("request_id", evt.RequestID),
				log.String("err", evt.Failure),
			)
		},
	}
}

// writeErrors 返回写错误数量及第一条的 code 与 errmsg
func writeErrors(reply bson.Raw) (int, int32, string) {
	arr, ok := reply.Lookup("writeErrors").ArrayOK()
	if !ok {
		return 0, 0, ""
	}
	values, err := arr.Values()
	if err != nil || len(values) == 0 {
		return 0, 0, ""
	}
	first, ok := values[0].DocumentOK()
	if !ok {
		return len(values), 0, ""
	}
	code, _ := first.Lookup("code").Int32OK()
	msg, _ := first.Lookup("errmsg").StringValueOK()
	return len(values), code, msg
}
