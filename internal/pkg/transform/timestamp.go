package transform

import (
	"Pulseboard/internal/model"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// 先尝试 CSV 源格式，再尝试 ISO-8601，最后交给通用解析
var timestampLayouts = []string{
	"1/2/2006 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// parseTimestamp 解析组合时间字段，失败时返回 false
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// splitTimestamp 拆分为 posted_date / posted_time 字符串
func splitTimestamp(t time.Time) (string, string) {
	return t.Format(model.DateLayout), t.Format(model.TimeLayout)
}

type dateParts struct {
	hour      int
	dayOfWeek string
	month     string
	isWeekend bool
}

var defaultDateParts = dateParts{
	hour:      12,
	dayOfWeek: model.Unknown,
	month:     model.Unknown,
	isWeekend: false,
}

// derive 从 posted_date / posted_time 派生时间维度，解析失败时使用默认值
func derive(postedDate, postedTime string) dateParts {
	parts := defaultDateParts

	if d, err := time.Parse(model.DateLayout, strings.TrimSpace(postedDate)); err == nil {
		parts.dayOfWeek = d.Weekday().String()
		parts.month = d.Month().String()
		parts.isWeekend = d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
	}

	pt := strings.TrimSpace(postedTime)
	for _, layout := range []string{model.TimeLayout, "15:04"} {
		if tm, err := time.Parse(layout, pt); err == nil {
			parts.hour = tm.Hour()
			break
		}
	}
	return parts
}
