package model

import "time"

// IngestEvent 一次成功入库的批次，推送到 Kafka 与 WebSocket
type IngestEvent struct {
	TraceID      string    `json:"trace_id,omitempty"`
	Source       string    `json:"source"`
	Inserted     int       `json:"inserted"`
	FirstPostID  int64     `json:"first_post_id"`
	LastPostID   int64     `json:"last_post_id"`
	TotalRecords int64     `json:"total_records"`
	At           time.Time `json:"at"`
}
