package consts

const (
	AggCacheKey      = "pulse:agg:"
	AggGenerationKey = "pulse:agg:gen"
)

// IngestEventChannel 多实例间广播入库事件
const IngestEventChannel = "pulse:ingest:events"
