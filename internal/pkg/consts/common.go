package consts

// 入库来源
const (
	SourceCSV       = "csv"
	SourceMock      = "mock"
	SourceBootstrap = "bootstrap"
	SourceKafka     = "kafka"
	SourceCLI       = "cli"
)

const TraceHeader = "X-Trace-ID"
