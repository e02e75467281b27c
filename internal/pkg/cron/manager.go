package cron

import (
	"Pulseboard/internal/pkg/logger"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/robfig/cron/v3"
)

// 延迟直方图范围：1µs ~ 10min，3 位有效数字
const (
	minLatency = int64(time.Microsecond)
	maxLatency = int64(10 * time.Minute)
)

// Status 调度器状态
type Status struct {
	Running  bool            `json:"running"`
	Interval string          `json:"interval"`
	NextRun  *time.Time      `json:"next_run,omitempty"`
	LastRun  *time.Time      `json:"last_run,omitempty"`
	Ticks    int64           `json:"ticks"`
	Latency  *LatencySummary `json:"latency,omitempty"`
}

// LatencySummary 单次执行耗时分位数，单位毫秒
type LatencySummary struct {
	P50 float64 `json:"p50_ms"`
	P90 float64 `json:"p90_ms"`
	P99 float64 `json:"p99_ms"`
	Max float64 `json:"max_ms"`
}

// Manager 以固定间隔运行一个任务，支持反复启停
type Manager struct {
	mu       sync.Mutex
	engine   *cron.Cron
	entryID  cron.EntryID
	job      cron.Job
	interval time.Duration

	statMu  sync.Mutex
	latency *hdrhistogram.Histogram
	lastRun time.Time
}

func NewCronManager(job cron.Job, interval time.Duration) *Manager {
	return &Manager{
		job:      job,
		interval: interval,
		latency:  hdrhistogram.New(minLatency, maxLatency, 3),
	}
}

// Start 启动调度，已在运行时返回 false
func (s *Manager) Start() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil {
		return false, nil
	}

	l := logger.CronLogger{}
	engine := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	id, err := engine.AddJob(fmt.Sprintf("@every %s", s.interval), cron.FuncJob(s.runTimed))
	if err != nil {
		return false, err
	}
	engine.Start()
	s.engine = engine
	s.entryID = id
	log.Info("Cron 定时任务引擎启动", "interval", s.interval.String())
	return true, nil
}

// Stop 停止调度，未运行时返回 false。正在执行的任务会继续跑完
func (s *Manager) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return false
	}
	s.engine.Stop()
	s.engine = nil
	s.entryID = 0
	log.Info("Cron 定时任务引擎停止")
	return true
}

func (s *Manager) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine != nil
}

func (s *Manager) Status() Status {
	s.mu.Lock()
	st := Status{Running: s.engine != nil, Interval: s.interval.String()}
	if s.engine != nil {
		if next := s.engine.Entry(s.entryID).Next; !next.IsZero() {
			st.NextRun = &next
		}
	}
	s.mu.Unlock()

	s.statMu.Lock()
	defer s.statMu.Unlock()
	st.Ticks = s.latency.TotalCount()
	if !s.lastRun.IsZero() {
		last := s.lastRun
		st.LastRun = &last
	}
	if st.Ticks > 0 {
		st.Latency = &LatencySummary{
			P50: toMillis(s.latency.ValueAtQuantile(50)),
			P90: toMillis(s.latency.ValueAtQuantile(90)),
			P99: toMillis(s.latency.ValueAtQuantile(99)),
			Max: toMillis(s.latency.Max()),
		}
	}
	return st
}

// runTimed 执行任务并记录耗时
func (s *Manager) runTimed() {
	start := time.Now()
	defer func() {
		s.record(start, time.Since(start))
	}()
	s.job.Run()
}

func (s *Manager) record(start time.Time, d time.Duration) {
	v := int64(d)
	if v < minLatency {
		v = minLatency
	}
	if v > maxLatency {
		v = maxLatency
	}
	s.statMu.Lock()
	defer s.statMu.Unlock()
	_ = s.latency.RecordValue(v)
	s.lastRun = start
}

func toMillis(ns int64) float64 {
	return float64(ns) / float64(time.Millisecond)
}
