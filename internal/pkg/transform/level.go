package transform

import (
	"Pulseboard/internal/model"
	"math"

	"github.com/montanaflynn/stats"
)

// levelBinner 把总互动映射到四档互动等级
type levelBinner struct {
	edges [3]float64 // 三个内部分界，右闭
	flat  bool       // 值域退化，全部记为 Medium
}

// newLevelBinner 依次尝试批内 25/50/75 百分位、等宽四分、全部 Medium
func newLevelBinner(values []float64) levelBinner {
	if len(values) == 0 {
		return levelBinner{flat: true}
	}
	lo, _ := stats.Min(values)
	hi, _ := stats.Max(values)

	if q, ok := percentileEdges(values); ok {
		edges := [5]float64{lo, q[0], q[1], q[2], hi}
		if strictlyIncreasing(edges[:]) {
			return levelBinner{edges: q}
		}
	}

	if hi > lo {
		width := (hi - lo) / 4
		return levelBinner{edges: [3]float64{lo + width, lo + 2*width, lo + 3*width}}
	}
	return levelBinner{flat: true}
}

// percentileEdges 少于 4 条时 25 百分位越界，交给等宽分箱
func percentileEdges(values []float64) ([3]float64, bool) {
	var edges [3]float64
	for i, p := range [3]float64{25, 50, 75} {
		v, err := stats.Percentile(values, p)
		if err != nil {
			return edges, false
		}
		edges[i] = v
	}
	return edges, true
}

func (b levelBinner) level(v float64) string {
	switch {
	case b.flat:
		return model.EngagementMedium
	case v <= b.edges[0]:
		return model.EngagementLow
	case v <= b.edges[1]:
		return model.EngagementMedium
	case v <= b.edges[2]:
		return model.EngagementHigh
	default:
		return model.EngagementVeryHigh
	}
}

func strictlyIncreasing(xs []float64) bool {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
		if i > 0 && x <= xs[i-1] {
			return false
		}
	}
	return true
}
