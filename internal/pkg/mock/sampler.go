package mock

import (
	"errors"
	"math/rand/v2"
	"sort"
)

// Weighted 带权重的候选值
type Weighted[T any] struct {
	Value  T
	Weight float64
}

// Sampler 离散分布采样器，权重无需归一化
type Sampler[T any] struct {
	values []T
	cum    []float64
	total  float64
}

func NewSampler[T any](choices []Weighted[T]) (*Sampler[T], error) {
	s := &Sampler[T]{
		values: make([]T, 0, len(choices)),
		cum:    make([]float64, 0, len(choices)),
	}
	for _, c := range choices {
		if c.Weight < 0 {
			return nil, errors.New("sampler weight must be non-negative")
		}
		s.total += c.Weight
		s.values = append(s.values, c.Value)
		s.cum = append(s.cum, s.total)
	}
	if s.total <= 0 {
		return nil, errors.New("sampler needs at least one positive weight")
	}
	return s, nil
}

// MustSampler 用于固定表，权重非法直接 panic
func MustSampler[T any](choices []Weighted[T]) *Sampler[T] {
	s, err := NewSampler(choices)
	if err != nil {
		panic(err)
	}
	return s
}

// Sample 按权重抽取一个值
func (s *Sampler[T]) Sample(r *rand.Rand) T {
	x := r.Float64() * s.total
	idx := sort.Search(len(s.cum), func(i int) bool { return s.cum[i] > x })
	if idx == len(s.cum) {
		idx = len(s.cum) - 1
	}
	return s.values[idx]
}

// Probability 返回某个下标的理论概率，供统计检验使用
func (s *Sampler[T]) Probability(i int) float64 {
	prev := 0.0
	if i > 0 {
		prev = s.cum[i-1]
	}
	return (s.cum[i] - prev) / s.total
}
