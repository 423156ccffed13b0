package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 学习路线生成流水线指标
type Metrics struct {
	// 生成请求：按结果（success / timeout / unavailable / persistence_failure）
	Generations *prometheus.CounterVec
	// 计划来源：ai / repaired / text / fallback
	PlanSources *prometheus.CounterVec
	// 回退原因：parse / validation / repair
	Fallbacks *prometheus.CounterVec

	AICalls   *prometheus.CounterVec
	AILatency *prometheus.HistogramVec

	RepairAttempts *prometheus.CounterVec
	PlanDays       prometheus.Histogram

	PersistDuration prometheus.Histogram
}

// NewMetrics 创建并注册全部指标
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studify_roadmap_generations_total",
				Help: "Roadmap generation requests by outcome",
			},
			[]string{"outcome"},
		),
		PlanSources: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studify_roadmap_plan_source_total",
				Help: "Persisted roadmaps by plan source",
			},
			[]string{"source"},
		),
		Fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studify_roadmap_fallbacks_total",
				Help: "Fallback schedule substitutions by reason",
			},
			[]string{"reason"},
		),
		AICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studify_ai_calls_total",
				Help: "Calls to the AI generation service by operation and status",
			},
			[]string{"operation", "status"},
		),
		AILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studify_ai_call_duration_seconds",
				Help:    "AI generation service call latency",
				Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 180},
			},
			[]string{"operation"},
		),
		RepairAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studify_roadmap_repair_attempts_total",
				Help: "Truncation repair attempts by result",
			},
			[]string{"result"},
		),
		PlanDays: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "studify_roadmap_plan_days",
				Help:    "Number of days in persisted roadmaps",
				Buckets: []float64{7, 14, 30, 60, 90, 180, 365},
			},
		),
		PersistDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "studify_roadmap_persist_duration_seconds",
				Help:    "Duration of the roadmap persistence transaction",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// NewNop 返回注册到私有 registry 的指标，供测试与无监控场景使用
func NewNop() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// ObserveAICall 记录一次 AI 服务调用
func (m *Metrics) ObserveAICall(operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AICalls.WithLabelValues(operation, status).Inc()
	m.AILatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// CountRepair 记录一次截断修复尝试
func (m *Metrics) CountRepair(result string) {
	if m == nil {
		return
	}
	m.RepairAttempts.WithLabelValues(result).Inc()
}
