package ingest

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ahmeeeeedddddd/Studify/pkg/logger"
	"github.com/ahmeeeeedddddd/Studify/pkg/metrics"
)

// Source 计划内容来源
type Source string

const (
	SourceAI       Source = "ai"
	SourceRepaired Source = "repaired"
	SourceText     Source = "text"
	SourceFallback Source = "fallback"
)

// Outcome 一次流水线运行的结果；Plans 总是满足规范计划的全部约束
type Outcome struct {
	Plans    []DailyPlan
	Source   Source
	Envelope EnvelopeKind
	// Reason 回退原因，仅 Source 为 fallback 时非空
	Reason error
}

// Pipeline 将原始响应体转换为规范计划，不会因输入内容返回错误
type Pipeline struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewPipeline 创建流水线
func NewPipeline(l *zap.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{logger: logger.Stage(l, "ingest"), metrics: m}
}

// Run 执行 解包 → 清洗 → 修复 → 解析 → 校验 → 转换；
// 任一可恢复失败均以 fallbackDays 天的占位计划收尾
func (p *Pipeline) Run(body []byte, fallbackDays int) Outcome {
	cand := NormalizeBytes(body)

	schedule, source, err := p.resolve(cand)
	verdict := Validate(schedule, err)
	if verdict.Accepted {
		plans := Transform(verdict.Entries)
		p.record(source, nil)
		return Outcome{Plans: plans, Source: source, Envelope: cand.Kind}
	}

	p.logger.Warn("AI 输出不可用，使用占位计划",
		zap.String("envelope", cand.Kind.String()),
		zap.Int("fallback_days", fallbackDays),
		zap.Error(verdict.Reason),
	)
	p.record(SourceFallback, verdict.Reason)
	return Outcome{
		Plans:    Fallback(fallbackDays),
		Source:   SourceFallback,
		Envelope: cand.Kind,
		Reason:   verdict.Reason,
	}
}

// resolve 得到候选计划及其来源；err 为解析或修复失败
func (p *Pipeline) resolve(cand Candidate) (CandidateSchedule, Source, error) {
	if !cand.IsText {
		return ExtractSchedule(cand.Value), SourceAI, nil
	}

	text := CleanText(cand.Text)
	source := SourceAI

	if NeedsRepair(text) {
		repaired, err := p.repair(text)
		if err != nil {
			return CandidateSchedule{}, SourceFallback, err
		}
		text, source = repaired, SourceRepaired
	}

	value, err := DecodeJSON(text)
	if err != nil && source != SourceRepaired && strings.Contains(text, dailyPlanMarker) {
		// 以 } 结尾但仍不完整，例如截断在某个元素的闭合处
		if repaired, rerr := p.repair(text); rerr == nil {
			if v, derr := DecodeJSON(repaired); derr == nil {
				value, err, source = v, nil, SourceRepaired
			}
		}
	}
	if err != nil {
		entries, terr := ParseText(text)
		if terr != nil {
			return CandidateSchedule{}, SourceFallback, terr
		}
		return CandidateSchedule{Present: true, DailyPlan: entries}, SourceText, nil
	}

	// 解析出的值可能仍带一层信封
	inner := Normalize(value)
	if inner.IsText {
		value, err = DecodeJSON(CleanText(inner.Text))
		if err != nil {
			return CandidateSchedule{}, SourceFallback, err
		}
	} else {
		value = inner.Value
	}
	return ExtractSchedule(value), source, nil
}

func (p *Pipeline) repair(text string) (string, error) {
	repaired, err := RepairTruncated(text)
	if err != nil {
		p.metrics.CountRepair("failed")
		p.logger.Warn("截断 JSON 修复失败", zap.Error(err))
		return "", err
	}
	p.metrics.CountRepair("repaired")
	p.logger.Info("截断 JSON 已修复",
		zap.Int("original_bytes", len(text)),
		zap.Int("repaired_bytes", len(repaired)),
	)
	return repaired, nil
}

func (p *Pipeline) record(source Source, reason error) {
	if p.metrics == nil {
		return
	}
	p.metrics.PlanSources.WithLabelValues(string(source)).Inc()
	if reason != nil {
		p.metrics.Fallbacks.WithLabelValues(FallbackReason(reason)).Inc()
	}
}

// FallbackReason 将回退原因归类为 repair / parse / validation
func FallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrRepair):
		return "repair"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrValidationRejected):
		return "validation"
	default:
		return "unknown"
	}
}
