package ingest

import (
	"strings"
	"unicode/utf8"
)

// MinTitleLength 首条目标题最短长度，用于拦截占位或损坏内容
const MinTitleLength = 5

// Verdict 校验结论
type Verdict struct {
	Accepted bool
	Entries  []DayEntry
	// Reason 拒绝原因，包装 ErrParse 或 ErrValidationRejected
	Reason error
}

// Validate 依次检查：解析成功；daily_plan 存在且非空；首条目有正整数天数且标题足够长。
// 只深入检查首条目，其余条目交给转换阶段逐字段宽松处理。
func Validate(c CandidateSchedule, parseErr error) Verdict {
	if parseErr != nil {
		return Verdict{Reason: parseErr}
	}
	if !c.Present {
		return Verdict{Reason: rejected("缺少 daily_plan")}
	}
	if len(c.DailyPlan) == 0 {
		return Verdict{Reason: rejected("daily_plan 为空")}
	}

	first := c.DailyPlan[0]
	if first.Day == nil || *first.Day <= 0 {
		return Verdict{Reason: rejected("首条目缺少有效天数")}
	}
	if first.Title == nil || utf8.RuneCountInString(strings.TrimSpace(*first.Title)) < MinTitleLength {
		return Verdict{Reason: rejected("首条目标题过短")}
	}

	return Verdict{Accepted: true, Entries: c.DailyPlan}
}
