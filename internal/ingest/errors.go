package ingest

import (
	"errors"
	"fmt"
)

// ── 可恢复错误：均在包内被吸收并回退到占位计划 ──

var (
	// ErrRepair 截断文本无法修复
	ErrRepair = errors.New("截断 JSON 无法修复")
	// ErrParse 文本无法解析为 JSON，也无法按文本格式识别
	ErrParse = errors.New("AI 输出无法解析")
	// ErrValidationRejected 结构存在但内容不足
	ErrValidationRejected = errors.New("AI 输出未通过结构校验")
)

// RepairError 修复失败详情
type RepairError struct {
	Reason string
	Offset int
}

func (e *RepairError) Error() string {
	return fmt.Sprintf("%s: %s (offset %d)", ErrRepair, e.Reason, e.Offset)
}

func (e *RepairError) Unwrap() error { return ErrRepair }

// ParseError 解析失败详情
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return ErrParse.Error()
	}
	return fmt.Sprintf("%s: %v", ErrParse, e.Err)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

func rejected(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidationRejected, reason)
}
