package ingest

import "strings"

const dailyPlanMarker = `"daily_plan"`

// NeedsRepair 判断文本是否疑似在生成中途被截断：
// 含 daily_plan 数组标记但不以 } 结尾
func NeedsRepair(text string) bool {
	return strings.Contains(text, dailyPlanMarker) &&
		!strings.HasSuffix(strings.TrimSpace(text), "}")
}

// scanState 括号/字符串扫描状态
type scanState struct {
	inString bool
	escaped  bool
	stack    []byte
}

// scanResult 单次扫描的结论
type scanResult struct {
	// lastElementEnd 最近一个完整闭合元素之后的偏移，-1 表示没有
	lastElementEnd int
	// arrayEnd 目标数组自身闭合之后的偏移，-1 表示未闭合
	arrayEnd int
	elements int
	// malformed 遇到不匹配的闭合符
	malformed bool
}

// step 推进一个字符，返回是否发生弹栈；闭合符不匹配时 ok 为 false
func (s *scanState) step(ch byte) (popped bool, ok bool) {
	if s.inString {
		switch {
		case s.escaped:
			s.escaped = false
		case ch == '\\':
			s.escaped = true
		case ch == '"':
			s.inString = false
		}
		return false, true
	}
	switch ch {
	case '"':
		s.inString = true
	case '{', '[':
		s.stack = append(s.stack, ch)
	case '}', ']':
		if len(s.stack) == 0 || s.stack[len(s.stack)-1] != opener(ch) {
			return false, false
		}
		s.stack = s.stack[:len(s.stack)-1]
		return true, true
	}
	return false, true
}

// scan 从 from 开始扫描 text，base 为目标数组内部的栈深度
func scan(text string, from int, state *scanState, base int) scanResult {
	res := scanResult{lastElementEnd: -1, arrayEnd: -1}
	for i := from; i < len(text); i++ {
		popped, ok := state.step(text[i])
		if !ok {
			res.malformed = true
			return res
		}
		if !popped {
			continue
		}
		switch len(state.stack) {
		case base:
			res.lastElementEnd = i + 1
			res.elements++
		case base - 1:
			res.arrayEnd = i + 1
			return res
		}
	}
	return res
}

// RepairTruncated 截断到最后一个完整的 daily_plan 元素，并补齐数组与外层容器的闭合符。
// 结果只包含完整元素；没有任何完整元素时返回 *RepairError。
func RepairTruncated(text string) (string, error) {
	marker := strings.Index(text, dailyPlanMarker)
	if marker < 0 {
		return "", &RepairError{Reason: "缺少 daily_plan 标记", Offset: -1}
	}
	rel := strings.IndexByte(text[marker:], '[')
	if rel < 0 {
		return "", &RepairError{Reason: "缺少数组起始符", Offset: marker}
	}
	arrayStart := marker + rel

	// 先扫描数组之前的前缀，得到外层容器栈
	state := &scanState{}
	for i := 0; i < arrayStart; i++ {
		if _, ok := state.step(text[i]); !ok {
			return "", &RepairError{Reason: "数组之前的括号不匹配", Offset: i}
		}
	}
	if state.inString {
		return "", &RepairError{Reason: "数组起始符位于字符串内", Offset: arrayStart}
	}
	enclosing := append([]byte(nil), state.stack...)

	state.stack = append(state.stack, '[')
	res := scan(text, arrayStart+1, state, len(state.stack))

	var b strings.Builder
	switch {
	case res.arrayEnd >= 0:
		b.WriteString(text[:res.arrayEnd])
	case res.lastElementEnd >= 0:
		b.WriteString(text[:res.lastElementEnd])
		b.WriteByte(']')
	case res.malformed:
		return "", &RepairError{Reason: "数组内括号不匹配", Offset: arrayStart}
	default:
		return "", &RepairError{Reason: "没有完整闭合的元素", Offset: arrayStart}
	}
	for i := len(enclosing) - 1; i >= 0; i-- {
		b.WriteByte(closer(enclosing[i]))
	}
	return b.String(), nil
}

func opener(closeCh byte) byte {
	if closeCh == '}' {
		return '{'
	}
	return '['
}

func closer(openCh byte) byte {
	if openCh == '{' {
		return '}'
	}
	return ']'
}
