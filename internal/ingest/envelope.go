package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// EnvelopeKind 响应信封形态
type EnvelopeKind int

const (
	// EnvelopeDirect 直接返回结构化对象
	EnvelopeDirect EnvelopeKind = iota
	// EnvelopeNestedString 对象的某个字符串字段承载实际内容
	EnvelopeNestedString
	// EnvelopeAltArray 另一类提供方的数组形态：[0].content.parts[0].text
	EnvelopeAltArray
	// EnvelopeOpaque 无法识别，原样透传
	EnvelopeOpaque
)

func (k EnvelopeKind) String() string {
	switch k {
	case EnvelopeDirect:
		return "direct"
	case EnvelopeNestedString:
		return "nested_string"
	case EnvelopeAltArray:
		return "alt_array"
	default:
		return "opaque"
	}
}

// nestedContentKeys 承载内容的字段，按优先级
var nestedContentKeys = []string{"result", "output", "text", "content"}

// Candidate 解包后的候选负载：要么是待解析文本，要么是已结构化的值
type Candidate struct {
	Kind   EnvelopeKind
	IsText bool
	Text   string
	Value  any
}

// NormalizeBytes 解码响应体并解包信封；非 JSON 响应体作为文本候选
func NormalizeBytes(body []byte) Candidate {
	trimmed := bytes.TrimSpace(body)
	var payload any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil || dec.More() {
		return Candidate{Kind: EnvelopeOpaque, IsText: true, Text: string(trimmed)}
	}
	return Normalize(payload)
}

// Normalize 在已知信封形态上做匹配，未识别形态原样透传，从不返回错误
func Normalize(payload any) Candidate {
	return normalize(payload, true)
}

func normalize(payload any, unwrapItem bool) Candidate {
	switch v := payload.(type) {
	case string:
		return Candidate{Kind: EnvelopeOpaque, IsText: true, Text: v}
	case map[string]any:
		if _, ok := v["daily_plan"]; ok {
			return Candidate{Kind: EnvelopeDirect, Value: v}
		}
		for _, key := range nestedContentKeys {
			switch inner := v[key].(type) {
			case string:
				return Candidate{Kind: EnvelopeNestedString, IsText: true, Text: inner}
			case map[string]any:
				return Candidate{Kind: EnvelopeNestedString, Value: inner}
			}
		}
		return Candidate{Kind: EnvelopeDirect, Value: v}
	case []any:
		if text, ok := altArrayText(v); ok {
			return Candidate{Kind: EnvelopeAltArray, IsText: true, Text: text}
		}
		// 工作流引擎常将结果包装为单元素数组
		if unwrapItem && len(v) == 1 {
			if _, ok := v[0].(map[string]any); ok {
				return normalize(v[0], false)
			}
		}
		return Candidate{Kind: EnvelopeOpaque, Value: v}
	default:
		return Candidate{Kind: EnvelopeOpaque, Value: v}
	}
}

func altArrayText(arr []any) (string, bool) {
	if len(arr) == 0 {
		return "", false
	}
	first, ok := arr[0].(map[string]any)
	if !ok {
		return "", false
	}
	content, ok := first["content"].(map[string]any)
	if !ok {
		return "", false
	}
	parts, ok := content["parts"].([]any)
	if !ok || len(parts) == 0 {
		return "", false
	}
	part, ok := parts[0].(map[string]any)
	if !ok {
		return "", false
	}
	text, ok := part["text"].(string)
	return text, ok
}

// ── 文本清洗 ──

// CleanText 去除 Markdown 代码围栏与 JSON 之前的说明文字。
// 不裁剪尾部，以免掩盖截断。
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimLeft(strings.TrimPrefix(s, "```"), "jsonJSON")
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	} else if start := strings.Index(s, "```json"); start >= 0 {
		s = s[start+len("```json"):]
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}
	if marker := strings.Index(s, `"daily_plan"`); marker >= 0 {
		if start := strings.LastIndex(s[:marker], "{"); start >= 0 {
			return s[start:]
		}
	}
	return s
}

// stripTrailingCommas 移除 } 或 ] 之前多余的逗号，字符串内部不处理
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
		}
		if ch == ',' {
			j := i + 1
			for j < len(s) && isJSONSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func isJSONSpace(ch byte) bool {
	return ch == ' ' || ch == '\n' || ch == '\r' || ch == '\t'
}

// DecodeJSON 解析文本中的第一个 JSON 值，忽略其后的附加文字
func DecodeJSON(text string) (any, error) {
	text = stripTrailingCommas(strings.TrimSpace(text))
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Err: err}
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, nil
	default:
		return nil, &ParseError{Err: fmt.Errorf("顶层值不是对象或数组: %T", v)}
	}
}
