package ingest

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ExtractSchedule 从结构化值中取出 daily_plan 数组；字段缺失时 Present 为 false
func ExtractSchedule(v any) CandidateSchedule {
	m, ok := v.(map[string]any)
	if !ok {
		return CandidateSchedule{}
	}
	raw, ok := lookup(m, "daily_plan", "dailyPlan")
	if !ok {
		return CandidateSchedule{}
	}
	arr, ok := raw.([]any)
	if !ok {
		return CandidateSchedule{Present: true}
	}
	entries := make([]DayEntry, 0, len(arr))
	for _, item := range arr {
		entries = append(entries, ExtractDayEntry(item))
	}
	return CandidateSchedule{Present: true, DailyPlan: entries}
}

// ExtractDayEntry 逐字段宽松提取单日条目，非对象返回全空条目
func ExtractDayEntry(item any) DayEntry {
	m, ok := item.(map[string]any)
	if !ok {
		return DayEntry{}
	}
	entry := DayEntry{
		Day:           intField(m, "day", "day_number", "dayNumber"),
		Title:         stringField(m, "title", "name"),
		Description:   stringField(m, "description", "summary"),
		EstimatedTime: stringField(m, "estimated_time", "estimatedTime", "study_hours", "hours", "duration"),
		PlanType:      stringField(m, "type", "plan_type", "planType"),
	}
	if raw, ok := lookup(m, "topics", "tasks"); ok {
		entry.Topics = extractTopics(raw)
	}
	if raw, ok := lookup(m, "quiz_data", "quiz"); ok {
		if qm, ok := raw.(map[string]any); ok {
			entry.Quiz = extractQuiz(qm)
		}
	}
	if raw, ok := lookup(m, "resources"); ok {
		entry.Resources = extractResources(raw)
	}
	return entry
}

func extractTopics(raw any) []string {
	switch v := raw.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case []any:
		topics := make([]string, 0, len(v))
		for _, item := range v {
			var s string
			if tm, ok := item.(map[string]any); ok {
				if p := stringField(tm, "title", "name", "topic", "task", "description"); p != nil {
					s = *p
				}
			} else if p := scalarString(item); p != nil {
				s = *p
			}
			if s != "" {
				topics = append(topics, s)
			}
		}
		return topics
	}
	return nil
}

func extractQuiz(m map[string]any) *QuizBlock {
	q := &QuizBlock{
		Title:       stringField(m, "title", "name"),
		CoversStart: intField(m, "covers_days_start", "coversDaysStart"),
		CoversEnd:   intField(m, "covers_days_end", "coversDaysEnd"),
	}
	if raw, ok := lookup(m, "covers_days", "coversDays"); ok {
		if arr, ok := raw.([]any); ok && len(arr) > 0 {
			if n, ok := toInt(arr[0]); ok {
				q.CoversStart = &n
			}
			if n, ok := toInt(arr[len(arr)-1]); ok {
				q.CoversEnd = &n
			}
		}
	}
	if raw, ok := lookup(m, "questions"); ok {
		if arr, ok := raw.([]any); ok {
			for _, item := range arr {
				if qm, ok := item.(map[string]any); ok {
					q.Questions = append(q.Questions, extractQuestion(qm))
				}
			}
		}
	}
	return q
}

func extractQuestion(m map[string]any) QuestionEntry {
	q := QuestionEntry{
		Text:          stringField(m, "question", "text", "prompt"),
		CorrectAnswer: stringField(m, "correct_answer", "correctAnswer", "answer"),
		Explanation:   stringField(m, "explanation"),
	}
	raw, ok := lookup(m, "options", "choices")
	if !ok {
		return q
	}
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if om, ok := item.(map[string]any); ok {
				text := stringField(om, "text", "option", "label", "value")
				if text == nil {
					continue
				}
				q.Options = append(q.Options, OptionEntry{
					Text:      *text,
					IsCorrect: boolField(om, "is_correct", "isCorrect", "correct"),
				})
			} else if s := scalarString(item); s != nil {
				q.Options = append(q.Options, OptionEntry{Text: *s})
			}
		}
	case map[string]any:
		// {"A": "...", "B": "..."} 按键排序
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s := scalarString(v[k]); s != nil {
				q.Options = append(q.Options, OptionEntry{Text: *s})
			}
		}
	}
	return q
}

func extractResources(raw any) []ResourceEntry {
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]ResourceEntry, 0, len(arr))
	for _, item := range arr {
		switch v := item.(type) {
		case map[string]any:
			out = append(out, ResourceEntry{
				Name: stringField(v, "name", "title"),
				URL:  stringField(v, "link", "url", "href"),
				Type: stringField(v, "type", "resource_type"),
			})
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
				out = append(out, ResourceEntry{URL: &s})
			} else {
				out = append(out, ResourceEntry{Name: &s})
			}
		}
	}
	return out
}

// ── 字段探测 ──

func lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(m map[string]any, keys ...string) *string {
	v, ok := lookup(m, keys...)
	if !ok {
		return nil
	}
	return scalarString(v)
}

func scalarString(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case map[string]any, []any:
		return nil
	default:
		var err error
		if s, err = cast.ToStringE(t); err != nil {
			return nil
		}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func intField(m map[string]any, keys ...string) *int {
	v, ok := lookup(m, keys...)
	if !ok {
		return nil
	}
	if n, ok := toInt(v); ok {
		return &n
	}
	return nil
}

var firstIntRe = regexp.MustCompile(`\d+`)

// toInt 接受整数、整数值的浮点数、数字字符串，以及形如 "Day 3" 的文本
func toInt(v any) (int, bool) {
	if n, ok := v.(json.Number); ok {
		v = n.String()
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			v = f
		} else if m := firstIntRe.FindString(s); m != "" {
			n, err := strconv.Atoi(m)
			return n, err == nil
		} else {
			return 0, false
		}
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func boolField(m map[string]any, keys ...string) *bool {
	v, ok := lookup(m, keys...)
	if !ok {
		return nil
	}
	if n, ok := v.(json.Number); ok {
		v = n.String()
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil
	}
	return &b
}
