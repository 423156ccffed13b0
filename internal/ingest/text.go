package ingest

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	dayHeaderRe  = regexp.MustCompile(`(?i)^[#*\s]*day\s+(\d+)\s*\**\s*(?::|-|–|—)\s*(.*)$`)
	numberedRe   = regexp.MustCompile(`^\s*(\d+)\.\s+(.*)$`)
	bulletRe     = regexp.MustCompile(`^[-•*]\s+`)
	numberItemRe = regexp.MustCompile(`^\d+[.)]\s+`)
)

var errNoDayMarkers = errors.New("未找到天数标记")

type textSegment struct {
	day   int
	lines []string
}

// ParseText 识别自由文本中的 "Day N:" / "Day N -" 段落；
// 没有此类标记时退而识别行首 "N." 编号。两者都没有时返回 *ParseError。
func ParseText(text string) ([]DayEntry, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	segments := splitSegments(lines, dayHeaderRe)
	if len(segments) == 0 {
		segments = splitSegments(lines, numberedRe)
	}
	if len(segments) == 0 {
		return nil, &ParseError{Err: errNoDayMarkers}
	}

	entries := make([]DayEntry, 0, len(segments))
	for _, seg := range segments {
		entries = append(entries, segmentEntry(seg))
	}
	return entries, nil
}

func splitSegments(lines []string, header *regexp.Regexp) []textSegment {
	var segments []textSegment
	for _, line := range lines {
		if m := header.FindStringSubmatch(line); m != nil {
			day, err := strconv.Atoi(m[1])
			if err == nil && day > 0 {
				segments = append(segments, textSegment{day: day, lines: []string{m[2]}})
				continue
			}
		}
		if len(segments) > 0 {
			cur := &segments[len(segments)-1]
			cur.lines = append(cur.lines, line)
		}
	}
	return segments
}

func segmentEntry(seg textSegment) DayEntry {
	day := seg.day
	entry := DayEntry{Day: &day}

	title := cleanTitleLine(seg.lines[0])
	rest := seg.lines[1:]
	if title == "" && len(rest) > 0 {
		title = cleanTitleLine(rest[0])
		if title != "" {
			rest = rest[1:]
		}
	}
	if title == "" {
		title = "Day " + strconv.Itoa(day)
	}
	entry.Title = &title

	content := strings.Join(seg.lines, "\n")
	if desc := strings.TrimSpace(strings.Join(rest, "\n")); desc != "" {
		entry.Description = &desc
	}

	entry.Topics = topicsFromText(content)
	if len(entry.Topics) == 0 {
		entry.Topics = append([]string(nil), fallbackTopics...)
	}

	if hours, ok := ExtractDuration(content); ok {
		entry.EstimatedTime = ptr(strconv.FormatFloat(hours, 'f', -1, 64) + " hours")
	}

	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "final exam"):
		entry.PlanType = ptr(string(PlanFinalExam))
	case strings.Contains(lower, "quiz") || strings.Contains(lower, "exam"):
		entry.PlanType = ptr(string(PlanQuiz))
	}
	return entry
}

// cleanTitleLine 去除 Markdown 强调符；列表项与过长的行不作为标题
func cleanTitleLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || bulletRe.MatchString(line) {
		return ""
	}
	line = strings.TrimSpace(strings.Trim(line, "*#_ "))
	if utf8.RuneCountInString(line) >= maxDerivedTitleRunes {
		return ""
	}
	return line
}

// topicsFromText 提取列表项（- • * 或 1. 1)）中长度大于 3 的内容
func topicsFromText(content string) []string {
	var topics []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		var topic string
		switch {
		case bulletRe.MatchString(trimmed):
			topic = bulletRe.ReplaceAllString(trimmed, "")
		case numberItemRe.MatchString(trimmed):
			topic = numberItemRe.ReplaceAllString(trimmed, "")
		default:
			continue
		}
		topic = strings.TrimSpace(topic)
		if utf8.RuneCountInString(topic) > 3 {
			topics = append(topics, topic)
		}
	}
	return topics
}
