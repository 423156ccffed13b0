package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultStudyHours 无法解析学习时长时的默认值
const DefaultStudyHours = 2

var (
	hourRe      = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b`)
	minuteRe    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:minutes?|mins?|m)\b`)
	numberRe    = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// 紧凑写法 "1h30m" 中单位后紧跟数字
	unitDigitRe = regexp.MustCompile(`(?i)([a-z])(\d)`)
)

// ExtractDuration 识别带单位的时长（小时、分钟或二者组合），返回小时数
func ExtractDuration(s string) (float64, bool) {
	s = unitDigitRe.ReplaceAllString(s, "$1 $2")
	var hours float64
	found := false
	if m := hourRe.FindStringSubmatch(s); m != nil {
		if h, err := strconv.ParseFloat(m[1], 64); err == nil {
			hours += h
			found = true
		}
	}
	if m := minuteRe.FindStringSubmatch(s); m != nil {
		if mins, err := strconv.ParseFloat(m[1], 64); err == nil {
			hours += mins / 60
			found = true
		}
	}
	return hours, found
}

// ParseStudyHours 单位感知的学习时长提取：无单位的数字视为小时，
// 四舍五入到整数小时，限定在 [1, MaxStudyHours]；缺失或无法解析时为 DefaultStudyHours
func ParseStudyHours(raw *string) int {
	if raw == nil {
		return DefaultStudyHours
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return DefaultStudyHours
	}

	hours, ok := ExtractDuration(s)
	if !ok {
		m := numberRe.FindString(s)
		if m == "" {
			return DefaultStudyHours
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return DefaultStudyHours
		}
		hours = f
	}
	return clampHours(hours)
}

func clampHours(h float64) int {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return DefaultStudyHours
	}
	if h >= MaxStudyHours {
		return MaxStudyHours
	}
	n := int(math.Floor(h + 0.5))
	if n < 1 {
		return 1
	}
	return n
}
