package ingest

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultFallbackDays 未指定天数时的占位计划长度
const DefaultFallbackDays = 30

const (
	fallbackHours     = 2
	fallbackExamHours = 1
	fallbackExamTitle = "Final Examination"
	quizInterval      = 7
)

var fallbackTopics = []string{"Complete assigned reading", "Practice exercises", "Review concepts"}

// Fallback 生成确定性的 N 天占位计划：
// 普通日 "Day N Learning"；最后一天之前每第 7 天为周测；最后一天为期末考试
func Fallback(days int) []DailyPlan {
	if days <= 0 {
		days = DefaultFallbackDays
	}
	plans := make([]DailyPlan, 0, days)
	for i := 1; i <= days; i++ {
		plans = append(plans, fallbackDay(i, days))
	}
	return plans
}

func fallbackDay(i, days int) DailyPlan {
	switch {
	case i == days:
		return DailyPlan{
			DayNumber:  i,
			Title:      fallbackExamTitle,
			StudyHours: fallbackExamHours,
			PlanType:   PlanFinalExam,
			Tasks:      tasksFromTopics([]string{"Final examination covering all course material"}),
			Quiz: &Quiz{
				Title:           fallbackExamTitle,
				CoversDaysStart: 1,
				CoversDaysEnd:   i,
				Questions:       []Question{},
			},
			Resources: []Resource{},
		}
	case i%quizInterval == 0:
		title := weekQuizTitle(i)
		return DailyPlan{
			DayNumber:  i,
			Title:      title,
			StudyHours: fallbackExamHours,
			PlanType:   PlanQuiz,
			Tasks:      tasksFromTopics([]string{fmt.Sprintf("Take quiz covering Days %d-%d", i-quizInterval+1, i)}),
			Quiz: &Quiz{
				Title:           title,
				CoversDaysStart: i - quizInterval + 1,
				CoversDaysEnd:   i,
				Questions:       []Question{},
			},
			Resources: []Resource{},
		}
	default:
		return DailyPlan{
			DayNumber:  i,
			Title:      fallbackLearningTitle(i),
			StudyHours: fallbackHours,
			PlanType:   PlanRegular,
			Tasks:      tasksFromTopics(fallbackTopics),
			Resources:  []Resource{},
		}
	}
}

func fallbackLearningTitle(day int) string { return "Day " + strconv.Itoa(day) + " Learning" }

func weekQuizTitle(day int) string {
	return fmt.Sprintf("Week %d Quiz", (day+quizInterval-1)/quizInterval)
}

var fallbackTitleRe = regexp.MustCompile(`^Day (\d+) Learning$`)

// IsFallbackTitle 判断标题是否为占位计划的 "Day N Learning" 形式
func IsFallbackTitle(title string) bool {
	return fallbackTitleRe.MatchString(title)
}

// IsFallback 判断整份计划是否与同长度的占位计划完全一致（按标题与类型比较）
func IsFallback(plans []DailyPlan) bool {
	if len(plans) == 0 {
		return false
	}
	n := len(plans)
	for i, p := range plans {
		want := fallbackDay(i+1, n)
		if p.DayNumber != want.DayNumber || p.Title != want.Title || p.PlanType != want.PlanType {
			return false
		}
	}
	return true
}
