package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFallback_ThirtyDays(t *testing.T) {
	plans := Fallback(30)
	require.Len(t, plans, 30)

	assert.Equal(t, "Day 1 Learning", plans[0].Title)
	assert.Equal(t, PlanRegular, plans[0].PlanType)
	assert.Equal(t, 2, plans[0].StudyHours)
	assert.Len(t, plans[0].Tasks, 3)
	assert.NotNil(t, plans[0].Resources)
	assert.Empty(t, plans[0].Resources)

	for _, day := range []int{7, 14, 21, 28} {
		p := plans[day-1]
		assert.Equal(t, PlanQuiz, p.PlanType, "day %d", day)
		require.NotNil(t, p.Quiz)
		assert.Equal(t, day-6, p.Quiz.CoversDaysStart)
		assert.Equal(t, day, p.Quiz.CoversDaysEnd)
		assert.Equal(t, 1, p.StudyHours)
	}
	assert.Equal(t, "Week 2 Quiz", plans[13].Title)

	last := plans[29]
	assert.Equal(t, PlanFinalExam, last.PlanType)
	assert.Equal(t, "Final Examination", last.Title)
	require.NotNil(t, last.Quiz)
	assert.Equal(t, 1, last.Quiz.CoversDaysStart)
	assert.Equal(t, 30, last.Quiz.CoversDaysEnd)
	assert.NotNil(t, last.Quiz.Questions)
}

func TestFallback_EdgeLengths(t *testing.T) {
	assert.Len(t, Fallback(0), DefaultFallbackDays)

	one := Fallback(1)
	require.Len(t, one, 1)
	assert.Equal(t, PlanFinalExam, one[0].PlanType)

	seven := Fallback(7)
	assert.Equal(t, PlanFinalExam, seven[6].PlanType)
	for _, p := range seven[:6] {
		assert.Equal(t, PlanRegular, p.PlanType)
	}
}

func TestFallback_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 400).Draw(t, "days")
		plans := Fallback(n)
		if len(plans) != n {
			t.Fatalf("expected %d days, got %d", n, len(plans))
		}

		finals, quizzes := 0, 0
		for i, p := range plans {
			if p.DayNumber != i+1 {
				t.Fatalf("day %d numbered %d", i+1, p.DayNumber)
			}
			if p.StudyHours < 1 {
				t.Fatalf("day %d has %d study hours", p.DayNumber, p.StudyHours)
			}
			switch p.PlanType {
			case PlanFinalExam:
				finals++
				if p.DayNumber != n {
					t.Fatalf("final exam on day %d of %d", p.DayNumber, n)
				}
			case PlanQuiz:
				quizzes++
			}
		}
		if finals != 1 {
			t.Fatalf("expected one final exam, got %d", finals)
		}
		if want := (n - 1) / 7; quizzes != want {
			t.Fatalf("expected %d quizzes for %d days, got %d", want, n, quizzes)
		}
		if !IsFallback(plans) {
			t.Fatalf("IsFallback should recognise its own output")
		}
	})
}

func TestIsFallback(t *testing.T) {
	assert.True(t, IsFallbackTitle("Day 12 Learning"))
	assert.False(t, IsFallbackTitle("Day 12: Closures"))
	assert.False(t, IsFallback(nil))

	plans := Fallback(10)
	plans[3].Title = "Interfaces"
	assert.False(t, IsFallback(plans))
}
