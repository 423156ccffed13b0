package ingest

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahmeeeeedddddd/Studify/pkg/metrics"
)

func newTestPipeline() (*Pipeline, *metrics.Metrics) {
	m := metrics.NewNop()
	return NewPipeline(zap.NewNop(), m), m
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestPipeline_DirectObject(t *testing.T) {
	p, m := newTestPipeline()
	out := p.Run([]byte(`{"daily_plan":[{"day":1,"title":"Intro to Variables","topics":["x"],"estimated_time":"1 hour"}]}`), 30)

	assert.Equal(t, SourceAI, out.Source)
	assert.Equal(t, EnvelopeDirect, out.Envelope)
	assert.NoError(t, out.Reason)
	require.Len(t, out.Plans, 1)
	got := out.Plans[0]
	assert.Equal(t, 1, got.DayNumber)
	assert.Equal(t, "Intro to Variables", got.Title)
	assert.Equal(t, 1, got.StudyHours)
	assert.Equal(t, PlanRegular, got.PlanType)
	assert.Equal(t, []Task{{Title: "x", EstimatedMinutes: DefaultTaskMinutes}}, got.Tasks)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlanSources.WithLabelValues("ai")))
}

func TestPipeline_OversizedFieldsAreBounded(t *testing.T) {
	p, _ := newTestPipeline()
	body := mustJSON(t, map[string]any{
		"daily_plan": []any{map[string]any{
			"day":            1,
			"title":          strings.Repeat("Very long title ", 25),
			"estimated_time": "9999999999 hours",
			"resources": []any{map[string]any{
				"name": "Docs",
				"url":  "https://go.dev/doc",
				"type": strings.Repeat("x", 50),
			}},
		}},
	})
	out := p.Run(body, 30)

	assert.Equal(t, SourceAI, out.Source)
	require.Len(t, out.Plans, 1)
	got := out.Plans[0]
	assert.LessOrEqual(t, utf8.RuneCountInString(got.Title), MaxTitleRunes)
	assert.Equal(t, MaxStudyHours, got.StudyHours)
	require.Len(t, got.Resources, 1)
	assert.Len(t, got.Resources[0].Type, MaxResourceTypeRunes)
}

func TestPipeline_NestedFencedString(t *testing.T) {
	p, _ := newTestPipeline()
	body := mustJSON(t, map[string]any{
		"output": "Sure! Here you go:\n```json\n{\"daily_plan\":[{\"day\":1,\"title\":\"Getting Started\",\"topics\":[\"Setup\",],},]}\n```",
	})
	out := p.Run(body, 30)

	assert.Equal(t, SourceAI, out.Source)
	assert.Equal(t, EnvelopeNestedString, out.Envelope)
	require.Len(t, out.Plans, 1)
	assert.Equal(t, "Getting Started", out.Plans[0].Title)
}

func TestPipeline_AltArray(t *testing.T) {
	p, _ := newTestPipeline()
	body := mustJSON(t, []any{map[string]any{
		"content": map[string]any{"parts": []any{map[string]any{
			"text": `{"daily_plan":[{"day":1,"title":"Arrays and slices"},{"day":2,"title":"Maps","type":"final_exam"}]}`,
		}}},
	}})
	out := p.Run(body, 30)

	assert.Equal(t, EnvelopeAltArray, out.Envelope)
	require.Len(t, out.Plans, 2)
	assert.Equal(t, PlanFinalExam, out.Plans[1].PlanType)
	require.NotNil(t, out.Plans[1].Quiz)
	assert.Equal(t, 1, out.Plans[1].Quiz.CoversDaysStart)
}

func TestPipeline_DoubleEncodedObject(t *testing.T) {
	p, _ := newTestPipeline()
	inner := `{"result":{"daily_plan":[{"day":1,"title":"Concurrency basics"}]}}`
	out := p.Run(mustJSON(t, map[string]any{"output": inner}), 30)

	assert.Equal(t, SourceAI, out.Source)
	require.Len(t, out.Plans, 1)
	assert.Equal(t, "Concurrency basics", out.Plans[0].Title)
}

func TestPipeline_TruncatedIsRepaired(t *testing.T) {
	p, m := newTestPipeline()
	body := mustJSON(t, map[string]any{
		"output": `{"daily_plan":[{"day":1,"title":"Intro to Go"},{"day":2,"title":"Functions"},{"day":3,"title":"Stru`,
	})
	out := p.Run(body, 30)

	assert.Equal(t, SourceRepaired, out.Source)
	require.Len(t, out.Plans, 2)
	assert.Equal(t, "Functions", out.Plans[1].Title)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RepairAttempts.WithLabelValues("repaired")))
}

func TestPipeline_TruncatedAtElementBoundary(t *testing.T) {
	p, _ := newTestPipeline()
	body := mustJSON(t, map[string]any{
		"output": `{"daily_plan":[{"day":1,"title":"Intro to Go"},{"day":2,"title":"Functions"}`,
	})
	out := p.Run(body, 30)

	assert.Equal(t, SourceRepaired, out.Source)
	assert.Len(t, out.Plans, 2)
}

func TestPipeline_RepairedButRejected(t *testing.T) {
	p, m := newTestPipeline()
	body := mustJSON(t, map[string]any{
		"output": `{"daily_plan":[{"day":1,"title":"A"},{"day":2,"title":"B`,
	})
	out := p.Run(body, 14)

	assert.Equal(t, SourceFallback, out.Source)
	assert.True(t, errors.Is(out.Reason, ErrValidationRejected))
	assert.Len(t, out.Plans, 14)
	assert.True(t, IsFallback(out.Plans))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues("validation")))
}

func TestPipeline_UnrepairableFallsBack(t *testing.T) {
	p, _ := newTestPipeline()
	body := mustJSON(t, map[string]any{"output": `{"daily_plan":[{"day":1,"title":"Intro to`})
	out := p.Run(body, 10)

	assert.Equal(t, SourceFallback, out.Source)
	assert.True(t, errors.Is(out.Reason, ErrRepair))
	assert.Equal(t, "repair", FallbackReason(out.Reason))
	assert.Len(t, out.Plans, 10)
}

func TestPipeline_EmptyScheduleFallsBack(t *testing.T) {
	p, _ := newTestPipeline()
	out := p.Run([]byte(`{"daily_plan":[]}`), 30)

	assert.Equal(t, SourceFallback, out.Source)
	require.Len(t, out.Plans, 30)
	quizDays := []int{}
	for _, plan := range out.Plans {
		if plan.PlanType == PlanQuiz {
			quizDays = append(quizDays, plan.DayNumber)
		}
	}
	assert.Equal(t, []int{7, 14, 21, 28}, quizDays)
	assert.Equal(t, PlanFinalExam, out.Plans[29].PlanType)
}

func TestPipeline_PlainTextPlan(t *testing.T) {
	p, _ := newTestPipeline()
	out := p.Run([]byte("Day 1: Introduction to Go\n- Install the toolchain\nDay 2: Types and values\n- Numbers and strings"), 30)

	assert.Equal(t, SourceText, out.Source)
	assert.Equal(t, EnvelopeOpaque, out.Envelope)
	require.Len(t, out.Plans, 2)
	assert.Equal(t, "Types and values", out.Plans[1].Title)
}

func TestPipeline_UnparseableProse(t *testing.T) {
	p, _ := newTestPipeline()
	out := p.Run([]byte("The model could not produce a plan today, sorry."), 30)

	assert.Equal(t, SourceFallback, out.Source)
	assert.True(t, errors.Is(out.Reason, ErrParse))
	assert.Equal(t, "parse", FallbackReason(out.Reason))
	require.Len(t, out.Plans, 30)
	assert.True(t, IsFallbackTitle(out.Plans[0].Title))
	assert.True(t, IsFallback(out.Plans))
}

func TestPipeline_NilMetrics(t *testing.T) {
	p := NewPipeline(nil, nil)
	out := p.Run([]byte(`{"daily_plan":[{"day":1,"title":"Intro","topics":[]}]}`), 30)
	assert.Equal(t, SourceAI, out.Source)
}
