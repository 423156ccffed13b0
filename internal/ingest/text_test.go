package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseText_DayHeaders(t *testing.T) {
	text := "Here is a plan.\n" +
		"**Day 1: Introduction to Go**\n" +
		"- Install the toolchain\n" +
		"- Write hello world\n" +
		"Study for 2 hours\n" +
		"\n" +
		"Day 2 - \n" +
		"Quiz on basics\n" +
		"Quick quiz covering day 1\n" +
		"## Day 3: Final exam\n"

	entries, err := ParseText(text)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	d1 := entries[0]
	assert.Equal(t, 1, *d1.Day)
	assert.Equal(t, "Introduction to Go", *d1.Title)
	assert.Equal(t, []string{"Install the toolchain", "Write hello world"}, d1.Topics)
	require.NotNil(t, d1.EstimatedTime)
	assert.Equal(t, "2 hours", *d1.EstimatedTime)
	assert.Nil(t, d1.PlanType)
	require.NotNil(t, d1.Description)
	assert.Contains(t, *d1.Description, "Write hello world")

	d2 := entries[1]
	assert.Equal(t, 2, *d2.Day)
	assert.Equal(t, "Quiz on basics", *d2.Title)
	assert.Equal(t, fallbackTopics, d2.Topics)
	assert.Equal(t, string(PlanQuiz), *d2.PlanType)

	d3 := entries[2]
	assert.Equal(t, "Final exam", *d3.Title)
	assert.Equal(t, string(PlanFinalExam), *d3.PlanType)
}

func TestParseText_NumberedLines(t *testing.T) {
	entries, err := ParseText("1. Variables and types\n2. Control flow\n   - if and switch statements")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Variables and types", *entries[0].Title)
	assert.Equal(t, 2, *entries[1].Day)
	assert.Equal(t, []string{"if and switch statements"}, entries[1].Topics)
}

func TestParseText_NoMarkers(t *testing.T) {
	_, err := ParseText("The model could not produce a plan today, sorry.")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}
