package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	day := 1
	zero := 0

	tests := []struct {
		name     string
		c        CandidateSchedule
		parseErr error
		accepted bool
		reason   error
	}{
		{"解析失败", CandidateSchedule{}, &ParseError{}, false, ErrParse},
		{"缺少 daily_plan", CandidateSchedule{}, nil, false, ErrValidationRejected},
		{"空数组", CandidateSchedule{Present: true}, nil, false, ErrValidationRejected},
		{"缺少天数", CandidateSchedule{Present: true, DailyPlan: []DayEntry{{Title: ptr("Intro to Go")}}}, nil, false, ErrValidationRejected},
		{"天数非正", CandidateSchedule{Present: true, DailyPlan: []DayEntry{{Day: &zero, Title: ptr("Intro to Go")}}}, nil, false, ErrValidationRejected},
		{"标题过短", CandidateSchedule{Present: true, DailyPlan: []DayEntry{{Day: &day, Title: ptr(" A  ")}}}, nil, false, ErrValidationRejected},
		{"恰好五个字符", CandidateSchedule{Present: true, DailyPlan: []DayEntry{{Day: &day, Title: ptr("Intro")}}}, nil, true, nil},
		{"多字节标题", CandidateSchedule{Present: true, DailyPlan: []DayEntry{{Day: &day, Title: ptr("变量与类型")}}}, nil, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(tt.c, tt.parseErr)
			assert.Equal(t, tt.accepted, v.Accepted)
			if tt.reason != nil {
				assert.True(t, errors.Is(v.Reason, tt.reason), "reason=%v", v.Reason)
			} else {
				assert.NoError(t, v.Reason)
				assert.Equal(t, tt.c.DailyPlan, v.Entries)
			}
		})
	}
}

func TestValidate_OnlyFirstEntryIsChecked(t *testing.T) {
	day := 1
	c := CandidateSchedule{Present: true, DailyPlan: []DayEntry{
		{Day: &day, Title: ptr("Getting started")},
		{},
		{Title: ptr("x")},
	}}
	v := Validate(c, nil)
	assert.True(t, v.Accepted)
	assert.Len(t, v.Entries, 3)
}
