package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ahmeeeeedddddd/Studify/internal/model"
	"github.com/ahmeeeeedddddd/Studify/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportFormat       = errors.New("不支持的导出格式")
	ErrExportNoPlans      = errors.New("学习路线中没有每日计划")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// 支持的导出格式
const (
	ExportXLSX = "xlsx"
	ExportICS  = "ics"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportFile 导出结果，由 Handler 层设置响应头后写入 Response
type ExportFile struct {
	Content     *bytes.Buffer
	Filename    string
	ContentType string
}

// ExportService 学习路线导出业务接口
//
//   - xlsx：每天一行，含任务、资源与完成状态
//   - ics：每天一个全天事件，日期从用户课程开始日期起算
type ExportService interface {
	ExportRoadmap(ctx context.Context, userID, userCourseID, format string) (*ExportFile, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// exportDay 单日导出行
type exportDay struct {
	plan      model.DailyPlan
	tasks     []string
	resources []string
}

func (s *exportService) ExportRoadmap(ctx context.Context, userID, userCourseID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportXLSX
	}
	if format != ExportXLSX && format != ExportICS {
		return nil, ErrExportFormat
	}

	uc, days, err := s.load(ctx, userID, userCourseID)
	if err != nil {
		return nil, err
	}

	title := userCourseID
	if uc.Course != nil {
		title = uc.Course.Title
	}

	if format == ExportICS {
		buf := s.buildCalendar(uc, title, days)
		return &ExportFile{
			Content:     buf,
			Filename:    exportFilename(title, ExportICS),
			ContentType: contentTypeICS,
		}, nil
	}

	buf, err := s.buildWorkbook(title, days)
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("user_course_id", userCourseID), zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return &ExportFile{
		Content:     buf,
		Filename:    exportFilename(title, ExportXLSX),
		ContentType: contentTypeXLSX,
	}, nil
}

// load 查询用户课程及按天排列的计划、任务、资源
func (s *exportService) load(ctx context.Context, userID, userCourseID string) (*model.UserCourse, []exportDay, error) {
	uc, err := s.repo.UserCourse.GetForUser(ctx, userCourseID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrRoadmapNotFound
		}
		s.logger.Error("查询学习路线失败", zap.String("user_course_id", userCourseID), zap.Error(err))
		return nil, nil, err
	}

	plans, err := s.repo.DailyPlan.ListByUserCourse(ctx, userCourseID)
	if err != nil {
		s.logger.Error("查询每日计划失败", zap.Error(err))
		return nil, nil, err
	}
	if len(plans) == 0 {
		return nil, nil, ErrExportNoPlans
	}

	planIDs := make([]string, 0, len(plans))
	for _, p := range plans {
		planIDs = append(planIDs, p.DailyPlanID)
	}
	tasks, err := s.repo.Task.ListByPlans(ctx, planIDs)
	if err != nil {
		s.logger.Error("查询任务失败", zap.Error(err))
		return nil, nil, err
	}
	resources, err := s.repo.Resource.ListByPlans(ctx, planIDs)
	if err != nil {
		s.logger.Error("查询资源失败", zap.Error(err))
		return nil, nil, err
	}

	taskIndex := make(map[string][]string)
	for _, t := range tasks {
		taskIndex[t.DailyPlanID] = append(taskIndex[t.DailyPlanID], t.Title)
	}
	resourceIndex := make(map[string][]string)
	for _, r := range resources {
		text := r.Name
		if r.URL != "" {
			text += " (" + r.URL + ")"
		}
		resourceIndex[r.DailyPlanID] = append(resourceIndex[r.DailyPlanID], text)
	}

	days := make([]exportDay, 0, len(plans))
	for _, p := range plans {
		days = append(days, exportDay{
			plan:      p,
			tasks:     taskIndex[p.DailyPlanID],
			resources: resourceIndex[p.DailyPlanID],
		})
	}
	return uc, days, nil
}

// ════════════════════════════════════════════════════════════
// xlsx
// ════════════════════════════════════════════════════════════
//
// 表头：Day | Title | Type | Hours | Tasks | Resources | Completed

func (s *exportService) buildWorkbook(title string, days []exportDay) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Roadmap"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 6)
	f.SetColWidth(sheetName, "B", "B", 36)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 8)
	f.SetColWidth(sheetName, "E", "F", 48)
	f.SetColWidth(sheetName, "G", "G", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", "G1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	headers := []string{"Day", "Title", "Type", "Hours", "Tasks", "Resources", "Completed"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", "G2", headerStyle)

	row := 3
	for _, d := range days {
		completed := "No"
		if d.plan.IsCompleted {
			completed = "Yes"
		}
		values := []interface{}{
			d.plan.DayNumber,
			d.plan.Title,
			d.plan.PlanType,
			d.plan.StudyHours,
			strings.Join(d.tasks, "\n"),
			strings.Join(d.resources, "\n"),
			completed,
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		f.SetCellStyle(sheetName, cell("E", row), cell("F", row), wrapStyle)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ════════════════════════════════════════════════════════════
// ics
// ════════════════════════════════════════════════════════════

func (s *exportService) buildCalendar(uc *model.UserCourse, title string, days []exportDay) *bytes.Buffer {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Studify//Roadmap Export//EN")
	cal.SetXWRCalName(title)

	start := truncateToDate(uc.StartDate)
	stamp := time.Now().UTC()
	for _, d := range days {
		date := start.AddDate(0, 0, d.plan.DayNumber-1)
		event := cal.AddEvent(fmt.Sprintf("%s@studify", d.plan.DailyPlanID))
		event.SetDtStampTime(stamp)
		event.SetSummary(fmt.Sprintf("Day %d: %s", d.plan.DayNumber, d.plan.Title))
		event.SetDescription(eventDescription(d))
		event.SetAllDayStartAt(date)
		event.SetAllDayEndAt(date.AddDate(0, 0, 1))
	}

	return bytes.NewBufferString(cal.Serialize())
}

func eventDescription(d exportDay) string {
	var b strings.Builder
	if d.plan.Description != "" {
		b.WriteString(d.plan.Description)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Study hours: %d", d.plan.StudyHours)
	for _, t := range d.tasks {
		b.WriteString("\n- ")
		b.WriteString(t)
	}
	for _, r := range d.resources {
		b.WriteString("\n* ")
		b.WriteString(r)
	}
	return b.String()
}

// ── 辅助函数 ──

func exportFilename(title, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "roadmap"
	}
	return fmt.Sprintf("%s_roadmap.%s", name, ext)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
